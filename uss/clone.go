package uss

// Deep copy support for style asset structures, so a pre-patch snapshot of
// an asset can be kept around while the original is being modified.

// Clone creates a deep copy of the asset. Mutating the copy never reaches
// back into the original.
func (a *StyleAsset) Clone() *StyleAsset {
	if a == nil {
		return nil
	}

	clone := &StyleAsset{
		Name:      a.Name,
		Colors:    cloneColors(a.Colors),
		Strings:   cloneStrings(a.Strings),
		Floats:    cloneFloats(a.Floats),
		Rules:     cloneRules(a.Rules),
		Selectors: cloneComplexSelectors(a.Selectors),
	}

	return clone
}

// Clone creates a deep copy of the rule with fresh property and slot
// objects, so patching the copy cannot leak into the source rule.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	return &Rule{
		Line:       r.Line,
		Properties: cloneProperties(r.Properties),
	}
}

func cloneColors(colors []RGBA) []RGBA {
	if colors == nil {
		return nil
	}
	result := make([]RGBA, len(colors))
	copy(result, colors)
	return result
}

func cloneStrings(strings []string) []string {
	if strings == nil {
		return nil
	}
	result := make([]string, len(strings))
	copy(result, strings)
	return result
}

func cloneFloats(floats []float64) []float64 {
	if floats == nil {
		return nil
	}
	result := make([]float64, len(floats))
	copy(result, floats)
	return result
}

func cloneRules(rules []*Rule) []*Rule {
	if rules == nil {
		return nil
	}
	result := make([]*Rule, len(rules))
	for i := range rules {
		result[i] = rules[i].Clone()
	}
	return result
}

func cloneProperties(props []*Property) []*Property {
	if props == nil {
		return nil
	}
	result := make([]*Property, len(props))
	for i, p := range props {
		if p == nil {
			continue
		}
		result[i] = &Property{
			Name:   p.Name,
			Line:   p.Line,
			Values: cloneValueSlots(p.Values),
		}
	}
	return result
}

func cloneValueSlots(values []*ValueSlot) []*ValueSlot {
	if values == nil {
		return nil
	}
	result := make([]*ValueSlot, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		result[i] = &ValueSlot{Kind: v.Kind, Index: v.Index}
	}
	return result
}

func cloneComplexSelectors(selectors []*ComplexSelector) []*ComplexSelector {
	if selectors == nil {
		return nil
	}
	result := make([]*ComplexSelector, len(selectors))
	for i, cs := range selectors {
		if cs == nil {
			continue
		}
		result[i] = &ComplexSelector{
			RuleIndex:   cs.RuleIndex,
			Specificity: cs.Specificity,
			Selectors:   cloneStyleSelectors(cs.Selectors),
		}
	}
	return result
}

func cloneStyleSelectors(selectors []*StyleSelector) []*StyleSelector {
	if selectors == nil {
		return nil
	}
	result := make([]*StyleSelector, len(selectors))
	for i, s := range selectors {
		if s == nil {
			continue
		}
		clone := &StyleSelector{Relationship: s.Relationship}
		if s.Parts != nil {
			clone.Parts = make([]SelectorPart, len(s.Parts))
			copy(clone.Parts, s.Parts)
		}
		result[i] = clone
	}
	return result
}
