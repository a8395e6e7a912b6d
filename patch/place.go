package patch

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"restyle/css"
	"restyle/uss"
)

// placeNewVariables creates definitions for override variables nothing in
// the asset matched. A variable defined by another asset of the bundle is
// left for that asset to pick up; what remains is created only when the
// asset was explicitly targeted or is the primary variable sink. New
// properties go to the rule already holding variable definitions, or to one
// synthetic rule appended at the end so existing rule indices keep working.
func (p *assetPass) placeNewVariables() {
	defined := make(map[string]struct{})
	for _, name := range p.a.VariableNames() {
		defined[name] = struct{}{}
	}

	var pending []string
	for name := range p.vars {
		if _, ok := p.matchedVars[name]; ok {
			continue
		}
		if _, ok := defined[name]; ok {
			continue
		}
		if p.run.registry.VariableElsewhere(name, p.a.Name) {
			p.e.log.Debug("variable defined elsewhere, leaving placement to its owner",
				zap.String("asset", p.a.Name), zap.String("variable", name),
				zap.Strings("owners", p.run.registry.VariableOwners(name)))
			continue
		}
		pending = append(pending, name)
	}
	if len(pending) == 0 {
		return
	}
	if !p.targeted && strings.ToLower(p.a.Name) != p.e.opts.PrimaryVariableSink {
		p.e.log.Debug("asset is not a variable sink, skipping new variables",
			zap.String("asset", p.a.Name), zap.Int("variables", len(pending)),
			zap.String("sink", p.e.opts.PrimaryVariableSink))
		return
	}
	slices.Sort(pending)

	rule := p.variablesRule()
	line := nextPropertyLine(rule)
	for _, name := range pending {
		prop := &uss.Property{Name: name, Line: line}
		if line >= 0 {
			line++
		}
		kind, idx := p.appendVariableValue(prop, name, p.vars[name])
		rule.Properties = append(rule.Properties, prop)
		p.varsPatched++
		p.changed = true
		p.e.log.Info("created variable",
			zap.String("asset", p.a.Name), zap.String("variable", name),
			zap.Stringer("kind", kind), zap.Int("index", idx))
	}
}

// variablesRule returns the first rule already defining variables, creating
// a synthetic rule when the asset has none.
func (p *assetPass) variablesRule() *uss.Rule {
	for _, rule := range p.a.Rules {
		for _, prop := range rule.Properties {
			if strings.HasPrefix(prop.Name, "--") {
				return rule
			}
		}
	}
	rule := &uss.Rule{Line: -1}
	p.a.AddRule(rule)
	p.e.log.Info("created variables rule",
		zap.String("asset", p.a.Name), zap.Int("rule", len(p.a.Rules)-1))
	return rule
}

// nextPropertyLine continues the line numbering of the rule's existing
// properties, or -1 when the rule has no usable positions.
func nextPropertyLine(rule *uss.Rule) int {
	max := -1
	for _, prop := range rule.Properties {
		if prop.Line > max {
			max = prop.Line
		}
	}
	if max < 0 {
		return -1
	}
	return max + 1
}

// placeNewSelectors creates rules for override selectors the asset does not
// declare. Selector keys are canonical, so dotted and bare spellings of the
// same class already collapsed at collection time. Deferral and sink gating
// work like variable placement; each created selector gets its own rule so
// later runs find and patch it in place.
func (p *assetPass) placeNewSelectors() {
	existing := make(map[string]struct{})
	for _, cs := range p.a.Selectors {
		for _, s := range cs.Selectors {
			existing[css.CanonicalSelector(uss.BuildSelector(s.Parts))] = struct{}{}
		}
	}

	bySelector := make(map[string][]css.SelectorKey)
	for key, ov := range p.overrides {
		if _, ok := p.matchedKeys[key]; ok {
			continue
		}
		if _, ok := existing[key.Name]; ok {
			continue
		}
		if !p.e.allowsKey(key) {
			continue
		}
		if p.run.registry.SelectorElsewhere(key.Name, p.a.Name) {
			p.e.log.Debug("selector declared elsewhere, leaving placement to its owner",
				zap.String("asset", p.a.Name), zap.String("selector", key.Name),
				zap.Strings("owners", p.run.registry.SelectorOwners(key.Name)))
			continue
		}
		display := ov.Selector
		if display == "" {
			display = "." + key.Name
		}
		bySelector[display] = append(bySelector[display], key)
	}
	if len(bySelector) == 0 {
		return
	}
	if !p.targeted && strings.ToLower(p.a.Name) != p.e.opts.PrimarySelectorSink {
		p.e.log.Debug("asset is not a selector sink, skipping new selectors",
			zap.String("asset", p.a.Name), zap.Int("selectors", len(bySelector)),
			zap.String("sink", p.e.opts.PrimarySelectorSink))
		return
	}

	texts := make([]string, 0, len(bySelector))
	for text := range bySelector {
		texts = append(texts, text)
	}
	slices.Sort(texts)

	for _, text := range texts {
		keys := bySelector[text]
		slices.SortFunc(keys, func(a, b css.SelectorKey) int {
			return strings.Compare(a.Property, b.Property)
		})

		rule := &uss.Rule{Line: -1}
		for _, key := range keys {
			prop := &uss.Property{Name: key.Property, Line: -1}
			p.appendSelectorValue(prop, key.Property, p.overrides[key].Value)
			rule.Properties = append(rule.Properties, prop)
			p.varsPatched++
			p.run.touch(key, text, p.a.Name)
		}
		idx := p.a.AddRule(rule)
		p.a.Selectors = append(p.a.Selectors, uss.NewComplexSelector(text, idx))
		p.changed = true
		p.e.log.Info("created selector",
			zap.String("asset", p.a.Name), zap.String("selector", text),
			zap.Int("rule", idx), zap.Int("properties", len(keys)))
	}
}

// appendSlot adds one slot to the property and reports what it points at.
func (p *assetPass) appendSlot(prop *uss.Property, kind uss.ValueKind, idx int) (uss.ValueKind, int) {
	prop.Values = append(prop.Values, &uss.ValueSlot{Kind: kind, Index: idx})
	return kind, idx
}

// fallbackSlot stores an unclassifiable value verbatim in the string table.
func (p *assetPass) fallbackSlot(prop *uss.Property, name, value string) (uss.ValueKind, int) {
	p.e.log.Warn("override value kept as plain string",
		zap.String("asset", p.a.Name), zap.String("property", name), zap.String("value", value))
	return p.appendSlot(prop, uss.ValueKindEnum, p.a.AddString(value))
}

// appendVariableValue types a brand-new variable definition. Definitions
// store the actual value, the variable kind stays reserved for references.
// The property name's inferred kind wins over value shape, matching how the
// authoring tool types custom properties.
func (p *assetPass) appendVariableValue(prop *uss.Property, name, value string) (uss.ValueKind, int) {
	if ref, ok := css.ParseVariable(value); ok {
		return p.appendSlot(prop, uss.ValueKindVariable, p.a.AddString(ref))
	}
	if trimmed := strings.TrimSpace(value); strings.HasPrefix(trimmed, "--") {
		return p.appendSlot(prop, uss.ValueKindVariable, p.a.AddString(trimmed))
	}
	if uss.InferKind(name) == uss.ValueKindFloat {
		if f, ok := css.ParseFloat(value); ok {
			return p.appendSlot(prop, uss.ValueKindFloat, p.a.AddFloat(f.Value))
		}
		return p.fallbackSlot(prop, name, value)
	}
	if isColorProperty(name, value) {
		if hex, ok := css.NormalizeColor(value); ok {
			return p.appendSlot(prop, uss.ValueKindColor, p.a.AddColor(rgbaOf(hex)))
		}
		return p.fallbackSlot(prop, name, value)
	}
	switch uss.InferKind(name) {
	case uss.ValueKindKeyword, uss.ValueKindEnum:
		if kw, ok := css.ParseKeyword(value); ok {
			return p.appendSlot(prop, uss.ValueKindEnum, p.a.AddString(kw))
		}
		return p.fallbackSlot(prop, name, value)
	case uss.ValueKindResource:
		if res, ok := css.ParseResource(value); ok {
			return p.appendSlot(prop, uss.ValueKindResource, p.a.AddString(res.Canonical()))
		}
		return p.fallbackSlot(prop, name, value)
	}
	if f, ok := css.ParseFloat(value); ok {
		return p.appendSlot(prop, uss.ValueKindFloat, p.a.AddFloat(f.Value))
	}
	if kw, ok := css.ParseKeyword(value); ok {
		return p.appendSlot(prop, uss.ValueKindEnum, p.a.AddString(kw))
	}
	if res, ok := css.ParseResource(value); ok {
		return p.appendSlot(prop, uss.ValueKindResource, p.a.AddString(res.Canonical()))
	}
	return p.fallbackSlot(prop, name, value)
}

// appendSelectorValue types one property of a freshly created selector rule.
// Unlike variable definitions there is no name inference beyond the color
// heuristic, the value shape decides.
func (p *assetPass) appendSelectorValue(prop *uss.Property, name, value string) (uss.ValueKind, int) {
	if ref, ok := css.ParseVariable(value); ok {
		return p.appendSlot(prop, uss.ValueKindVariable, p.a.AddString(ref))
	}
	if trimmed := strings.TrimSpace(value); strings.HasPrefix(trimmed, "--") {
		return p.appendSlot(prop, uss.ValueKindVariable, p.a.AddString(trimmed))
	}
	if isColorProperty(name, value) {
		if hex, ok := css.NormalizeColor(value); ok {
			return p.appendSlot(prop, uss.ValueKindColor, p.a.AddColor(rgbaOf(hex)))
		}
		return p.fallbackSlot(prop, name, value)
	}
	if f, ok := css.ParseFloat(value); ok {
		return p.appendSlot(prop, uss.ValueKindFloat, p.a.AddFloat(f.Value))
	}
	if kw, ok := css.ParseKeyword(value); ok {
		return p.appendSlot(prop, uss.ValueKindEnum, p.a.AddString(kw))
	}
	if res, ok := css.ParseResource(value); ok {
		return p.appendSlot(prop, uss.ValueKindResource, p.a.AddString(res.Canonical()))
	}
	return p.fallbackSlot(prop, name, value)
}
