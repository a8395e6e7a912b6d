package uss

// RGBA is one color table entry, components in the 0..1 range. Equality is
// field-exact on purpose: a patch pass must recognize "already equal" and
// leave the entry alone.
type RGBA struct {
	R float64 `ion:"r"`
	G float64 `ion:"g"`
	B float64 `ion:"b"`
	A float64 `ion:"a"`
}

// ValueSlot references one entry of the table selected by Kind.
type ValueSlot struct {
	Kind  ValueKind `ion:"kind"`
	Index int       `ion:"index"`
}

// Property is a named list of value slots inside a rule. Line keeps the
// source position from the authoring tool, -1 for properties added later.
type Property struct {
	Name   string       `ion:"name"`
	Line   int          `ion:"line"`
	Values []*ValueSlot `ion:"values"`
}

// Rule groups properties sharing one declaration block.
type Rule struct {
	Line       int         `ion:"line"`
	Properties []*Property `ion:"properties"`
}

// SelectorPart is one simple selector component.
type SelectorPart struct {
	Kind   PartKind `ion:"kind"`
	Value  string   `ion:"value"`
	Line   int      `ion:"line"`
	Column int      `ion:"column"`
}

// StyleSelector is a run of parts, bound to the previous selector in the
// chain by Relationship (0 none, 1 descendant, 2 child).
type StyleSelector struct {
	Relationship int            `ion:"relationship"`
	Parts        []SelectorPart `ion:"parts"`
}

// ComplexSelector binds a selector chain to a rule by index.
type ComplexSelector struct {
	RuleIndex   int              `ion:"ruleIndex"`
	Specificity int              `ion:"specificity"`
	Selectors   []*StyleSelector `ion:"selectors"`
}

// StyleAsset is one named style resource. The three tables are append-only
// during patching: entries are overwritten in place or appended, never
// removed or reordered, so every slot index issued stays valid.
type StyleAsset struct {
	Name      string             `ion:"name"`
	Colors    []RGBA             `ion:"colors"`
	Strings   []string           `ion:"strings"`
	Floats    []float64          `ion:"floats"`
	Rules     []*Rule            `ion:"rules"`
	Selectors []*ComplexSelector `ion:"selectors"`
}

// AddColor appends a color table entry and returns its index.
func (a *StyleAsset) AddColor(c RGBA) int {
	a.Colors = append(a.Colors, c)
	return len(a.Colors) - 1
}

// AddString appends a string table entry and returns its index.
func (a *StyleAsset) AddString(s string) int {
	a.Strings = append(a.Strings, s)
	return len(a.Strings) - 1
}

// AddFloat appends a float table entry and returns its index.
func (a *StyleAsset) AddFloat(f float64) int {
	a.Floats = append(a.Floats, f)
	return len(a.Floats) - 1
}

// AddRule appends a rule and returns its index.
func (a *StyleAsset) AddRule(r *Rule) int {
	a.Rules = append(a.Rules, r)
	return len(a.Rules) - 1
}

// ColorAt returns the color table entry at i when it exists.
func (a *StyleAsset) ColorAt(i int) (RGBA, bool) {
	if i < 0 || i >= len(a.Colors) {
		return RGBA{}, false
	}
	return a.Colors[i], true
}

// StringAt returns the string table entry at i when it exists.
func (a *StyleAsset) StringAt(i int) (string, bool) {
	if i < 0 || i >= len(a.Strings) {
		return "", false
	}
	return a.Strings[i], true
}

// FloatAt returns the float table entry at i when it exists.
func (a *StyleAsset) FloatAt(i int) (float64, bool) {
	if i < 0 || i >= len(a.Floats) {
		return 0, false
	}
	return a.Floats[i], true
}

// RuleAt returns the rule at i when it exists.
func (a *StyleAsset) RuleAt(i int) (*Rule, bool) {
	if i < 0 || i >= len(a.Rules) {
		return nil, false
	}
	return a.Rules[i], true
}

// FindString returns the index of the first string table entry equal to s.
func (a *StyleAsset) FindString(s string) (int, bool) {
	for i, v := range a.Strings {
		if v == s {
			return i, true
		}
	}
	return 0, false
}

// VariableNames lists every "--" property name defined in the asset, in rule
// order, without duplicates.
func (a *StyleAsset) VariableNames() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, rule := range a.Rules {
		for _, prop := range rule.Properties {
			if len(prop.Name) < 2 || prop.Name[:2] != "--" {
				continue
			}
			if _, ok := seen[prop.Name]; ok {
				continue
			}
			seen[prop.Name] = struct{}{}
			names = append(names, prop.Name)
		}
	}
	return names
}
