package uss

import "strings"

// BuildSelector renders selector parts as display text. An empty part list
// renders the universal selector.
func BuildSelector(parts []SelectorPart) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Kind.Marker())
		sb.WriteString(p.Value)
	}
	if sb.Len() == 0 {
		return "*"
	}
	return sb.String()
}

// ParseSelector converts display selector text into a single part plus its
// specificity weight (id 100, class and pseudo-class 10, element 1,
// universal 0). Parts created here carry no source position.
func ParseSelector(text string) (SelectorPart, int) {
	part := SelectorPart{Line: -1, Column: 0}
	switch {
	case strings.HasPrefix(text, "#"):
		part.Kind = PartKindId
		part.Value = text[1:]
		return part, 100
	case strings.HasPrefix(text, "."):
		part.Kind = PartKindClass
		part.Value = text[1:]
		return part, 10
	case strings.HasPrefix(text, ":"):
		part.Kind = PartKindPseudoClass
		part.Value = text[1:]
		return part, 10
	case text == "*":
		part.Kind = PartKindElement
		part.Value = text
		return part, 0
	default:
		part.Kind = PartKindElement
		part.Value = text
		return part, 1
	}
}

// NewComplexSelector builds a single-part selector chain bound to a rule.
func NewComplexSelector(text string, ruleIndex int) *ComplexSelector {
	part, specificity := ParseSelector(text)
	return &ComplexSelector{
		RuleIndex:   ruleIndex,
		Specificity: specificity,
		Selectors: []*StyleSelector{
			{Parts: []SelectorPart{part}},
		},
	}
}

// Text renders the full selector chain, simple selectors separated by a
// space. Used for display only.
func (cs *ComplexSelector) Text() string {
	texts := make([]string, 0, len(cs.Selectors))
	for _, s := range cs.Selectors {
		if len(s.Parts) == 0 {
			continue
		}
		texts = append(texts, BuildSelector(s.Parts))
	}
	if len(texts) == 0 {
		return "*"
	}
	return strings.Join(texts, " ")
}

// SelectorTextsFor returns the display text of every simple selector chain
// attached to the rule at ruleIdx, in declaration order.
func (a *StyleAsset) SelectorTextsFor(ruleIdx int) []string {
	var texts []string
	for _, cs := range a.Selectors {
		if cs.RuleIndex != ruleIdx {
			continue
		}
		for _, s := range cs.Selectors {
			if len(s.Parts) == 0 {
				continue
			}
			texts = append(texts, BuildSelector(s.Parts))
		}
	}
	return texts
}
