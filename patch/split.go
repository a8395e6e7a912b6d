package patch

import (
	"strings"

	"go.uber.org/zap"

	"restyle/uss"
)

// splitRule isolates one selector from a rule it shares with differently
// named selectors: a deep copy of the rule is appended and every selector
// spelling the target text is moved to the copy. Returns the rule index the
// override should patch, ruleIdx itself when no split was needed. Appending
// instead of inserting keeps every other selector's RuleIndex valid.
func (e *Engine) splitRule(a *uss.StyleAsset, ruleIdx int, selector string) int {
	if len(a.Selectors) == 0 || ruleIdx < 0 || ruleIdx >= len(a.Rules) {
		return ruleIdx
	}

	stripped := strings.TrimPrefix(selector, ".")
	var moved []*uss.ComplexSelector
	others := 0
	for _, cs := range a.Selectors {
		if cs.RuleIndex != ruleIdx {
			continue
		}
		matches := false
		for _, s := range cs.Selectors {
			text := uss.BuildSelector(s.Parts)
			if text == selector || strings.TrimPrefix(text, ".") == stripped {
				matches = true
				break
			}
		}
		if matches {
			moved = append(moved, cs)
		} else {
			others++
		}
	}
	// Nothing to isolate when the target is absent or owns the rule alone.
	if len(moved) == 0 || others == 0 {
		return ruleIdx
	}

	rule, _ := a.RuleAt(ruleIdx)
	newIdx := a.AddRule(rule.Clone())
	for _, cs := range moved {
		cs.RuleIndex = newIdx
	}
	e.log.Info("split shared rule",
		zap.String("asset", a.Name), zap.String("selector", selector),
		zap.Int("rule", ruleIdx), zap.Int("split", newIdx))
	return newIdx
}
