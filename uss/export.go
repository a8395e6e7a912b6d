package uss

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var dashRun = regexp.MustCompile(`^-[\w-]+$`)

func normalizeDashes(s string) string {
	if dashRun.MatchString(s) {
		return "--" + strings.TrimLeft(s, "-")
	}
	return s
}

func formatColor(c RGBA) string {
	r := int(math.Round(c.R * 255))
	g := int(math.Round(c.G * 255))
	b := int(math.Round(c.B * 255))
	if c.A < 1.0 {
		return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", r, g, b, c.A)
	}
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%dpx", int(v))
	}
	return fmt.Sprintf("%.2fpx", v)
}

// FormatValue renders one slot as USS value text. Returns false when the
// slot cannot be resolved against the tables.
func (a *StyleAsset) FormatValue(slot *ValueSlot) (string, bool) {
	switch slot.Kind {
	case ValueKindKeyword, ValueKindDimension, ValueKindString:
		return a.StringAt(slot.Index)
	case ValueKindFloat:
		v, ok := a.FloatAt(slot.Index)
		if !ok {
			return "", false
		}
		return formatFloat(v), true
	case ValueKindColor:
		c, ok := a.ColorAt(slot.Index)
		if !ok {
			return "", false
		}
		return formatColor(c), true
	case ValueKindResource:
		if s, ok := a.StringAt(slot.Index); ok &&
			(strings.HasPrefix(s, "resource://") || strings.HasPrefix(s, "project://")) {
			return fmt.Sprintf("url(%q)", s), true
		}
		return strconv.Itoa(slot.Index), true
	case ValueKindEnum:
		s, ok := a.StringAt(slot.Index)
		if !ok {
			return "", false
		}
		return normalizeDashes(s), true
	case ValueKindVariable:
		s, ok := a.StringAt(slot.Index)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("var(%s)", normalizeDashes(s)), true
	default:
		return "", false
	}
}

type renderedValue struct {
	kind ValueKind
	text string
}

// Rendering priority for single-value properties, best first.
var renderPriority = map[ValueKind]int{
	ValueKindVariable:  0,
	ValueKindDimension: 1,
	ValueKindEnum:      2,
	ValueKindColor:     3,
	ValueKindFloat:     4,
	ValueKindKeyword:   5,
	ValueKindResource:  6,
	ValueKindString:    7,
}

func pickValue(name string, values []renderedValue) string {
	if len(values) == 0 {
		return ""
	}
	if IsFloatShorthand(name) || name == "border-color" {
		n := len(values)
		if n > 4 {
			n = 4
		}
		texts := make([]string, 0, n)
		for _, v := range values[:n] {
			texts = append(texts, v.text)
		}
		return strings.Join(texts, " ")
	}
	if spec, ok := PropertySpecFor(name); ok && spec.Has(ValueKindColor) {
		for _, v := range values {
			if v.kind == ValueKindColor {
				return v.text
			}
		}
	}
	best := values[0]
	for _, v := range values[1:] {
		if renderPriority[v.kind] < renderPriority[best.kind] {
			best = v
		}
	}
	return best.text
}

func writeRule(w io.Writer, a *StyleAsset, selector string, rule *Rule) {
	fmt.Fprintf(w, "%s {\n", selector)
	for _, prop := range rule.Properties {
		var values []renderedValue
		for _, slot := range prop.Values {
			if text, ok := a.FormatValue(slot); ok {
				values = append(values, renderedValue{kind: slot.Kind, text: text})
			}
		}
		if picked := pickValue(prop.Name, values); picked != "" {
			fmt.Fprintf(w, "  %s: %s;\n", prop.Name, picked)
		}
	}
	fmt.Fprintf(w, "}\n")
}

// WriteUSS renders the asset as readable stylesheet text. Rules referenced
// by selectors render under their selector chain; rules no selector points
// at render under the synthesized rule-N name. Debugging aid only, the text
// form is not read back.
func WriteUSS(w io.Writer, a *StyleAsset) {
	covered := make(map[int]bool)
	for _, cs := range a.Selectors {
		if _, ok := a.RuleAt(cs.RuleIndex); !ok {
			continue
		}
		covered[cs.RuleIndex] = true
	}
	for _, cs := range a.Selectors {
		rule, ok := a.RuleAt(cs.RuleIndex)
		if !ok {
			continue
		}
		writeRule(w, a, cs.Text(), rule)
	}
	for i, rule := range a.Rules {
		if covered[i] {
			continue
		}
		writeRule(w, a, fmt.Sprintf("rule-%d", i), rule)
	}
}

type treeWriter struct {
	sb strings.Builder
}

func (tw *treeWriter) line(depth int, format string, args ...any) {
	for range depth {
		tw.sb.WriteString("  ")
	}
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

// DumpTree writes the structural view of the asset: tables, rules,
// properties and raw slots. Meant for debug reports where the USS rendering
// hides too much.
func DumpTree(w io.Writer, a *StyleAsset) {
	tw := &treeWriter{}
	tw.line(0, "asset %s", strconv.Quote(a.Name))
	tw.line(1, "tables: colors=%d strings=%d floats=%d", len(a.Colors), len(a.Strings), len(a.Floats))
	for i, rule := range a.Rules {
		sels := a.SelectorTextsFor(i)
		if len(sels) == 0 {
			tw.line(1, "rule %d (line %d)", i, rule.Line)
		} else {
			tw.line(1, "rule %d (line %d) %s", i, rule.Line, strings.Join(sels, ", "))
		}
		for _, prop := range rule.Properties {
			tw.line(2, "prop %s (line %d)", strconv.Quote(prop.Name), prop.Line)
			for j, slot := range prop.Values {
				if text, ok := a.FormatValue(slot); ok {
					tw.line(3, "slot %d: %s[%d] = %s", j, slot.Kind, slot.Index, text)
				} else {
					tw.line(3, "slot %d: %s[%d] unresolved", j, slot.Kind, slot.Index)
				}
			}
		}
	}
	for i, cs := range a.Selectors {
		tw.line(1, "selector %d: %s -> rule %d (specificity %d)", i, cs.Text(), cs.RuleIndex, cs.Specificity)
	}
	io.WriteString(w, tw.sb.String())
}
