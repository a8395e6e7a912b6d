package uss

import (
	"strings"
	"testing"
)

func exportAsset() *StyleAsset {
	return &StyleAsset{
		Name:    "panel",
		Strings: []string{"auto", "resource://Fonts/Inter.ttf", "--accent", "flex-start", "plain.png"},
		Floats:  []float64{12, 7.5},
		Colors:  []RGBA{{R: 1, G: 136.0 / 255, B: 0, A: 1}, {R: 1, A: 0.5}},
	}
}

func TestFormatValue(t *testing.T) {
	a := exportAsset()
	cases := []struct {
		slot ValueSlot
		want string
		ok   bool
	}{
		{ValueSlot{Kind: ValueKindKeyword, Index: 0}, "auto", true},
		{ValueSlot{Kind: ValueKindFloat, Index: 0}, "12px", true},
		{ValueSlot{Kind: ValueKindFloat, Index: 1}, "7.50px", true},
		{ValueSlot{Kind: ValueKindColor, Index: 0}, "#FF8800", true},
		{ValueSlot{Kind: ValueKindColor, Index: 1}, "rgba(255, 0, 0, 0.50)", true},
		{ValueSlot{Kind: ValueKindResource, Index: 1}, `url("resource://Fonts/Inter.ttf")`, true},
		{ValueSlot{Kind: ValueKindResource, Index: 4}, "4", true},
		{ValueSlot{Kind: ValueKindEnum, Index: 3}, "flex-start", true},
		{ValueSlot{Kind: ValueKindVariable, Index: 2}, "var(--accent)", true},
		{ValueSlot{Kind: ValueKindMissing, Index: 0}, "", false},
		{ValueSlot{Kind: ValueKindColor, Index: 9}, "", false},
		{ValueSlot{Kind: ValueKindKeyword, Index: 99}, "", false},
	}

	for _, c := range cases {
		got, ok := a.FormatValue(&c.slot)
		if ok != c.ok {
			t.Errorf("FormatValue(%s[%d]): expected ok=%v, got %v", c.slot.Kind, c.slot.Index, c.ok, ok)
			continue
		}
		if got != c.want {
			t.Errorf("FormatValue(%s[%d]): expected %q, got %q", c.slot.Kind, c.slot.Index, c.want, got)
		}
	}
}

func TestWriteUSS(t *testing.T) {
	a := exportAsset()
	a.Rules = []*Rule{
		{Properties: []*Property{
			{Name: "color", Values: []*ValueSlot{
				{Kind: ValueKindVariable, Index: 2},
				{Kind: ValueKindColor, Index: 0},
			}},
			{Name: "--custom", Values: []*ValueSlot{
				{Kind: ValueKindFloat, Index: 0},
				{Kind: ValueKindVariable, Index: 2},
			}},
		}},
		{Properties: []*Property{
			{Name: "border-radius", Values: []*ValueSlot{
				{Kind: ValueKindFloat, Index: 0},
				{Kind: ValueKindFloat, Index: 0},
				{Kind: ValueKindFloat, Index: 1},
				{Kind: ValueKindFloat, Index: 0},
			}},
		}},
	}
	a.Selectors = []*ComplexSelector{NewComplexSelector(".green", 0)}

	var sb strings.Builder
	WriteUSS(&sb, a)
	out := sb.String()

	if !strings.Contains(out, ".green {\n") {
		t.Errorf("expected selector header, got:\n%s", out)
	}
	if !strings.Contains(out, "  color: #FF8800;\n") {
		t.Errorf("color property should render its concrete color, got:\n%s", out)
	}
	if !strings.Contains(out, "  --custom: var(--accent);\n") {
		t.Errorf("variable reference should win over float, got:\n%s", out)
	}
	if !strings.Contains(out, "rule-1 {\n") {
		t.Errorf("uncovered rule should render under a synthesized name, got:\n%s", out)
	}
	if !strings.Contains(out, "  border-radius: 12px 12px 7.50px 12px;\n") {
		t.Errorf("shorthand should join all slots, got:\n%s", out)
	}
}

func TestDumpTree(t *testing.T) {
	a := exportAsset()
	a.Rules = []*Rule{
		{Line: 3, Properties: []*Property{
			{Name: "color", Line: 4, Values: []*ValueSlot{{Kind: ValueKindColor, Index: 0}}},
		}},
	}
	a.Selectors = []*ComplexSelector{NewComplexSelector(".green", 0)}

	var sb strings.Builder
	DumpTree(&sb, a)
	out := sb.String()

	for _, want := range []string{
		`asset "panel"`,
		"tables: colors=2 strings=5 floats=2",
		"rule 0 (line 3) .green",
		`prop "color" (line 4)`,
		"slot 0: color[0] = #FF8800",
		"selector 0: .green -> rule 0 (specificity 10)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in dump:\n%s", want, out)
		}
	}
}
