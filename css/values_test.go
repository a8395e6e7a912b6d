package css_test

import (
	"math"
	"testing"

	"restyle/css"
)

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in    string
		value float64
		unit  string
		ok    bool
	}{
		{"12px", 12, "px", true},
		{"-3.5", -3.5, "", true},
		{".5em", 0.5, "em", true},
		{"42%", 42, "%", true},
		{"+10pt", 10, "pt", true},
		{"1.25rem", 1.25, "rem", true},
		{"10VW", 10, "vw", true},
		{"3foo", 3, "foo", true},
		{"px", 0, "", false},
		{"12 px", 0, "", false},
		{"", 0, "", false},
	}

	for _, c := range cases {
		got, ok := css.ParseFloat(c.in)
		if ok != c.ok {
			t.Errorf("ParseFloat(%q): expected ok=%v, got %v", c.in, c.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if math.Abs(got.Value-c.value) > 1e-9 || got.Unit != c.unit {
			t.Errorf("ParseFloat(%q): expected %v%q, got %v%q", c.in, c.value, c.unit, got.Value, got.Unit)
		}
	}
}

func TestFloatValueUnitKnown(t *testing.T) {
	known, _ := css.ParseFloat("12px")
	if !known.UnitKnown() {
		t.Errorf("px should be a known unit")
	}
	unitless, _ := css.ParseFloat("7")
	if !unitless.UnitKnown() {
		t.Errorf("unitless value should count as known")
	}
	bogus, _ := css.ParseFloat("3foo")
	if bogus.UnitKnown() {
		t.Errorf("foo should not be a known unit")
	}
}

func TestParseKeyword(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Bold", "bold", true},
		{"NONE", "none", true},
		{"stretch-to-fill", "stretch-to-fill", true},
		{"flex-start", "flex-start", true},
		{"12px", "", false},
		{"--accent", "", false},
		{"url(x)", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := css.ParseKeyword(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseKeyword(%q): expected (%q, %v), got (%q, %v)", c.in, c.want, c.ok, got, ok)
		}
	}
}

func TestParseResource(t *testing.T) {
	cases := []struct {
		in   string
		path string
		typ  string
		ok   bool
	}{
		{`url("Images/bg.png")`, "Images/bg.png", "", true},
		{`url('a.png')`, "a.png", "", true},
		{`url( a.png )`, "a.png", "", true},
		{`URL(resource://Fonts/Inter.ttf)`, "resource://Fonts/Inter.ttf", "Fonts", true},
		{`url()`, "", "", false},
		{`a.png`, "", "", false},
	}

	for _, c := range cases {
		got, ok := css.ParseResource(c.in)
		if ok != c.ok {
			t.Errorf("ParseResource(%q): expected ok=%v, got %v", c.in, c.ok, ok)
			continue
		}
		if got.Path != c.path || got.Type != c.typ {
			t.Errorf("ParseResource(%q): expected (%q, %q), got (%q, %q)", c.in, c.path, c.typ, got.Path, got.Type)
		}
	}

	if got := (css.ResourceValue{Path: "a.png"}).Canonical(); got != "resource://a.png" {
		t.Errorf("expected scheme prefix to be added, got %q", got)
	}
	if got := (css.ResourceValue{Path: "resource://a.png"}).Canonical(); got != "resource://a.png" {
		t.Errorf("expected scheme path unchanged, got %q", got)
	}
}

func TestParseVariable(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"var(--accent)", "--accent", true},
		{"VAR( --x )", "--x", true},
		{"var(accent)", "", false},
		{"var(--a, red)", "", false},
		{"--accent", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := css.ParseVariable(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseVariable(%q): expected (%q, %v), got (%q, %v)", c.in, c.want, c.ok, got, ok)
		}
	}
}

func TestParseValueClassification(t *testing.T) {
	v, ok := css.ParseValue("var(--x)")
	if !ok || v.Type != css.ValueVariable || v.Variable != "--x" {
		t.Fatalf("var(--x) misclassified: %+v", v)
	}

	v, ok = css.ParseValue("12px")
	if !ok || v.Type != css.ValueFloat || v.Float.Value != 12 || v.Float.Unit != "px" {
		t.Fatalf("12px misclassified: %+v", v)
	}

	v, ok = css.ParseValue("url(bg.png)")
	if !ok || v.Type != css.ValueResource || v.Resource.Path != "bg.png" {
		t.Fatalf("url(bg.png) misclassified: %+v", v)
	}

	v, ok = css.ParseValue("auto")
	if !ok || v.Type != css.ValueKeyword || v.Keyword != "auto" {
		t.Fatalf("auto misclassified: %+v", v)
	}

	if _, ok = css.ParseValue("#fff"); ok {
		t.Fatalf("colors are not plain values")
	}
	if _, ok = css.ParseValue(""); ok {
		t.Fatalf("empty input should not parse")
	}
}
