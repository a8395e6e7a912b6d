package css_test

import (
	"math"
	"testing"

	"restyle/css"
)

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#fff", "#FFFFFF", true},
		{"#8f8a", "#88FF88AA", true},
		{"#ff8800", "#FF8800", true},
		{"#ff8800cc", "#FF8800CC", true},
		{" #abcdef ", "#ABCDEF", true},
		{"rgb(255, 136, 0)", "#FF8800", true},
		{"RGB(255,136,0)", "#FF8800", true},
		{"rgba(255, 136, 0, 1)", "#FF8800", true},
		{"rgba(255, 136, 0, 0.5)", "#FF880080", true},
		{"rgba(255, 136, 0, 50%)", "#FF880080", true},
		{"rgba(255, 136, 0, 128)", "#FF880080", true},
		{"rgb(100%, 50%, 0%)", "#FF8000", true},
		{"rgba(0.5, 0.5, 0.5, 1)", "#808080", true},
		{"rgb(300, -20, 12)", "#FF000C", true},
		{"rgba(0, 0, 0, junk)", "#000000", true},
		{"red", "", false},
		{"#ggg", "", false},
		{"#12345", "", false},
		{"rgb(1, 2)", "", false},
		{"rgb(a, b, c)", "", false},
		{"var(--accent)", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := css.NormalizeColor(c.in)
		if ok != c.ok {
			t.Errorf("NormalizeColor(%q): expected ok=%v, got %v", c.in, c.ok, ok)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeColor(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestHexToRGBA(t *testing.T) {
	cases := []struct {
		in         string
		r, g, b, a float64
	}{
		{"#FF8800", 1, 136.0 / 255, 0, 1},
		{"#8f8", 136.0 / 255, 1, 136.0 / 255, 1},
		{"#FF880080", 1, 136.0 / 255, 0, 128.0 / 255},
		{"#0000", 0, 0, 0, 0},
		{"#ff", 0, 0, 0, 1},
	}

	for _, c := range cases {
		r, g, b, a := css.HexToRGBA(c.in)
		for name, pair := range map[string][2]float64{
			"r": {r, c.r}, "g": {g, c.g}, "b": {b, c.b}, "a": {a, c.a},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-9 {
				t.Errorf("HexToRGBA(%q): component %s expected %v, got %v", c.in, name, pair[1], pair[0])
			}
		}
	}
}
