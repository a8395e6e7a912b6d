package css

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	hexShortPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3,4})$`)
	hexFullPattern  = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbPattern      = regexp.MustCompile(`(?i)^rgba?\(([^)]+)\)$`)
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func expandShortHex(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) * 2)
	for _, c := range s {
		sb.WriteRune(c)
		sb.WriteRune(c)
	}
	return sb.String()
}

// parseRGBComponent converts one rgb() component to a 0..255 byte. Accepts
// percentages, integers in the 0..255 range and fractions written with a
// decimal point or leading zero (those scale by 255).
func parseRGBComponent(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if strings.HasSuffix(token, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(token, "%")), 64)
		if err != nil {
			return 0, false
		}
		percent = clamp(percent, 0, 100)
		return int(math.Round(percent / 100 * 255)), true
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	if v <= 1.0 && (strings.Contains(token, ".") || strings.HasPrefix(token, "0")) {
		v *= 255
	}
	return int(math.Round(clamp(v, 0, 255))), true
}

// parseAlphaComponent converts one alpha component to the 0..1 range.
// Unparsable input counts as fully opaque.
func parseAlphaComponent(token string) float64 {
	token = strings.TrimSpace(token)
	if strings.HasSuffix(token, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(token, "%")), 64)
		if err != nil {
			return 1.0
		}
		return clamp(percent, 0, 100) / 100
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 1.0
	}
	if v > 1.0 {
		v /= 255
	}
	return clamp(v, 0, 1)
}

// NormalizeColor converts hex shorthand, full hex and rgb()/rgba() syntax to
// canonical uppercase hex: #RRGGBB when fully opaque, #RRGGBBAA otherwise.
// Returns false for anything that does not read as a color.
func NormalizeColor(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}

	if m := hexShortPattern.FindStringSubmatch(value); m != nil {
		return "#" + strings.ToUpper(expandShortHex(m[1])), true
	}
	if m := hexFullPattern.FindStringSubmatch(value); m != nil {
		return "#" + strings.ToUpper(m[1]), true
	}
	m := rgbPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}

	components := strings.Split(m[1], ",")
	if len(components) != 3 && len(components) != 4 {
		return "", false
	}
	r, okR := parseRGBComponent(components[0])
	g, okG := parseRGBComponent(components[1])
	b, okB := parseRGBComponent(components[2])
	if !okR || !okG || !okB {
		return "", false
	}
	a := 1.0
	if len(components) == 4 {
		a = parseAlphaComponent(components[3])
	}
	alphaByte := int(math.Round(clamp(a, 0, 1) * 255))
	if alphaByte == 255 {
		return "#" + hexByte(r) + hexByte(g) + hexByte(b), true
	}
	return "#" + hexByte(r) + hexByte(g) + hexByte(b) + hexByte(alphaByte), true
}

const hexDigits = "0123456789ABCDEF"

func hexByte(v int) string {
	return string([]byte{hexDigits[v>>4&0xF], hexDigits[v&0xF]})
}

// HexToRGBA converts hex color text (#RGB, #RGBA, #RRGGBB, #RRGGBBAA) to
// 0..1 components. Alpha defaults to fully opaque.
func HexToRGBA(hex string) (r, g, b, a float64) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 || len(s) == 4 {
		s = expandShortHex(s)
	}
	if len(s) < 6 {
		return 0, 0, 0, 1
	}
	parse := func(part string) float64 {
		v, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return 0
		}
		return float64(v) / 255
	}
	r = parse(s[0:2])
	g = parse(s[2:4])
	b = parse(s[4:6])
	a = 1.0
	if len(s) == 8 {
		a = parse(s[6:8])
	}
	return r, g, b, a
}
