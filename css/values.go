package css

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	floatPattern    = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+))([a-zA-Z%]*)$`)
	urlPattern      = regexp.MustCompile(`(?i)^url\s*\(\s*["']?([^"'()]+)["']?\s*\)$`)
	resourcePattern = regexp.MustCompile(`(?i)^resource://([^/]+)/(.+)$`)
	varPattern      = regexp.MustCompile(`(?i)^var\s*\(\s*(--[\w-]+)\s*\)$`)
	keywordPattern  = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

var validUnits = map[string]bool{
	"px": true, "em": true, "rem": true, "%": true, "pt": true, "vw": true, "vh": true,
}

var validKeywords = map[string]bool{
	"none": true, "flex": true, "inline": true, "block": true, "inline-block": true,
	"visible": true, "hidden": true,
	"left": true, "right": true, "center": true, "justify": true,
	"upper-left": true, "upper-center": true, "upper-right": true,
	"middle-left": true, "middle-center": true, "middle-right": true,
	"lower-left": true, "lower-center": true, "lower-right": true,
	"normal": true, "italic": true, "bold": true, "bold-and-italic": true,
	"scroll": true, "clip": true, "ellipsis": true,
	"relative": true, "absolute": true, "static": true,
	"nowrap": true, "pre": true, "pre-wrap": true, "pre-line": true,
	"stretch-to-fill": true, "scale-and-crop": true, "scale-to-fit": true,
	"true": true, "false": true, "auto": true, "initial": true, "inherit": true,
}

// FloatValue is a parsed numeric literal with its unit as written. Slot
// values store the bare number; the unit only matters for validation.
type FloatValue struct {
	Value float64
	Unit  string
}

// UnitKnown reports whether the unit is one the format understands. Callers
// warn on unknown units and then treat the value as unitless.
func (v FloatValue) UnitKnown() bool {
	return v.Unit == "" || validUnits[v.Unit]
}

// ResourceValue is a parsed url(...) reference.
type ResourceValue struct {
	Path string
	Type string // first path segment of a resource:// url, "" otherwise
}

// Canonical returns the path in the scheme form the asset format stores.
func (r ResourceValue) Canonical() string {
	if strings.HasPrefix(r.Path, "resource://") {
		return r.Path
	}
	return "resource://" + r.Path
}

// ParseFloat parses a numeric value with an optional unit suffix.
func ParseFloat(s string) (FloatValue, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FloatValue{}, false
	}
	m := floatPattern.FindStringSubmatch(s)
	if m == nil {
		return FloatValue{}, false
	}
	number, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return FloatValue{}, false
	}
	return FloatValue{Value: number, Unit: strings.ToLower(m[2])}, true
}

// ParseKeyword parses a keyword/enum value: either a known keyword or any
// lowercase dashed identifier.
func ParseKeyword(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if validKeywords[s] || keywordPattern.MatchString(s) {
		return s, true
	}
	return "", false
}

// ParseResource parses a url(...) reference in single, double or no quotes.
func ParseResource(s string) (ResourceValue, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ResourceValue{}, false
	}
	m := urlPattern.FindStringSubmatch(s)
	if m == nil {
		return ResourceValue{}, false
	}
	path := strings.TrimSpace(m[1])
	rv := ResourceValue{Path: path}
	if rm := resourcePattern.FindStringSubmatch(path); rm != nil {
		rv.Type = rm[1]
	}
	return rv, true
}

// ParseVariable parses a var(--name) reference and returns the "--" name.
func ParseVariable(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	m := varPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ValueType discriminates parsed override values.
type ValueType int

const (
	ValueNone ValueType = iota
	ValueFloat
	ValueKeyword
	ValueResource
	ValueVariable
)

// Value is one parsed override literal. Exactly the field selected by Type
// is meaningful.
type Value struct {
	Type     ValueType
	Raw      string
	Float    FloatValue
	Keyword  string
	Resource ResourceValue
	Variable string
}

// ParseValue classifies a literal, trying the variable, float, resource and
// keyword forms in that order. Colors are not handled here, normalize them
// with NormalizeColor first.
func ParseValue(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, false
	}
	if name, ok := ParseVariable(s); ok {
		return Value{Type: ValueVariable, Raw: s, Variable: name}, true
	}
	if f, ok := ParseFloat(s); ok {
		return Value{Type: ValueFloat, Raw: s, Float: f}, true
	}
	if r, ok := ParseResource(s); ok {
		return Value{Type: ValueResource, Raw: s, Resource: r}, true
	}
	if k, ok := ParseKeyword(s); ok {
		return Value{Type: ValueKeyword, Raw: s, Keyword: k}, true
	}
	return Value{}, false
}
