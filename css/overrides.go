package css

import "strings"

// CanonicalSelector strips the leading class marker so ".green" and "green"
// address the same selector. Every override lookup goes through this form;
// the display spelling travels next to the value for reporting and for rule
// creation.
func CanonicalSelector(sel string) string {
	return strings.TrimPrefix(strings.TrimSpace(sel), ".")
}

// NormalizeVarName collapses any run of leading dashes to the "--" prefix.
func NormalizeVarName(name string) string {
	return "--" + strings.TrimLeft(name, "-")
}

// Vars maps "--" variable names to override value text. Color values are
// stored in canonical hex, anything else as written.
type Vars map[string]string

// SelectorKey addresses one selector/property override. Name holds the
// canonical selector form.
type SelectorKey struct {
	Name     string
	Property string
}

// Key builds a SelectorKey from display selector text.
func Key(selector, property string) SelectorKey {
	return SelectorKey{Name: CanonicalSelector(selector), Property: property}
}

// SelectorOverride keeps the display spelling of the selector next to the
// override value.
type SelectorOverride struct {
	Selector string
	Value    string
}

// Selectors maps selector/property keys to overrides.
type Selectors map[SelectorKey]SelectorOverride

// FileOverrides is everything one override file contributes.
type FileOverrides struct {
	Source    string
	Vars      Vars
	Selectors Selectors
}

// Empty reports whether the file contributed nothing.
func (fo *FileOverrides) Empty() bool {
	return len(fo.Vars) == 0 && len(fo.Selectors) == 0
}

// MergeInto folds the file's entries into the given maps, the caller's later
// files winning on collision.
func (fo *FileOverrides) MergeInto(vars Vars, selectors Selectors) {
	for name, value := range fo.Vars {
		vars[name] = value
	}
	for key, ov := range fo.Selectors {
		selectors[key] = ov
	}
}
