package uss

import "strings"

// PropertySpec lists the slot kinds a stock property accepts and the kind
// used when a fresh table entry has to be created for it.
type PropertySpec struct {
	Kinds   []ValueKind
	Default ValueKind
}

// Has reports whether the property accepts slots of kind k.
func (s PropertySpec) Has(k ValueKind) bool {
	for _, have := range s.Kinds {
		if have == k {
			return true
		}
	}
	return false
}

var (
	floatOnly    = PropertySpec{Kinds: []ValueKind{ValueKindFloat}, Default: ValueKindFloat}
	floatOrWord  = PropertySpec{Kinds: []ValueKind{ValueKindFloat, ValueKindKeyword, ValueKindEnum}, Default: ValueKindFloat}
	colorOnly    = PropertySpec{Kinds: []ValueKind{ValueKindColor}, Default: ValueKindColor}
	wordOnly     = PropertySpec{Kinds: []ValueKind{ValueKindKeyword, ValueKindEnum}, Default: ValueKindKeyword}
	resourceOnly = PropertySpec{Kinds: []ValueKind{ValueKindResource}, Default: ValueKindResource}
	enumOnly     = PropertySpec{Kinds: []ValueKind{ValueKindEnum}, Default: ValueKindEnum}
)

// Stock property catalog. Follows the USS property reference; properties not
// listed here fall back to name inference.
var propertySpecs = map[string]PropertySpec{
	"font-size":              floatOnly,
	"-unity-font":            resourceOnly,
	"-unity-font-definition": resourceOnly,
	"-unity-font-style":      wordOnly,
	"font-weight":            floatOrWord,

	"color":                     colorOnly,
	"-unity-text-align":         wordOnly,
	"-unity-text-outline-width": floatOnly,
	"-unity-text-outline-color": colorOnly,
	"white-space":               wordOnly,

	"width":      floatOrWord,
	"height":     floatOrWord,
	"min-width":  floatOrWord,
	"min-height": floatOrWord,
	"max-width":  floatOrWord,
	"max-height": floatOrWord,

	"padding":        floatOnly,
	"padding-top":    floatOnly,
	"padding-right":  floatOnly,
	"padding-bottom": floatOnly,
	"padding-left":   floatOnly,

	"margin":        floatOrWord,
	"margin-top":    floatOrWord,
	"margin-right":  floatOrWord,
	"margin-bottom": floatOrWord,
	"margin-left":   floatOrWord,

	"border-width":               floatOnly,
	"border-top-width":           floatOnly,
	"border-right-width":         floatOnly,
	"border-bottom-width":        floatOnly,
	"border-left-width":          floatOnly,
	"border-radius":              floatOnly,
	"border-top-left-radius":     floatOnly,
	"border-top-right-radius":    floatOnly,
	"border-bottom-left-radius":  floatOnly,
	"border-bottom-right-radius": floatOnly,
	"border-color":               colorOnly,
	"border-top-color":           colorOnly,
	"border-right-color":         colorOnly,
	"border-bottom-color":        colorOnly,
	"border-left-color":          colorOnly,

	"background-color":                   colorOnly,
	"background-image":                   resourceOnly,
	"-unity-background-image-tint-color": colorOnly,
	"-unity-background-scale-mode":       wordOnly,

	"opacity":    floatOnly,
	"visibility": wordOnly,
	"display":    wordOnly,
	"overflow":   wordOnly,

	"position":        wordOnly,
	"left":            floatOrWord,
	"top":             floatOrWord,
	"right":           floatOrWord,
	"bottom":          floatOrWord,
	"flex-direction":  wordOnly,
	"flex-wrap":       wordOnly,
	"flex-grow":       floatOnly,
	"flex-shrink":     floatOnly,
	"flex-basis":      floatOrWord,
	"align-items":     wordOnly,
	"align-self":      wordOnly,
	"justify-content": wordOnly,

	"rotate":           floatOnly,
	"scale":            floatOnly,
	"translate":        floatOnly,
	"transform-origin": floatOnly,

	"transition-property":        enumOnly,
	"transition-duration":        floatOnly,
	"transition-timing-function": wordOnly,
	"transition-delay":           floatOnly,

	"cursor": {Kinds: []ValueKind{ValueKindKeyword, ValueKindEnum, ValueKindResource}, Default: ValueKindKeyword},

	"text-overflow": wordOnly,

	"-unity-slice-left":   floatOnly,
	"-unity-slice-top":    floatOnly,
	"-unity-slice-right":  floatOnly,
	"-unity-slice-bottom": floatOnly,

	"-unity-paragraph-spacing":      floatOnly,
	"-unity-text-overflow-position": wordOnly,
}

// PropertySpecFor looks up the stock catalog.
func PropertySpecFor(name string) (PropertySpec, bool) {
	s, ok := propertySpecs[name]
	return s, ok
}

// IsFloatShorthand reports whether the property expands a single float into
// every slot it holds (the four-sided shorthands).
func IsFloatShorthand(name string) bool {
	switch name {
	case "border-radius", "padding", "margin", "border-width":
		return true
	default:
		return false
	}
}

var (
	floatHints   = []string{"padding", "margin", "spacing", "gap", "offset", "radius", "width", "height", "size", "thickness", "weight"}
	colorHints   = []string{"color", "colour", "background", "foreground", "tint"}
	notColor     = []string{"width", "radius", "thickness"}
	keywordHints = []string{"direction", "align", "justify", "display", "position"}
)

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

// InferKind guesses the slot kind for a property (or variable) name absent
// from the catalog. Naming conventions carry the intent: dimensional words
// mean float, color words mean color unless a dimensional word vetoes it,
// font means resource, layout words mean keyword. Returns ValueKindMissing
// when nothing matches.
func InferKind(name string) ValueKind {
	n := strings.ToLower(name)
	if containsAny(n, floatHints) {
		return ValueKindFloat
	}
	if containsAny(n, colorHints) && !containsAny(n, notColor) {
		return ValueKindColor
	}
	if strings.Contains(n, "font") && !strings.Contains(n, "size") {
		return ValueKindResource
	}
	if containsAny(n, keywordHints) {
		return ValueKindKeyword
	}
	return ValueKindMissing
}
