// Package uss models the serialized stylesheet asset: three parallel typed
// value tables (colors, strings, floats) plus rule, property and selector
// records referencing table entries by kind-tagged index. Tables are
// positional and shared by reference, so nothing here ever removes or
// reorders an entry.
package uss

// ValueKind selects the table a slot index refers to. Numeric values follow
// the serialized format; 5 and 6 are reserved there and never written.
// ENUM(missing, keyword, float, dimension, color, resource=7, enum, string, variable)
type ValueKind int

// UsesStrings reports whether slots of this kind index the string table.
func (k ValueKind) UsesStrings() bool {
	switch k {
	case ValueKindKeyword, ValueKindDimension, ValueKindResource, ValueKindEnum, ValueKindString, ValueKindVariable:
		return true
	default:
		return false
	}
}

// PartKind tags one selector part. Numeric values follow the serialized format.
// ENUM(unknown, element, id, class, pseudoClass, pseudoElement)
type PartKind int

// Marker returns the text prefix rendered before a part value of this kind.
func (p PartKind) Marker() string {
	switch p {
	case PartKindId:
		return "#"
	case PartKindClass:
		return "."
	case PartKindPseudoClass, PartKindPseudoElement:
		return ":"
	default:
		return ""
	}
}
