package patch

import (
	"strings"

	"restyle/css"
	"restyle/uss"
)

// Registry is the cross-asset ownership index built once per bundle before
// any patching: which assets declare a given selector and which define a
// given variable. It always reflects the pre-patch state, placement
// decisions must not depend on the order assets are patched in. Selector
// keys are canonical (no leading dot), variable keys are the literal "--"
// names. Owner lists keep the original asset name casing for reporting,
// membership checks fold case.
type Registry struct {
	selectors map[string][]string
	variables map[string][]string
}

// BuildRegistry indexes every selector and variable declaration across the
// given assets.
func BuildRegistry(assets []*uss.StyleAsset) *Registry {
	r := &Registry{
		selectors: make(map[string][]string),
		variables: make(map[string][]string),
	}
	for _, a := range assets {
		for _, cs := range a.Selectors {
			for _, s := range cs.Selectors {
				if len(s.Parts) == 0 {
					continue
				}
				key := css.CanonicalSelector(uss.BuildSelector(s.Parts))
				r.selectors[key] = addOwner(r.selectors[key], a.Name)
			}
		}
		for _, rule := range a.Rules {
			for _, prop := range rule.Properties {
				if !strings.HasPrefix(prop.Name, "--") {
					continue
				}
				r.variables[prop.Name] = addOwner(r.variables[prop.Name], a.Name)
			}
		}
	}
	return r
}

func addOwner(owners []string, name string) []string {
	for _, o := range owners {
		if strings.EqualFold(o, name) {
			return owners
		}
	}
	return append(owners, name)
}

func ownedBy(owners []string, asset string) bool {
	for _, o := range owners {
		if strings.EqualFold(o, asset) {
			return true
		}
	}
	return false
}

// SelectorOwners returns the assets declaring the selector, in scan order.
func (r *Registry) SelectorOwners(sel string) []string {
	return r.selectors[css.CanonicalSelector(sel)]
}

// VariableOwners returns the assets defining the variable, in scan order.
func (r *Registry) VariableOwners(name string) []string {
	return r.variables[name]
}

// SelectorElsewhere reports whether the selector is declared by some asset
// other than the named one. A selector nobody declares is not "elsewhere":
// it is new, and placement rules decide where it goes.
func (r *Registry) SelectorElsewhere(sel, asset string) bool {
	owners := r.SelectorOwners(sel)
	return len(owners) > 0 && !ownedBy(owners, asset)
}

// VariableElsewhere is SelectorElsewhere for variable definitions.
func (r *Registry) VariableElsewhere(name, asset string) bool {
	owners := r.variables[name]
	return len(owners) > 0 && !ownedBy(owners, asset)
}

// SelectorCount returns the number of distinct selectors indexed.
func (r *Registry) SelectorCount() int { return len(r.selectors) }

// VariableCount returns the number of distinct variables indexed.
func (r *Registry) VariableCount() int { return len(r.variables) }

// Len returns the total number of indexed keys.
func (r *Registry) Len() int { return len(r.selectors) + len(r.variables) }
