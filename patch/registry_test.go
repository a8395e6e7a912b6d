package patch

import (
	"slices"
	"testing"

	"restyle/uss"
)

func TestRegistry_OwnershipAndCaseFolding(t *testing.T) {
	a := colorRuleAsset("PanelStyles", ".green", "color", black)
	b := linkedVarAsset("FigmaStyleVariables", "--accent", black)
	r := BuildRegistry([]*uss.StyleAsset{a, b})

	if got := r.SelectorOwners(".green"); !slices.Equal(got, []string{"PanelStyles"}) {
		t.Errorf("selector owners %v", got)
	}
	if got := r.SelectorOwners("green"); !slices.Equal(got, []string{"PanelStyles"}) {
		t.Errorf("canonical lookup failed: %v", got)
	}
	if got := r.VariableOwners("--accent"); !slices.Equal(got, []string{"FigmaStyleVariables"}) {
		t.Errorf("variable owners %v", got)
	}

	if !r.SelectorElsewhere(".green", "FigmaStyleVariables") {
		t.Errorf("selector owned by another asset should count as elsewhere")
	}
	if r.SelectorElsewhere(".green", "panelstyles") {
		t.Errorf("ownership check must fold case")
	}
	if r.SelectorElsewhere(".missing", "PanelStyles") {
		t.Errorf("an unowned selector is new, not elsewhere")
	}
	if !r.VariableElsewhere("--accent", "PanelStyles") {
		t.Errorf("variable owned by another asset should count as elsewhere")
	}
	if r.VariableElsewhere("--accent", "FIGMASTYLEVARIABLES") {
		t.Errorf("variable ownership must fold case")
	}
}

func TestRegistry_DuplicateDeclarationsListedOnce(t *testing.T) {
	a := colorRuleAsset("PanelStyles", ".green", "color", black)
	// second declaration of the same selector in the same asset
	ri := a.AddRule(&uss.Rule{Line: 9})
	a.Selectors = append(a.Selectors, uss.NewComplexSelector(".green", ri))

	r := BuildRegistry([]*uss.StyleAsset{a})
	if got := r.SelectorOwners(".green"); len(got) != 1 {
		t.Errorf("owner recorded per declaration, want once per asset: %v", got)
	}
	if r.SelectorCount() != 1 {
		t.Errorf("selector count %d", r.SelectorCount())
	}
}

func TestRegistry_Counts(t *testing.T) {
	a := colorRuleAsset("PanelA", ".green", "color", black)
	b := colorRuleAsset("PanelB", ".red", "color", black)
	c := linkedVarAsset("Vars", "--accent", black)
	r := BuildRegistry([]*uss.StyleAsset{a, b, c})

	if r.SelectorCount() != 3 {
		t.Errorf("selector count %d, want 3", r.SelectorCount())
	}
	if r.VariableCount() != 1 {
		t.Errorf("variable count %d, want 1", r.VariableCount())
	}
	if r.Len() != 4 {
		t.Errorf("total %d, want 4", r.Len())
	}
}
