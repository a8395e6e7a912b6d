package patch

import (
	"slices"
	"testing"

	"go.uber.org/zap"

	"restyle/css"
	"restyle/skin"
	"restyle/uss"
)

func propByName(a *uss.StyleAsset, name string) *uss.Property {
	for _, rule := range a.Rules {
		for _, prop := range rule.Properties {
			if prop.Name == name {
				return prop
			}
		}
	}
	return nil
}

func TestPlaceVariables_PrimarySinkReceivesNewVariables(t *testing.T) {
	sink := linkedVarAsset("FigmaStyleVariables", "--primary-color", black)
	other := colorRuleAsset("PanelStyles", ".green", "color", black)
	src := overridesWith(css.Vars{"--brand-new-color": "#112233"}, nil)
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{sink, other})
	if !slices.Equal(rep.AssetsModified, []string{"FigmaStyleVariables"}) {
		t.Fatalf("only the sink should receive new variables, got %v", rep.AssetsModified)
	}

	prop := propByName(sink, "--brand-new-color")
	if prop == nil {
		t.Fatalf("variable not created in sink: %v", sink.VariableNames())
	}
	if len(prop.Values) != 1 || prop.Values[0].Kind != uss.ValueKindColor {
		t.Fatalf("expected one color slot, got %+v", prop.Values)
	}
	if got, _ := sink.ColorAt(prop.Values[0].Index); got != (uss.RGBA{R: 0x11 / 255.0, G: 0x22 / 255.0, B: 0x33 / 255.0, A: 1}) {
		t.Errorf("unexpected color entry %+v", got)
	}
	if propByName(other, "--brand-new-color") != nil {
		t.Errorf("non-sink asset received the variable")
	}
}

func TestPlaceVariables_AppendsToExistingVariablesRule(t *testing.T) {
	sink := linkedVarAsset("FigmaStyleVariables", "--primary-color", black)
	rules := len(sink.Rules)
	src := overridesWith(css.Vars{"--extra-color": "#445566"}, nil)
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	e.Patch("core", []*uss.StyleAsset{sink})
	if len(sink.Rules) != rules {
		t.Fatalf("variable should join the existing variables rule, rules %d -> %d", rules, len(sink.Rules))
	}
	if propByName(sink, "--extra-color") == nil {
		t.Fatalf("variable not created")
	}
}

func TestPlaceVariables_SyntheticRuleWhenNoneExists(t *testing.T) {
	sink := &uss.StyleAsset{Name: "FigmaStyleVariables"}
	src := overridesWith(css.Vars{"--only-color": "#FF0000"}, nil)
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{sink})
	if !rep.HasChanges() {
		t.Fatalf("expected the sink to change")
	}
	if len(sink.Rules) != 1 {
		t.Fatalf("expected one synthetic rule, got %d", len(sink.Rules))
	}
	if sink.Rules[0].Line != -1 {
		t.Errorf("synthetic rule should carry line -1, got %d", sink.Rules[0].Line)
	}

	// second run finds the definition and leaves everything alone
	sizes := tableSizes(sink)
	if rep := e.Patch("core", []*uss.StyleAsset{sink}); rep.HasChanges() {
		t.Fatalf("placement must be idempotent, got %+v", rep)
	}
	if got := tableSizes(sink); got != sizes {
		t.Errorf("tables grew on the second run: %v -> %v", sizes, got)
	}
}

func TestPlaceVariables_DeferredToDefiningAsset(t *testing.T) {
	owner := linkedVarAsset("ThemeColors", "--accent", black)
	sink := &uss.StyleAsset{Name: "FigmaStyleVariables"}
	src := overridesWith(css.Vars{"--accent": "#FF0000"}, nil)
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{owner, sink})
	if !slices.Equal(rep.AssetsModified, []string{"ThemeColors"}) {
		t.Fatalf("the defining asset should take the update, got %v", rep.AssetsModified)
	}
	if owner.Colors[0] != red {
		t.Errorf("owner not patched: %+v", owner.Colors[0])
	}
	if len(sink.Rules) != 0 {
		t.Errorf("sink must not duplicate a variable owned elsewhere")
	}
}

func TestPlaceVariables_ValueTyping(t *testing.T) {
	src := overridesWith(css.Vars{
		"--panel-radius":   "8px",
		"--accent-color":   "#FF0000",
		"--display-mode":   "flex",
		"--icon-image":     "url(\"icons/play.png\")",
		"--alias-color":    "var(--accent-color)",
		"--odd-dimensions": "10px 20px",
	}, nil)
	sink := &uss.StyleAsset{Name: "FigmaStyleVariables"}
	e := NewEngine(src, nil, Options{}, zap.NewNop())
	e.Patch("core", []*uss.StyleAsset{sink})

	cases := []struct {
		name string
		kind uss.ValueKind
	}{
		{"--panel-radius", uss.ValueKindFloat},
		{"--accent-color", uss.ValueKindColor},
		{"--display-mode", uss.ValueKindEnum},
		{"--icon-image", uss.ValueKindResource},
		{"--alias-color", uss.ValueKindVariable},
		{"--odd-dimensions", uss.ValueKindEnum},
	}
	for _, tc := range cases {
		prop := propByName(sink, tc.name)
		if prop == nil {
			t.Errorf("%s: not created", tc.name)
			continue
		}
		if len(prop.Values) != 1 {
			t.Errorf("%s: expected one slot, got %d", tc.name, len(prop.Values))
			continue
		}
		if got := prop.Values[0].Kind; got != tc.kind {
			t.Errorf("%s: kind %v, want %v", tc.name, got, tc.kind)
		}
	}

	if prop := propByName(sink, "--panel-radius"); prop != nil {
		if f, ok := sink.FloatAt(prop.Values[0].Index); !ok || f != 8 {
			t.Errorf("--panel-radius: float entry %v, want 8", f)
		}
	}
	if prop := propByName(sink, "--alias-color"); prop != nil {
		if s, ok := sink.StringAt(prop.Values[0].Index); !ok || s != "--accent-color" {
			t.Errorf("--alias-color: reference entry %q", s)
		}
	}
	if prop := propByName(sink, "--icon-image"); prop != nil {
		if s, ok := sink.StringAt(prop.Values[0].Index); !ok || s != "resource://icons/play.png" {
			t.Errorf("--icon-image: resource entry %q", s)
		}
	}
	if prop := propByName(sink, "--odd-dimensions"); prop != nil {
		if s, ok := sink.StringAt(prop.Values[0].Index); !ok || s != "10px 20px" {
			t.Errorf("--odd-dimensions: fallback entry %q", s)
		}
	}
}

func TestPlaceVariables_TargetedAssetBypassesSinkGate(t *testing.T) {
	a := &uss.StyleAsset{Name: "PanelStyles"}
	fo := &css.FileOverrides{
		Source: "panel.css",
		Vars:   css.Vars{"--panel-tint": "#ABCDEF"},
	}
	src := overridesWith(nil, nil)
	src.AssetMap["panelstyles"] = []*css.FileOverrides{fo}
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{a})
	if !rep.HasChanges() {
		t.Fatalf("targeted asset should accept new variables, got %+v", rep)
	}
	if propByName(a, "--panel-tint") == nil {
		t.Errorf("variable not created on the targeted asset")
	}
}

func TestPlaceSelectors_SinkGetsNewRule(t *testing.T) {
	sink := &uss.StyleAsset{Name: "FigmaGeneratedStyles"}
	other := colorRuleAsset("PanelStyles", ".green", "color", black)
	src := overridesWith(nil, selectorOverride(".badge", "background-color", "#FF00FF"))
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{sink, other})
	if !slices.Equal(rep.AssetsModified, []string{"FigmaGeneratedStyles"}) {
		t.Fatalf("only the selector sink should change, got %v", rep.AssetsModified)
	}
	if len(sink.Rules) != 1 || len(sink.Selectors) != 1 {
		t.Fatalf("expected one rule and one selector, got %d/%d", len(sink.Rules), len(sink.Selectors))
	}
	cs := sink.Selectors[0]
	if got := cs.Text(); got != ".badge" {
		t.Errorf("selector text %q", got)
	}
	if cs.Specificity != 10 {
		t.Errorf("class selector specificity %d, want 10", cs.Specificity)
	}
	prop := sink.Rules[0].Properties[0]
	if prop.Name != "background-color" || prop.Values[0].Kind != uss.ValueKindColor {
		t.Errorf("unexpected property %+v", prop)
	}

	// second run patches the now-existing selector in place
	sizes := tableSizes(sink)
	if rep := e.Patch("core", []*uss.StyleAsset{sink, other}); rep.HasChanges() {
		t.Fatalf("second run must be a no-op, got %+v", rep)
	}
	if got := tableSizes(sink); got != sizes {
		t.Errorf("tables grew on the second run: %v -> %v", sizes, got)
	}
}

func TestPlaceSelectors_ExistingSelectorNeverDuplicated(t *testing.T) {
	a := colorRuleAsset("FigmaGeneratedStyles", ".green", "color", black)
	src := overridesWith(nil, selectorOverride(".green", "color", "#00FF00"))
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	e.Patch("core", []*uss.StyleAsset{a})
	if len(a.Selectors) != 1 {
		t.Fatalf("existing selector duplicated: %d selectors", len(a.Selectors))
	}
}

func TestPlaceSelectors_DeferredToDeclaringAsset(t *testing.T) {
	owner := colorRuleAsset("PanelStyles", ".green", "color", black)
	sink := &uss.StyleAsset{Name: "FigmaGeneratedStyles"}
	src := overridesWith(nil, selectorOverride(".green", "color", "#00FF00"))
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{owner, sink})
	if !slices.Equal(rep.AssetsModified, []string{"PanelStyles"}) {
		t.Fatalf("declaring asset should take the override, got %v", rep.AssetsModified)
	}
	if len(sink.Rules) != 0 {
		t.Errorf("sink must not duplicate a selector declared elsewhere")
	}
}

func TestPlaceSelectors_CustomSinkName(t *testing.T) {
	sink := &uss.StyleAsset{Name: "MyStyles"}
	src := overridesWith(nil, selectorOverride(".badge", "color", "#FF00FF"))
	e := NewEngine(src, nil, Options{PrimarySelectorSink: "MyStyles"}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{sink})
	if !rep.HasChanges() {
		t.Fatalf("configured sink should accept the selector, got %+v", rep)
	}
}

func TestPlaceSelectors_VariableReferenceValue(t *testing.T) {
	sink := &uss.StyleAsset{Name: "FigmaGeneratedStyles"}
	src := overridesWith(nil, selectorOverride(".badge", "color", "var(--accent)"))
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	e.Patch("core", []*uss.StyleAsset{sink})
	prop := propByName(sink, "color")
	if prop == nil {
		t.Fatalf("property not created")
	}
	if prop.Values[0].Kind != uss.ValueKindVariable {
		t.Fatalf("expected variable reference slot, got %+v", prop.Values[0])
	}
	if s, _ := sink.StringAt(prop.Values[0].Index); s != "--accent" {
		t.Errorf("reference entry %q", s)
	}
}

func TestPlaceSelectors_GroupedPropertiesShareOneRule(t *testing.T) {
	sink := &uss.StyleAsset{Name: "FigmaGeneratedStyles"}
	sels := css.Selectors{
		css.Key(".badge", "color"):            {Selector: ".badge", Value: "#FF00FF"},
		css.Key(".badge", "background-color"): {Selector: ".badge", Value: "#00FF00"},
	}
	src := overridesWith(nil, sels)
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	e.Patch("core", []*uss.StyleAsset{sink})
	if len(sink.Rules) != 1 {
		t.Fatalf("expected a single rule for the selector, got %d", len(sink.Rules))
	}
	if got := len(sink.Rules[0].Properties); got != 2 {
		t.Fatalf("expected both properties on the rule, got %d", got)
	}
	// deterministic property order
	if sink.Rules[0].Properties[0].Name != "background-color" {
		t.Errorf("properties not sorted: %q first", sink.Rules[0].Properties[0].Name)
	}
}

func TestPlace_NonSinkWithoutTargetingStaysClean(t *testing.T) {
	a := &uss.StyleAsset{Name: "RandomPanel"}
	src := overridesWith(
		css.Vars{"--new-color": "#FF0000"},
		selectorOverride(".badge", "color", "#00FF00"),
	)
	e := NewEngine(src, nil, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{a})
	if rep.HasChanges() || len(a.Rules) != 0 {
		t.Errorf("untargeted non-sink asset must stay untouched, got %+v", rep)
	}
}

func TestPlace_HintsBlockSelectorCreation(t *testing.T) {
	sink := &uss.StyleAsset{Name: "FigmaGeneratedStyles"}
	src := overridesWith(nil, selectorOverride(".badge", "color", "#FF00FF"))
	hints := &skin.Hints{Selectors: map[string]struct{}{"other": {}}}
	e := NewEngine(src, hints, Options{}, zap.NewNop())

	rep := e.Patch("core", []*uss.StyleAsset{sink})
	if rep.HasChanges() {
		t.Errorf("hints should have blocked creation, got %+v", rep)
	}
}
