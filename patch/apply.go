package patch

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"restyle/css"
	"restyle/uss"
)

// floatTolerance is the equality window for float table entries. Values
// closer than this are considered already patched.
const floatTolerance = 1e-6

// assetPass is the working state for patching a single asset.
type assetPass struct {
	e   *Engine
	run *bundleRun
	a   *uss.StyleAsset

	vars      css.Vars
	overrides css.Selectors
	targeted  bool

	matchedVars   map[string]struct{}
	matchedKeys   map[css.SelectorKey]struct{}
	patchedColors map[int]struct{}

	varsPatched   int
	directPatched int
	changed       bool
}

// applyAsset runs every matching stage against one asset, in the fixed
// order: direct property matches, reference-to-literal conversions, linked
// variable colors, optional direct literal sweep, selector override
// application (with rule splitting), then new variable and selector
// placement.
func (e *Engine) applyAsset(run *bundleRun, a *uss.StyleAsset, vars css.Vars, overrides css.Selectors, targeted bool) (int, int, bool) {
	p := &assetPass{
		e:             e,
		run:           run,
		a:             a,
		vars:          vars,
		overrides:     overrides,
		targeted:      targeted,
		matchedVars:   make(map[string]struct{}),
		matchedKeys:   make(map[css.SelectorKey]struct{}),
		patchedColors: make(map[int]struct{}),
	}

	p.directMatches()
	p.convertRootLiterals()
	p.patchLinkedColors()
	if e.opts.PatchDirect {
		p.patchDirectLiterals()
	}
	p.splitSharedRules()
	p.applySelectorOverrides()
	p.placeNewVariables()
	p.placeNewSelectors()

	return p.varsPatched, p.directPatched, p.changed
}

// matchVar looks a property name up in the override variables, tolerating
// leading-dash differences between the stored name and the override key.
func (p *assetPass) matchVar(propName string) (key, value string, ok bool) {
	stripped := strings.TrimLeft(propName, "-")
	for _, cand := range [3]string{propName, stripped, "--" + stripped} {
		if v, present := p.vars[cand]; present {
			return cand, v, true
		}
	}
	return "", "", false
}

// isColorProperty decides whether an override value should be treated as a
// color for the given property. Variable references are never colors, a
// parseable color literal always is, and otherwise the property name decides.
func isColorProperty(name, value string) bool {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "--") || strings.HasPrefix(strings.ToLower(v), "var(") {
		return false
	}
	if _, ok := css.NormalizeColor(v); ok {
		return true
	}
	return uss.InferKind(name) == uss.ValueKindColor
}

func rgbaOf(hex string) uss.RGBA {
	r, g, b, a := css.HexToRGBA(hex)
	return uss.RGBA{R: r, G: g, B: b, A: a}
}

// firstSlot returns the first slot whose kind is one of kinds, in slot order.
func firstSlot(values []*uss.ValueSlot, kinds ...uss.ValueKind) *uss.ValueSlot {
	for _, v := range values {
		if slices.Contains(kinds, v.Kind) {
			return v
		}
	}
	return nil
}

func hasSlotKind(values []*uss.ValueSlot, kinds ...uss.ValueKind) bool {
	return firstSlot(values, kinds...) != nil
}

// directMatches patches properties whose own name matches an override
// variable. Color-capable matches update every color slot in place;
// everything else dispatches to the typed sub-patchers.
func (p *assetPass) directMatches() {
	for _, rule := range p.a.Rules {
		for _, prop := range rule.Properties {
			key, value, ok := p.matchVar(prop.Name)
			if !ok {
				continue
			}
			p.matchedVars[key] = struct{}{}
			if isColorProperty(prop.Name, value) {
				p.patchPropertyColors(prop, key, value)
				continue
			}
			if p.patchTyped(prop, value, true) {
				p.varsPatched++
				p.changed = true
			}
		}
	}
}

func (p *assetPass) patchPropertyColors(prop *uss.Property, key, value string) {
	hex, ok := css.NormalizeColor(value)
	if !ok {
		p.e.log.Warn("override value is not a color",
			zap.String("asset", p.a.Name), zap.String("variable", key), zap.String("value", value))
		return
	}
	want := rgbaOf(hex)
	for _, v := range prop.Values {
		if v.Kind != uss.ValueKindColor {
			continue
		}
		cur, ok := p.a.ColorAt(v.Index)
		if !ok || cur == want {
			continue
		}
		p.a.Colors[v.Index] = want
		p.varsPatched++
		p.patchedColors[v.Index] = struct{}{}
		p.changed = true
		p.e.log.Info("patched direct property color",
			zap.String("asset", p.a.Name), zap.String("variable", key),
			zap.Int("index", v.Index), zap.String("color", hex))
	}
}

// patchTyped routes a non-color override to the float, resource or keyword
// sub-patcher based on the property catalog. Unknown custom properties fall
// back to name inference when allowInference is set.
func (p *assetPass) patchTyped(prop *uss.Property, value string, allowInference bool) bool {
	spec, ok := uss.PropertySpecFor(prop.Name)
	if !ok {
		if !allowInference || !strings.HasPrefix(prop.Name, "--") {
			return false
		}
		switch uss.InferKind(prop.Name) {
		case uss.ValueKindFloat:
			return p.e.patchFloatProperty(p.a, prop, value)
		case uss.ValueKindKeyword, uss.ValueKindEnum:
			return p.e.patchKeywordProperty(p.a, prop, value)
		case uss.ValueKindResource:
			return p.e.patchResourceProperty(p.a, prop, value)
		}
		return false
	}
	switch {
	case spec.Has(uss.ValueKindFloat):
		return p.e.patchFloatProperty(p.a, prop, value)
	case spec.Has(uss.ValueKindResource):
		return p.e.patchResourceProperty(p.a, prop, value)
	case spec.Has(uss.ValueKindKeyword) || spec.Has(uss.ValueKindEnum):
		return p.e.patchKeywordProperty(p.a, prop, value)
	}
	return false
}

// convertRootLiterals handles matched properties that only hold indirect
// slots: a literal of the right kind is appended to its table and one
// reference slot is retagged to point at it. Properties that already carry
// a literal of that kind are left for the other stages.
func (p *assetPass) convertRootLiterals() {
	for _, rule := range p.a.Rules {
		for _, prop := range rule.Properties {
			key, value, ok := p.matchVar(prop.Name)
			if !ok {
				continue
			}
			p.matchedVars[key] = struct{}{}
			if len(prop.Values) == 0 {
				continue
			}
			if isColorProperty(prop.Name, value) {
				p.convertColorLiteral(prop, key, value)
				continue
			}
			p.convertTypedLiteral(prop, key, value)
		}
	}
}

func (p *assetPass) convertColorLiteral(prop *uss.Property, key, value string) {
	if hasSlotKind(prop.Values, uss.ValueKindColor) {
		return
	}
	hex, ok := css.NormalizeColor(value)
	if !ok {
		p.e.log.Warn("override value is not a color",
			zap.String("asset", p.a.Name), zap.String("variable", key), zap.String("value", value))
		return
	}
	idx := p.a.AddColor(rgbaOf(hex))
	handle := firstSlot(prop.Values, uss.ValueKindDimension, uss.ValueKindEnum, uss.ValueKindVariable)
	if handle == nil {
		handle = prop.Values[0]
	}
	handle.Kind = uss.ValueKindColor
	handle.Index = idx
	p.varsPatched++
	p.patchedColors[idx] = struct{}{}
	p.changed = true
	p.e.log.Info("converted variable to literal color",
		zap.String("asset", p.a.Name), zap.String("variable", key),
		zap.Int("index", idx), zap.String("color", hex))
}

func (p *assetPass) convertTypedLiteral(prop *uss.Property, key, value string) {
	spec, ok := uss.PropertySpecFor(prop.Name)
	if !ok {
		return
	}
	switch {
	case spec.Has(uss.ValueKindFloat):
		if hasSlotKind(prop.Values, uss.ValueKindFloat) {
			return
		}
		f, ok := css.ParseFloat(value)
		if !ok {
			return
		}
		idx := p.a.AddFloat(f.Value)
		handle := firstSlot(prop.Values, uss.ValueKindFloat, uss.ValueKindDimension, uss.ValueKindEnum, uss.ValueKindVariable)
		if handle == nil {
			handle = prop.Values[0]
		}
		handle.Kind = uss.ValueKindFloat
		handle.Index = idx
		p.varsPatched++
		p.changed = true
		p.e.log.Info("converted variable to literal float",
			zap.String("asset", p.a.Name), zap.String("variable", key), zap.Int("index", idx))
	case spec.Has(uss.ValueKindKeyword) || spec.Has(uss.ValueKindEnum):
		if hasSlotKind(prop.Values, uss.ValueKindKeyword, uss.ValueKindEnum) {
			return
		}
		kw, ok := css.ParseKeyword(value)
		if !ok {
			return
		}
		idx := p.a.AddString(kw)
		handle := firstSlot(prop.Values, uss.ValueKindKeyword, uss.ValueKindDimension, uss.ValueKindEnum, uss.ValueKindVariable)
		if handle == nil {
			handle = prop.Values[0]
		}
		handle.Kind = uss.ValueKindEnum
		handle.Index = idx
		p.varsPatched++
		p.changed = true
		p.e.log.Info("converted variable to literal keyword",
			zap.String("asset", p.a.Name), zap.String("variable", key), zap.Int("index", idx))
	case spec.Has(uss.ValueKindResource):
		if hasSlotKind(prop.Values, uss.ValueKindResource) {
			return
		}
		res, ok := css.ParseResource(value)
		if !ok {
			return
		}
		idx := p.a.AddString(res.Canonical())
		handle := firstSlot(prop.Values, uss.ValueKindDimension, uss.ValueKindResource, uss.ValueKindEnum, uss.ValueKindVariable)
		if handle == nil {
			handle = prop.Values[0]
		}
		handle.Kind = uss.ValueKindResource
		handle.Index = idx
		p.varsPatched++
		p.changed = true
		p.e.log.Info("converted variable to literal resource",
			zap.String("asset", p.a.Name), zap.String("variable", key), zap.Int("index", idx))
	}
}

// patchLinkedColors updates color table entries reachable through the
// parallel-index convention: the string table names a variable at index i
// and some property carries both a reference slot and a color slot at i.
func (p *assetPass) patchLinkedColors() {
	for i := range p.a.Colors {
		if _, done := p.patchedColors[i]; done {
			continue
		}
		if i >= len(p.a.Strings) {
			continue
		}
		varName := p.a.Strings[i]
		value, ok := p.vars[varName]
		if !ok || value == "" {
			continue
		}
		if !p.dualLink(i) {
			continue
		}
		hex, ok := css.NormalizeColor(value)
		if !ok {
			p.e.log.Debug("linked variable value is not a color",
				zap.String("asset", p.a.Name), zap.String("variable", varName), zap.String("value", value))
			continue
		}
		want := rgbaOf(hex)
		if p.a.Colors[i] == want {
			continue
		}
		p.a.Colors[i] = want
		p.varsPatched++
		p.changed = true
		p.e.log.Info("patched linked variable color",
			zap.String("asset", p.a.Name), zap.String("variable", varName),
			zap.Int("index", i), zap.String("color", hex))
	}
}

// dualLink reports whether some property holds both a reference slot and a
// color slot at the given index.
func (p *assetPass) dualLink(idx int) bool {
	for _, rule := range p.a.Rules {
		for _, prop := range rule.Properties {
			hasRef, hasColor := false, false
			for _, v := range prop.Values {
				if v.Index != idx {
					continue
				}
				switch v.Kind {
				case uss.ValueKindDimension, uss.ValueKindVariable:
					hasRef = true
				case uss.ValueKindColor:
					hasColor = true
				}
			}
			if hasRef && hasColor {
				return true
			}
		}
	}
	return false
}

// patchDirectLiterals sweeps every color slot and patches entries whose
// property name is a suffix of some override variable name. Override keys
// are tried in sorted order so the pick is deterministic.
func (p *assetPass) patchDirectLiterals() {
	keys := make([]string, 0, len(p.vars))
	for k := range p.vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, rule := range p.a.Rules {
		for _, prop := range rule.Properties {
			for _, v := range prop.Values {
				if v.Kind != uss.ValueKindColor {
					continue
				}
				cur, ok := p.a.ColorAt(v.Index)
				if !ok {
					continue
				}
				value, found := "", false
				for _, k := range keys {
					if strings.HasSuffix(k, prop.Name) {
						value, found = p.vars[k], true
						break
					}
				}
				if !found {
					continue
				}
				hex, ok := css.NormalizeColor(value)
				if !ok {
					continue
				}
				want := rgbaOf(hex)
				if cur == want {
					continue
				}
				p.a.Colors[v.Index] = want
				p.directPatched++
				p.changed = true
				p.e.log.Info("patched direct literal",
					zap.String("asset", p.a.Name), zap.String("property", prop.Name),
					zap.Int("index", v.Index), zap.String("color", hex))
			}
		}
	}
}

// splitSharedRules isolates selectors that have overrides from rules shared
// with other selectors, so patching one selector cannot leak into another.
func (p *assetPass) splitSharedRules() {
	type splitTarget struct {
		selector string
		rule     int
	}
	var pending []splitTarget
	seen := make(map[splitTarget]struct{})

	for ri := range p.a.Rules {
		for _, text := range p.a.SelectorTextsFor(ri) {
			for _, prop := range p.a.Rules[ri].Properties {
				key := css.Key(text, prop.Name)
				if !p.e.allowsKey(key) {
					continue
				}
				if _, ok := p.overrides[key]; !ok {
					continue
				}
				t := splitTarget{selector: text, rule: ri}
				if _, dup := seen[t]; dup {
					continue
				}
				seen[t] = struct{}{}
				pending = append(pending, t)
			}
		}
	}

	for _, t := range pending {
		if idx := p.e.splitRule(p.a, t.rule, t.selector); idx != t.rule {
			p.changed = true
		}
	}
}

// applySelectorOverrides walks every rule and applies overrides keyed by the
// rule's selector texts and property names. Rules without selector metadata
// are reachable under the synthesized "rule-N" name.
func (p *assetPass) applySelectorOverrides() {
	for ri := 0; ri < len(p.a.Rules); ri++ {
		rule := p.a.Rules[ri]
		texts := p.a.SelectorTextsFor(ri)
		if len(texts) == 0 {
			texts = []string{fmt.Sprintf(".rule-%d", ri)}
		}
		for _, prop := range rule.Properties {
			for _, text := range texts {
				key := css.Key(text, prop.Name)
				if !p.e.allowsKey(key) {
					continue
				}
				ov, ok := p.overrides[key]
				if !ok {
					continue
				}
				p.matchedKeys[key] = struct{}{}
				p.e.log.Debug("selector override matched",
					zap.String("asset", p.a.Name), zap.String("selector", text),
					zap.String("property", prop.Name), zap.String("value", ov.Value))
				p.applyOverrideToProperty(prop, key, ov)
			}
		}
	}
}

func (p *assetPass) applyOverrideToProperty(prop *uss.Property, key css.SelectorKey, ov css.SelectorOverride) {
	display := ov.Selector
	if display == "" {
		display = key.Name
	}

	if varName, ok := css.ParseVariable(ov.Value); ok {
		p.retargetToVariable(prop, key, display, varName)
		return
	}
	if trimmed := strings.TrimSpace(ov.Value); strings.HasPrefix(trimmed, "--") {
		p.retargetToVariable(prop, key, display, trimmed)
		return
	}
	if isColorProperty(key.Property, ov.Value) {
		p.overrideColor(prop, key, display, ov.Value)
		return
	}
	if p.patchTyped(prop, ov.Value, false) {
		p.varsPatched++
		p.changed = true
		p.run.touch(key, display, p.a.Name)
	}
}

// retargetToVariable points the property's first slot at a variable name in
// the string table, reusing an existing entry when present.
func (p *assetPass) retargetToVariable(prop *uss.Property, key css.SelectorKey, display, varName string) {
	if len(prop.Values) == 0 {
		p.e.log.Warn("no value slots to patch",
			zap.String("asset", p.a.Name), zap.String("selector", display), zap.String("property", key.Property))
		return
	}
	idx, ok := p.a.FindString(varName)
	if !ok {
		idx = p.a.AddString(varName)
	}
	v := prop.Values[0]
	if v.Kind == uss.ValueKindVariable && v.Index == idx {
		return
	}
	v.Kind = uss.ValueKindVariable
	v.Index = idx
	p.varsPatched++
	p.changed = true
	p.run.touch(key, display, p.a.Name)
	p.e.log.Info("selector property now references variable",
		zap.String("asset", p.a.Name), zap.String("selector", display),
		zap.String("property", key.Property), zap.String("variable", varName))
}

// overrideColor gives the selector's property its own color table entry. A
// fresh entry is appended on every real change because the old index may be
// shared with other selectors; equal values leave the asset untouched.
func (p *assetPass) overrideColor(prop *uss.Property, key css.SelectorKey, display, value string) {
	hex, ok := css.NormalizeColor(value)
	if !ok {
		p.e.log.Warn("override value is not a color",
			zap.String("asset", p.a.Name), zap.String("selector", display),
			zap.String("property", key.Property), zap.String("value", value))
		return
	}
	want := rgbaOf(hex)

	handle := firstSlot(prop.Values, uss.ValueKindColor)
	if handle == nil {
		handle = firstSlot(prop.Values, uss.ValueKindDimension, uss.ValueKindEnum, uss.ValueKindVariable)
	}
	if handle == nil {
		p.e.log.Warn("no value slot can hold a color",
			zap.String("asset", p.a.Name), zap.String("selector", display), zap.String("property", key.Property))
		return
	}
	if handle.Kind == uss.ValueKindColor {
		if cur, ok := p.a.ColorAt(handle.Index); ok && cur == want {
			return
		}
	}

	idx := p.a.AddColor(want)
	handle.Kind = uss.ValueKindColor
	handle.Index = idx
	p.varsPatched++
	p.patchedColors[idx] = struct{}{}
	p.changed = true
	p.run.touch(key, display, p.a.Name)
	p.e.log.Info("patched selector color",
		zap.String("asset", p.a.Name), zap.String("selector", display),
		zap.String("property", key.Property), zap.Int("index", idx), zap.String("color", hex))
}

// patchFloatProperty updates a property's float value. Four-sided shorthands
// update every float slot and drop reference slots so the explicit value
// wins; other properties update the first float slot or convert a reference
// slot to a fresh float entry.
func (e *Engine) patchFloatProperty(a *uss.StyleAsset, prop *uss.Property, value string) bool {
	parsed, ok := css.ParseFloat(value)
	if !ok {
		return false
	}
	if !parsed.UnitKnown() {
		e.log.Debug("unknown unit treated as unitless",
			zap.String("asset", a.Name), zap.String("property", prop.Name), zap.String("unit", parsed.Unit))
	}
	target := parsed.Value

	var floatSlots []*uss.ValueSlot
	hasRef := false
	for _, v := range prop.Values {
		switch v.Kind {
		case uss.ValueKindFloat:
			floatSlots = append(floatSlots, v)
		case uss.ValueKindDimension, uss.ValueKindVariable:
			hasRef = true
		}
	}

	if uss.IsFloatShorthand(prop.Name) && (len(floatSlots) > 1 || hasRef) {
		changed := false
		for _, v := range floatSlots {
			cur, ok := a.FloatAt(v.Index)
			if !ok {
				continue
			}
			if math.Abs(cur-target) >= floatTolerance {
				a.Floats[v.Index] = target
				changed = true
				e.log.Info("patched shorthand float",
					zap.String("asset", a.Name), zap.String("property", prop.Name),
					zap.Int("index", v.Index), zap.Float64("value", target))
			}
		}
		if e.stripVarRefs(a, prop) {
			changed = true
		}
		return changed
	}

	if len(floatSlots) > 0 {
		v := floatSlots[0]
		if cur, ok := a.FloatAt(v.Index); ok {
			changed := false
			if math.Abs(cur-target) >= floatTolerance {
				a.Floats[v.Index] = target
				changed = true
				e.log.Info("patched float",
					zap.String("asset", a.Name), zap.String("property", prop.Name),
					zap.Int("index", v.Index), zap.Float64("value", target))
			}
			if strings.HasPrefix(prop.Name, "--") && e.stripVarRefs(a, prop) {
				changed = true
			}
			return changed
		}
		// slot points outside the table, treat it as absent and append
	}

	handle := firstSlot(prop.Values, uss.ValueKindFloat, uss.ValueKindDimension, uss.ValueKindEnum, uss.ValueKindVariable)
	if handle == nil {
		if len(prop.Values) == 0 {
			return false
		}
		handle = prop.Values[0]
	}
	idx := a.AddFloat(target)
	handle.Kind = uss.ValueKindFloat
	handle.Index = idx
	e.log.Info("patched float",
		zap.String("asset", a.Name), zap.String("property", prop.Name),
		zap.Int("index", idx), zap.Float64("value", target))
	return true
}

// stripVarRefs removes reference slots (and enum slots naming a variable)
// from the property, leaving the literal slots in place.
func (e *Engine) stripVarRefs(a *uss.StyleAsset, prop *uss.Property) bool {
	kept := make([]*uss.ValueSlot, 0, len(prop.Values))
	removed := false
	for _, v := range prop.Values {
		drop := false
		switch v.Kind {
		case uss.ValueKindDimension, uss.ValueKindVariable:
			drop = true
		case uss.ValueKindEnum:
			if s, ok := a.StringAt(v.Index); ok && strings.HasPrefix(s, "--") {
				drop = true
			}
		}
		if drop {
			removed = true
			e.log.Debug("removed reference slot",
				zap.String("asset", a.Name), zap.String("property", prop.Name),
				zap.Stringer("kind", v.Kind), zap.Int("index", v.Index))
			continue
		}
		kept = append(kept, v)
	}
	if removed {
		prop.Values = kept
	}
	return removed
}

// patchKeywordProperty updates the first keyword or enum slot in place, or
// converts a reference slot to a fresh enum entry.
func (e *Engine) patchKeywordProperty(a *uss.StyleAsset, prop *uss.Property, value string) bool {
	keyword, ok := css.ParseKeyword(value)
	if !ok {
		return false
	}
	for _, v := range prop.Values {
		if v.Kind != uss.ValueKindKeyword && v.Kind != uss.ValueKindEnum {
			continue
		}
		cur, ok := a.StringAt(v.Index)
		if !ok {
			continue
		}
		if cur == keyword {
			return false
		}
		a.Strings[v.Index] = keyword
		e.log.Info("patched keyword",
			zap.String("asset", a.Name), zap.String("property", prop.Name),
			zap.Int("index", v.Index), zap.String("keyword", keyword))
		return true
	}

	handle := firstSlot(prop.Values, uss.ValueKindKeyword, uss.ValueKindDimension, uss.ValueKindEnum, uss.ValueKindVariable)
	if handle == nil {
		if len(prop.Values) == 0 {
			return false
		}
		handle = prop.Values[0]
	}
	idx := a.AddString(keyword)
	handle.Kind = uss.ValueKindEnum
	handle.Index = idx
	e.log.Info("patched keyword",
		zap.String("asset", a.Name), zap.String("property", prop.Name),
		zap.Int("index", idx), zap.String("keyword", keyword))
	return true
}

// patchResourceProperty updates the first resource slot in place, or
// converts a reference slot to a fresh resource path entry.
func (e *Engine) patchResourceProperty(a *uss.StyleAsset, prop *uss.Property, value string) bool {
	res, ok := css.ParseResource(value)
	if !ok {
		return false
	}
	path := res.Canonical()
	for _, v := range prop.Values {
		if v.Kind != uss.ValueKindResource {
			continue
		}
		cur, ok := a.StringAt(v.Index)
		if !ok {
			continue
		}
		if cur == path {
			return false
		}
		a.Strings[v.Index] = path
		e.log.Info("patched resource",
			zap.String("asset", a.Name), zap.String("property", prop.Name),
			zap.Int("index", v.Index), zap.String("path", path))
		return true
	}

	handle := firstSlot(prop.Values, uss.ValueKindDimension, uss.ValueKindResource, uss.ValueKindEnum, uss.ValueKindVariable)
	if handle == nil {
		if len(prop.Values) == 0 {
			return false
		}
		handle = prop.Values[0]
	}
	idx := a.AddString(path)
	handle.Kind = uss.ValueKindResource
	handle.Index = idx
	e.log.Info("patched resource",
		zap.String("asset", a.Name), zap.String("property", prop.Name),
		zap.Int("index", idx), zap.String("path", path))
	return true
}
