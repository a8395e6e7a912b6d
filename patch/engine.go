// Package patch applies collected style overrides to the typed value tables
// of style assets. The engine works on one asset at a time: it matches
// override names against property names, linked variable strings and selector
// texts, updates table entries in place when the stored value differs, and
// appends fresh entries when a property has to be converted from an indirect
// reference to a literal. Tables only ever grow, existing indices stay valid.
package patch

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"restyle/config"
	"restyle/css"
	"restyle/skin"
	"restyle/uss"
)

// Options control one engine instance. The sink names designate the assets
// that receive brand-new variables and selectors when no explicit targeting
// says otherwise.
type Options struct {
	PatchDirect bool
	DryRun      bool
	DebugDir    string

	PrimaryVariableSink string
	PrimarySelectorSink string
}

const (
	defaultVariableSink = "figmastylevariables"
	defaultSelectorSink = "figmageneratedstyles"
)

// Engine patches style assets against one collected override set. Safe to
// reuse across bundles, each Patch call carries its own bookkeeping.
type Engine struct {
	src   *skin.Collected
	hints *skin.Hints
	opts  Options
	log   *zap.Logger
}

// NewEngine builds an engine over collected overrides. hints may be nil.
func NewEngine(src *skin.Collected, hints *skin.Hints, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PrimaryVariableSink == "" {
		opts.PrimaryVariableSink = defaultVariableSink
	}
	if opts.PrimarySelectorSink == "" {
		opts.PrimarySelectorSink = defaultSelectorSink
	}
	opts.PrimaryVariableSink = strings.ToLower(opts.PrimaryVariableSink)
	opts.PrimarySelectorSink = strings.ToLower(opts.PrimarySelectorSink)
	return &Engine{src: src, hints: hints, opts: opts, log: log.Named("patch")}
}

// bundleRun is the per-Patch state shared by every asset of one bundle: the
// pre-patch registry snapshot and the override touch tracking that feeds the
// conflict report.
type bundleRun struct {
	registry *Registry
	touches  map[css.SelectorKey]map[string]struct{}
	display  map[css.SelectorKey]string
}

func (r *bundleRun) touch(key css.SelectorKey, display, asset string) {
	set, ok := r.touches[key]
	if !ok {
		set = make(map[string]struct{})
		r.touches[key] = set
	}
	set[asset] = struct{}{}
	if _, ok := r.display[key]; !ok {
		r.display[key] = display
	}
}

// Patch runs the engine over every asset of one bundle. The returned report
// carries per-bundle counts and cross-asset conflicts.
func (e *Engine) Patch(bundleName string, assets []*uss.StyleAsset) *Report {
	return e.PatchCandidates(bundleName, assets, nil)
}

// PatchCandidates is Patch with an asset name filter: candidates narrows the
// set of assets examined, compared by lowercased name. nil means examine
// everything, an empty non-nil set matches nothing and is the caller's way
// of saying "skip all".
func (e *Engine) PatchCandidates(bundleName string, assets []*uss.StyleAsset, candidates map[string]struct{}) *Report {
	rep := &Report{Bundle: bundleName, DryRun: e.opts.DryRun}

	selected := make([]*uss.StyleAsset, 0, len(assets))
	for _, a := range assets {
		if candidates != nil {
			if _, ok := candidates[strings.ToLower(a.Name)]; !ok {
				continue
			}
		}
		selected = append(selected, a)
	}

	run := &bundleRun{
		registry: BuildRegistry(selected),
		touches:  make(map[css.SelectorKey]map[string]struct{}),
		display:  make(map[css.SelectorKey]string),
	}
	if n := run.registry.Len(); n > 0 {
		e.log.Info("registry built",
			zap.String("bundle", bundleName),
			zap.Int("selectors", run.registry.SelectorCount()),
			zap.Int("variables", run.registry.VariableCount()),
			zap.Int("assets", len(selected)))
	}

	for _, a := range selected {
		rep.StylesheetsFound++
		vars, overrides, targeted := e.src.EffectiveFor(a.Name)

		var snapshot *uss.StyleAsset
		if e.opts.DebugDir != "" && !e.opts.DryRun {
			snapshot = a.Clone()
		}

		pv, pd, changed := e.applyAsset(run, a, vars, overrides, targeted)
		rep.VariablesPatched += pv
		rep.DirectPatched += pd
		if changed {
			rep.AssetsModified = append(rep.AssetsModified, a.Name)
			if snapshot != nil {
				e.exportDebug("original_"+a.Name, snapshot)
				e.exportDebug(a.Name, a)
			}
		}
	}
	slices.Sort(rep.AssetsModified)

	for key, touched := range run.touches {
		if len(touched) < 2 {
			continue
		}
		sel := run.display[key]
		if sel == "" {
			sel = key.Name
		}
		rep.Conflicts = append(rep.Conflicts, Conflict{Selector: sel, Property: key.Property, Assets: len(touched)})
	}
	slices.SortFunc(rep.Conflicts, func(a, b Conflict) int {
		if a.Selector != b.Selector {
			return strings.Compare(a.Selector, b.Selector)
		}
		return strings.Compare(a.Property, b.Property)
	})

	return rep
}

func (e *Engine) exportDebug(name string, a *uss.StyleAsset) {
	if err := os.MkdirAll(e.opts.DebugDir, 0o755); err != nil {
		e.log.Warn("cannot create debug directory", zap.String("dir", e.opts.DebugDir), zap.Error(err))
		return
	}
	path := filepath.Join(e.opts.DebugDir, config.CleanFileName(name)+".uss")
	f, err := os.Create(path)
	if err != nil {
		e.log.Warn("cannot write debug export", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()
	uss.WriteUSS(f, a)
}

// allowsKey applies the optional hints filters to a selector override key.
func (e *Engine) allowsKey(key css.SelectorKey) bool {
	return e.hints.AllowsOverride(key)
}
