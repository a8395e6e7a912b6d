// Package skin collects override files from a skin directory and scopes
// their contributions per asset. Files named by the mapping document apply
// only to their targets; everything else merges into the global override
// set.
package skin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"restyle/css"
)

// Collected aggregates override data from one skin directory. Bucket keys
// are lowercased asset names (AssetMap) and file stems (FilesByStem).
type Collected struct {
	GlobalVars      css.Vars
	GlobalSelectors css.Selectors
	AssetMap        map[string][]*css.FileOverrides
	FilesByStem     map[string][]*css.FileOverrides
}

// Collect enumerates override files under root: colours/*.uss and
// colours/*.css first, then the root directory itself, each group sorted.
// Files that fail to parse are skipped with a warning.
func Collect(root string, log *zap.Logger) (*Collected, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("collector")

	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("override directory %s is not usable: %w", root, err)
	}

	collected := &Collected{
		GlobalVars:      make(css.Vars),
		GlobalSelectors: make(css.Selectors),
		AssetMap:        make(map[string][]*css.FileOverrides),
		FilesByStem:     make(map[string][]*css.FileOverrides),
	}

	mapping := loadMapping(root, log)
	parser := css.NewParser(log)

	var totalVars, totalSelectors int
	files := overrideFiles(root)
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			log.Warn("Unable to open override file", zap.String("file", path), zap.Error(err))
			continue
		}
		fo, err := parser.Parse(f, path)
		f.Close()
		if err != nil {
			log.Warn("Unable to parse override file", zap.String("file", path), zap.Error(err))
			continue
		}

		totalVars += len(fo.Vars)
		totalSelectors += len(fo.Selectors)

		if targets := mappingTargetsFor(path, root, mapping); len(targets) > 0 {
			for _, target := range targets {
				collected.AssetMap[target] = append(collected.AssetMap[target], fo)
			}
		} else {
			fo.MergeInto(collected.GlobalVars, collected.GlobalSelectors)
		}

		stem := strings.ToLower(fileStem(path))
		collected.FilesByStem[stem] = append(collected.FilesByStem[stem], fo)
	}

	log.Info("Collected overrides",
		zap.Int("files", len(files)),
		zap.Int("vars", totalVars),
		zap.Int("selectors", totalSelectors),
		zap.Int("mapped_targets", len(collected.AssetMap)))
	return collected, nil
}

// EffectiveFor resolves the override set one asset sees: its asset-map
// bucket, then its stem bucket (same file counted once), and the global set
// only when no targeted bucket hit. The flag reports explicit targeting.
func (c *Collected) EffectiveFor(assetName string) (css.Vars, css.Selectors, bool) {
	vars := make(css.Vars)
	selectors := make(css.Selectors)
	key := strings.ToLower(assetName)

	seen := make(map[*css.FileOverrides]struct{})
	targeted := false

	for _, fo := range c.AssetMap[key] {
		seen[fo] = struct{}{}
		fo.MergeInto(vars, selectors)
		targeted = true
	}
	for _, fo := range c.FilesByStem[key] {
		if _, dup := seen[fo]; dup {
			continue
		}
		fo.MergeInto(vars, selectors)
		targeted = true
	}
	if !targeted {
		for name, value := range c.GlobalVars {
			vars[name] = value
		}
		for k, ov := range c.GlobalSelectors {
			selectors[k] = ov
		}
	}
	return vars, selectors, targeted
}

// Requested gathers every variable name and selector key any override file
// mentions, regardless of how the file is scoped. This is the full demand
// set a scan cache resolves candidates against.
func (c *Collected) Requested() (map[string]struct{}, map[css.SelectorKey]struct{}) {
	vars := make(map[string]struct{})
	keys := make(map[css.SelectorKey]struct{})

	for name := range c.GlobalVars {
		vars[name] = struct{}{}
	}
	for key := range c.GlobalSelectors {
		keys[key] = struct{}{}
	}
	add := func(buckets map[string][]*css.FileOverrides) {
		for _, bucket := range buckets {
			for _, fo := range bucket {
				for name := range fo.Vars {
					vars[name] = struct{}{}
				}
				for key := range fo.Selectors {
					keys[key] = struct{}{}
				}
			}
		}
	}
	add(c.AssetMap)
	add(c.FilesByStem)
	return vars, keys
}

func overrideFiles(root string) []string {
	var files []string
	appendGlobs := func(dir string) {
		for _, ext := range []string{"*.uss", "*.css"} {
			matches, _ := filepath.Glob(filepath.Join(dir, ext))
			slices.Sort(matches)
			files = append(files, matches...)
		}
	}
	colours := filepath.Join(root, "colours")
	if fi, err := os.Stat(colours); err == nil && fi.IsDir() {
		appendGlobs(colours)
	}
	appendGlobs(root)
	return files
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadMapping reads the targeting document: mapping.json with map.json as
// the fallback name, in the root and in colours/, all found files merged.
// Values may be one target, a list of targets, or {"stylesheets": [...]}.
func loadMapping(root string, log *zap.Logger) map[string][]string {
	mapping := make(map[string][]string)

	var candidates []string
	for _, dir := range []string{root, filepath.Join(root, "colours")} {
		if primary := filepath.Join(dir, "mapping.json"); fileExists(primary) {
			candidates = append(candidates, primary)
		} else if alt := filepath.Join(dir, "map.json"); fileExists(alt) {
			candidates = append(candidates, alt)
		}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Unable to read mapping file", zap.String("file", path), zap.Error(err))
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Warn("Mapping file must contain a JSON object", zap.String("file", path), zap.Error(err))
			continue
		}
		for key, value := range doc {
			fileKey := strings.ToLower(strings.TrimSpace(key))
			if fileKey == "" {
				continue
			}
			if targets := mappingTargets(value); len(targets) > 0 {
				mapping[fileKey] = append(mapping[fileKey], targets...)
			}
		}
	}
	return mapping
}

func mappingTargets(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		var targets []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				targets = append(targets, s)
			}
		}
		return targets
	case map[string]any:
		if list, ok := v["stylesheets"].([]any); ok {
			return mappingTargets(list)
		}
	}
	return nil
}

// mappingTargetsFor matches one override file against the mapping by name,
// stem, relative path and stem+extension variants. Targets come back
// lowercased and deduplicated, order preserved.
func mappingTargetsFor(path, root string, mapping map[string][]string) []string {
	if len(mapping) == 0 {
		return nil
	}

	variants := []string{
		strings.ToLower(filepath.Base(path)),
		strings.ToLower(fileStem(path)),
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		variants = append(variants, strings.ToLower(filepath.ToSlash(rel)))
	}

	var matches []string
	seenVariant := make(map[string]struct{})
	for _, variant := range variants {
		if _, dup := seenVariant[variant]; dup {
			continue
		}
		seenVariant[variant] = struct{}{}
		matches = append(matches, mapping[variant]...)
		if !strings.HasSuffix(variant, ".css") && !strings.HasSuffix(variant, ".uss") {
			matches = append(matches, mapping[variant+".css"]...)
			matches = append(matches, mapping[variant+".uss"]...)
		}
	}

	seen := make(map[string]struct{})
	var targets []string
	for _, m := range matches {
		norm := strings.ToLower(strings.TrimSpace(m))
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		targets = append(targets, norm)
	}
	return targets
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
