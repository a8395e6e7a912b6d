// Package cache persists per-bundle scan indexes: which assets define which
// variables and declare which selectors. A valid index lets a patch run skip
// assets no override can possibly touch without opening the bundle twice.
// Indexes are plain JSON documents keyed by a bundle fingerprint; any doubt
// about their freshness falls back to a re-scan.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"restyle/css"
	"restyle/uss"
)

// SchemaVersion is bumped whenever the index document shape changes; stored
// indexes with any other version are rebuilt.
const SchemaVersion = 1

// Fingerprint identifies one bundle file state. Modification time is whole
// seconds, which survives filesystems with coarse timestamps and the JSON
// round trip.
type Fingerprint struct {
	Path  string `json:"path"`
	MTime int64  `json:"mtime"`
	Size  int64  `json:"size"`
}

// Meta is the index envelope checked before anything else is trusted.
type Meta struct {
	Version     int         `json:"version"`
	Fingerprint Fingerprint `json:"fingerprint"`
}

// VarHit locates one appearance of a variable. Rule is -1 for names that
// appear only in the string table.
type VarHit struct {
	Asset string `json:"asset"`
	Rule  int    `json:"rule"`
	Prop  string `json:"prop,omitempty"`
}

// SelectorHit locates one declaration of a selector/property pair.
type SelectorHit struct {
	Asset string `json:"asset"`
	Rule  int    `json:"rule"`
}

// Conflict records a selector/property pair declared by several assets.
type Conflict struct {
	Selector string   `json:"selector"`
	Property string   `json:"property"`
	Assets   []string `json:"assets"`
}

// Index is the persisted scan result for one bundle.
type Index struct {
	Meta        Meta                                `json:"_meta"`
	VarMap      map[string][]VarHit                 `json:"var_map"`
	SelectorMap map[string]map[string][]SelectorHit `json:"selector_map"`
	Assets      []string                            `json:"assets"`
	Conflicts   []Conflict                          `json:"conflicts,omitempty"`
}

// fingerprintOf stats the bundle. Unreadable files get a sentinel that can
// never validate against a real stat.
func fingerprintOf(path string) Fingerprint {
	fi, err := os.Stat(path)
	if err != nil {
		return Fingerprint{Path: path, MTime: -1, Size: -1}
	}
	return Fingerprint{Path: path, MTime: fi.ModTime().Unix(), Size: fi.Size()}
}

// stem returns the bundle file name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IndexPath returns where the index document for a bundle lives under dir.
func IndexPath(dir, bundlePath string) string {
	return filepath.Join(dir, stem(bundlePath)+".index.json")
}

// valid reports whether the stored envelope matches the bundle on disk.
func (ix *Index) valid(bundlePath string) bool {
	if ix.Meta.Version != SchemaVersion {
		return false
	}
	fp := ix.Meta.Fingerprint
	if fp.MTime < 0 || fp.Size < 0 {
		return false
	}
	cur := fingerprintOf(bundlePath)
	return fp.Path == cur.Path && fp.MTime == cur.MTime && fp.Size == cur.Size
}

// Load reads the stored index for a bundle. Absent, unparsable or stale
// documents all yield nil; the caller re-scans.
func Load(dir, bundlePath string, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	path := IndexPath(dir, bundlePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		log.Debug("Discarding unparsable scan index", zap.String("file", path), zap.Error(err))
		return nil
	}
	if !ix.valid(bundlePath) {
		log.Debug("Discarding stale scan index", zap.String("file", path))
		return nil
	}
	log.Debug("Using cached scan index", zap.String("file", path))
	return &ix
}

// Save writes the index document under dir, stamping the envelope with the
// bundle's current fingerprint.
func (ix *Index) Save(dir, bundlePath string) error {
	ix.Meta = Meta{Version: SchemaVersion, Fingerprint: fingerprintOf(bundlePath)}
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode scan index: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create cache directory %s: %w", dir, err)
	}
	path := IndexPath(dir, bundlePath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write scan index %s: %w", path, err)
	}
	return nil
}

// BuildIndex derives the index for one bundle from its scanned assets. The
// variable map records property definitions and bare string table mentions,
// the selector map every property reachable under a declared selector.
func BuildIndex(bundlePath string, assets []*uss.StyleAsset) *Index {
	ix := &Index{
		VarMap:      make(map[string][]VarHit),
		SelectorMap: make(map[string]map[string][]SelectorHit),
	}

	type pairKey struct{ selector, prop string }
	pairOwners := make(map[pairKey][]string)

	for _, a := range assets {
		ix.Assets = append(ix.Assets, a.Name)

		for ri, rule := range a.Rules {
			for _, prop := range rule.Properties {
				if strings.HasPrefix(prop.Name, "--") {
					ix.VarMap[prop.Name] = append(ix.VarMap[prop.Name], VarHit{Asset: a.Name, Rule: ri, Prop: prop.Name})
				}
			}
		}
		for _, s := range a.Strings {
			if !strings.HasPrefix(s, "--") {
				continue
			}
			if hasHitFor(ix.VarMap[s], a.Name) {
				continue
			}
			ix.VarMap[s] = append(ix.VarMap[s], VarHit{Asset: a.Name, Rule: -1})
		}

		for _, cs := range a.Selectors {
			rule, ok := a.RuleAt(cs.RuleIndex)
			if !ok {
				continue
			}
			for _, s := range cs.Selectors {
				if len(s.Parts) == 0 {
					continue
				}
				text := uss.BuildSelector(s.Parts)
				props := ix.SelectorMap[text]
				if props == nil {
					props = make(map[string][]SelectorHit)
					ix.SelectorMap[text] = props
				}
				for _, prop := range rule.Properties {
					props[prop.Name] = append(props[prop.Name], SelectorHit{Asset: a.Name, Rule: cs.RuleIndex})
					k := pairKey{selector: text, prop: prop.Name}
					if !slices.Contains(pairOwners[k], a.Name) {
						pairOwners[k] = append(pairOwners[k], a.Name)
					}
				}
			}
		}
	}

	for k, owners := range pairOwners {
		if len(owners) < 2 {
			continue
		}
		slices.Sort(owners)
		ix.Conflicts = append(ix.Conflicts, Conflict{Selector: k.selector, Property: k.prop, Assets: owners})
	}
	slices.SortFunc(ix.Conflicts, func(a, b Conflict) int {
		if a.Selector != b.Selector {
			return strings.Compare(a.Selector, b.Selector)
		}
		return strings.Compare(a.Property, b.Property)
	})

	return ix
}

func hasHitFor(hits []VarHit, asset string) bool {
	for _, h := range hits {
		if h.Asset == asset {
			return true
		}
	}
	return false
}

// ScanFunc reads every style asset of a bundle.
type ScanFunc func(path string) ([]*uss.StyleAsset, error)

// LoadOrRefresh returns a usable index for the bundle: the stored one when
// its fingerprint still matches, otherwise a fresh scan. Rebuilt indexes are
// persisted best-effort, a failed write only logs.
func LoadOrRefresh(dir, bundlePath string, force bool, scan ScanFunc, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !force {
		if ix := Load(dir, bundlePath, log); ix != nil {
			return ix, nil
		}
	}

	assets, err := scan(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("unable to scan %s: %w", bundlePath, err)
	}
	ix := BuildIndex(bundlePath, assets)
	if err := ix.Save(dir, bundlePath); err != nil {
		log.Warn("Unable to persist scan index", zap.String("bundle", bundlePath), zap.Error(err))
	} else {
		log.Info("Scan index refreshed",
			zap.String("bundle", bundlePath),
			zap.Int("assets", len(ix.Assets)),
			zap.Int("vars", len(ix.VarMap)),
			zap.Int("selectors", len(ix.SelectorMap)))
	}
	return ix, nil
}

// CandidateSet names the assets worth examining for one override run,
// compared by lowercased asset name. A nil set applies no filtering at all;
// a non-nil empty set matches nothing.
type CandidateSet struct {
	names map[string]struct{}
}

// NewCandidateSet builds a set from asset names.
func NewCandidateSet(names ...string) *CandidateSet {
	s := &CandidateSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[strings.ToLower(n)] = struct{}{}
	}
	return s
}

// Len returns the number of named assets; 0 for nil.
func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Has reports whether the asset passes the filter. A nil set passes all.
func (s *CandidateSet) Has(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// Names exposes the lowercased name set, nil for an unfiltered set.
func (s *CandidateSet) Names() map[string]struct{} {
	if s == nil {
		return nil
	}
	return s.names
}

// Sorted lists the names for logging.
func (s *CandidateSet) Sorted() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Intersect narrows the set by another lowercased name set. A nil argument
// changes nothing; intersecting a nil set adopts the argument. The result
// can be empty and non-nil, which callers treat as "skip everything".
func (s *CandidateSet) Intersect(other map[string]struct{}) *CandidateSet {
	if other == nil {
		return s
	}
	if s == nil {
		out := &CandidateSet{names: make(map[string]struct{}, len(other))}
		for n := range other {
			out.names[strings.ToLower(n)] = struct{}{}
		}
		return out
	}
	out := &CandidateSet{names: make(map[string]struct{})}
	for n := range s.names {
		if _, ok := other[n]; ok {
			out.names[n] = struct{}{}
		}
	}
	return out
}

// Candidates unions the assets owning any requested variable or selector
// key. Selector lookups try the stored spelling and the dotted class form;
// a property present in the selector entry narrows the hits to that
// property, anything else widens to every property of the selector. An
// empty union returns nil: an index that recognizes nothing must not veto
// the run.
func (ix *Index) Candidates(varNames map[string]struct{}, keys map[css.SelectorKey]struct{}) *CandidateSet {
	found := make(map[string]struct{})

	for name := range varNames {
		for _, hit := range ix.VarMap[name] {
			if hit.Asset != "" {
				found[strings.ToLower(hit.Asset)] = struct{}{}
			}
		}
	}

	for key := range keys {
		for _, sel := range [2]string{key.Name, "." + key.Name} {
			props, ok := ix.SelectorMap[sel]
			if !ok {
				continue
			}
			if hits, ok := props[key.Property]; ok {
				for _, h := range hits {
					if h.Asset != "" {
						found[strings.ToLower(h.Asset)] = struct{}{}
					}
				}
				continue
			}
			for _, hits := range props {
				for _, h := range hits {
					if h.Asset != "" {
						found[strings.ToLower(h.Asset)] = struct{}{}
					}
				}
			}
		}
	}

	if len(found) == 0 {
		return nil
	}
	return &CandidateSet{names: found}
}
