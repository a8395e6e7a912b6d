package skin

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"restyle/css"
)

var (
	assetHintPattern    = regexp.MustCompile(`(?i)^asset\s*[:=]\s*(.+)$`)
	selectorHintPattern = regexp.MustCompile(`(?i)^selector\s*[:=]\s*(.+)$`)
	hintListSplit       = regexp.MustCompile(`[,;]`)
)

// Hints restrict which assets and selector overrides a run may touch. A nil
// Hints means no restriction. Asset names and selector names are stored
// lowercased/canonical so membership checks need no variants.
type Hints struct {
	Assets        map[string]struct{}
	Selectors     map[string]struct{}
	SelectorProps map[css.SelectorKey]struct{}
}

// LoadHints reads hints.txt from dir. Lines hold "asset: A, B" or
// "selector: .sel [prop]" directives, # starts a comment. A missing or
// directive-free file yields nil.
func LoadHints(dir string, log *zap.Logger) *Hints {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("collector")

	path := filepath.Join(dir, "hints.txt")
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	h := &Hints{
		Assets:        make(map[string]struct{}),
		Selectors:     make(map[string]struct{}),
		SelectorProps: make(map[css.SelectorKey]struct{}),
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		if m := assetHintPattern.FindStringSubmatch(line); m != nil {
			for _, name := range hintListSplit.Split(m[1], -1) {
				if name = strings.TrimSpace(name); name != "" {
					h.Assets[strings.ToLower(name)] = struct{}{}
				}
			}
			continue
		}
		if m := selectorHintPattern.FindStringSubmatch(line); m != nil {
			rest := strings.TrimSpace(m[1])
			if selector, prop, found := strings.Cut(rest, " "); found {
				name := css.CanonicalSelector(selector)
				h.Selectors[name] = struct{}{}
				h.SelectorProps[css.SelectorKey{Name: name, Property: strings.TrimSpace(prop)}] = struct{}{}
			} else {
				h.Selectors[css.CanonicalSelector(rest)] = struct{}{}
			}
			continue
		}
		log.Debug("Ignoring unrecognized hint line", zap.String("line", line))
	}
	if err := scanner.Err(); err != nil {
		log.Warn("Unable to read targeting hints", zap.String("file", path), zap.Error(err))
	}

	if len(h.Assets) == 0 && len(h.Selectors) == 0 && len(h.SelectorProps) == 0 {
		return nil
	}
	return h
}

// AllowsOverride reports whether the hints permit touching one
// selector/property pair. Property-scoped entries take precedence: when any
// exist, only listed pairs pass; otherwise bare selector entries gate by
// selector name; with neither there is no restriction.
func (h *Hints) AllowsOverride(key css.SelectorKey) bool {
	if h == nil {
		return true
	}
	if len(h.SelectorProps) > 0 {
		_, ok := h.SelectorProps[key]
		return ok
	}
	if len(h.Selectors) > 0 {
		_, ok := h.Selectors[key.Name]
		return ok
	}
	return true
}

// AssetSet returns the lowercased asset restriction set, nil when the hints
// do not restrict assets.
func (h *Hints) AssetSet() map[string]struct{} {
	if h == nil || len(h.Assets) == 0 {
		return nil
	}
	return h.Assets
}
