// Package bundle reads and rewrites the zip containers that carry style
// assets between tools. A container is a plain zip archive: manifest.xml at
// the root names every asset and maps it to an entry path, stylesheet
// payloads are Ion binary documents of the stylesheet shape, and every
// other entry (texture pages, fonts, atlases) is opaque data the rewriter
// copies through byte for byte.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/amazon-ion/ion-go/ion"
	"github.com/beevik/etree"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"restyle/archive"
	"restyle/uss"
)

const manifestName = "manifest.xml"

// KindStylesheet marks manifest entries holding a decodable style asset.
// Any other kind is carried through verbatim.
const KindStylesheet = "stylesheet"

// Asset is one manifest entry of an open container. Read decodes the
// payload on first use and caches the model; MarkModified flags it for
// re-encoding on the next WriteTo.
type Asset struct {
	Name string
	Path string
	Kind string

	b        *Bundle
	decoded  *uss.StyleAsset
	modified bool
}

// Entry describes one zip member outside the manifest, classified by
// content sniffing for logs and reports.
type Entry struct {
	Path string
	Kind string
	Size uint64
}

// Bundle is an open container. The underlying archive stays open for lazy
// asset reads until Close.
type Bundle struct {
	path    string
	rc      *zip.ReadCloser
	entries map[string]*zip.File
	assets  []*Asset
	opaque  []Entry
	log     *zap.Logger
}

// Open reads the manifest and the entry table of the container at path.
// Asset payloads are not decoded until their Read is called.
func Open(path string, log *zap.Logger) (*Bundle, error) {
	if log == nil {
		log = zap.NewNop()
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open bundle (%s): %w", path, err)
	}

	b := &Bundle{
		path:    path,
		rc:      rc,
		entries: make(map[string]*zip.File, len(rc.File)),
		log:     log.Named("bundle"),
	}
	for _, f := range rc.File {
		name := f.FileHeader.Name
		if !archive.Safe(name) {
			rc.Close()
			return nil, fmt.Errorf("bundle entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		b.entries[name] = f
	}

	mf, ok := b.entries[manifestName]
	if !ok {
		rc.Close()
		return nil, fmt.Errorf("bundle has no %s (%s)", manifestName, path)
	}
	if err := b.readManifest(mf); err != nil {
		rc.Close()
		return nil, fmt.Errorf("unable to read bundle manifest (%s): %w", path, err)
	}
	b.classifyOpaque()

	b.log.Debug("Bundle opened",
		zap.String("path", path),
		zap.Int("assets", len(b.assets)),
		zap.Int("opaque_entries", len(b.opaque)))
	return b, nil
}

// manifestEntry is one <asset> element of manifest.xml.
type manifestEntry struct {
	Name string
	Path string
	Kind string
}

// parseManifest decodes the manifest document. Entry order is preserved.
func parseManifest(data []byte) ([]manifestEntry, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse manifest: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "bundle" {
		return nil, fmt.Errorf("manifest has no <bundle> root")
	}

	var entries []manifestEntry
	for _, el := range root.SelectElements("asset") {
		e := manifestEntry{
			Name: el.SelectAttrValue("name", ""),
			Path: el.SelectAttrValue("path", ""),
			Kind: el.SelectAttrValue("kind", ""),
		}
		if e.Name == "" || e.Path == "" {
			return nil, fmt.Errorf("manifest asset missing name or path")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (b *Bundle) readManifest(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	entries, err := parseManifest(data)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, ok := b.entries[e.Path]; !ok {
			return fmt.Errorf("manifest references missing entry %q", e.Path)
		}
		b.assets = append(b.assets, &Asset{Name: e.Name, Path: e.Path, Kind: e.Kind, b: b})
	}
	return nil
}

// classifyOpaque records every entry the manifest does not claim, with a
// sniffed content kind for diagnostics.
func (b *Bundle) classifyOpaque() {
	listed := make(map[string]struct{}, len(b.assets)+1)
	listed[manifestName] = struct{}{}
	for _, a := range b.assets {
		listed[a.Path] = struct{}{}
	}
	for name, f := range b.entries {
		if _, ok := listed[name]; ok {
			continue
		}
		b.opaque = append(b.opaque, Entry{Path: name, Kind: sniffKind(f), Size: f.UncompressedSize64})
	}
	slices.SortFunc(b.opaque, func(x, y Entry) int { return strings.Compare(x.Path, y.Path) })
}

// sniffKind identifies an opaque payload from its magic bytes. The filetype
// matchers need at most the first 261 bytes.
func sniffKind(f *zip.File) string {
	r, err := f.Open()
	if err != nil {
		return "unknown"
	}
	defer r.Close()

	head := make([]byte, 261)
	n, _ := io.ReadFull(r, head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown || kind.Extension == "" {
		return "unknown"
	}
	return kind.Extension
}

// Path returns the location the bundle was opened from.
func (b *Bundle) Path() string { return b.path }

// Styles lists the stylesheet assets in manifest order.
func (b *Bundle) Styles() []*Asset {
	var out []*Asset
	for _, a := range b.assets {
		if a.Kind == KindStylesheet {
			out = append(out, a)
		}
	}
	return out
}

// Opaque lists the entries the manifest does not claim, sorted by path.
func (b *Bundle) Opaque() []Entry { return b.opaque }

// Modified reports whether any asset was flagged for re-encoding.
func (b *Bundle) Modified() bool {
	for _, a := range b.assets {
		if a.modified {
			return true
		}
	}
	return false
}

// Close releases the underlying archive. Decoded models stay usable.
func (b *Bundle) Close() error {
	if b.rc == nil {
		return nil
	}
	err := b.rc.Close()
	b.rc = nil
	return err
}

// Read decodes the asset payload. The model is cached: repeated calls
// return the same instance, and WriteTo re-encodes that instance when the
// asset is marked modified.
func (a *Asset) Read() (*uss.StyleAsset, error) {
	if a.decoded != nil {
		return a.decoded, nil
	}
	if a.Kind != KindStylesheet {
		return nil, fmt.Errorf("asset %s is not a stylesheet (kind %q)", a.Name, a.Kind)
	}

	f, ok := a.b.entries[a.Path]
	if !ok {
		return nil, fmt.Errorf("bundle entry %q is gone", a.Path)
	}
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to read asset %s: %w", a.Name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read asset %s: %w", a.Name, err)
	}
	model, err := decodeStyleAsset(data, a.Name)
	if err != nil {
		return nil, fmt.Errorf("unable to decode asset %s: %w", a.Name, err)
	}
	a.decoded = model
	return model, nil
}

// MarkModified flags the asset for re-encoding on the next WriteTo.
func (a *Asset) MarkModified() { a.modified = true }

// decodeStyleAsset unmarshals one Ion payload, falling back to the manifest
// name when the payload does not carry one.
func decodeStyleAsset(data []byte, fallbackName string) (*uss.StyleAsset, error) {
	model := &uss.StyleAsset{}
	if err := ion.Unmarshal(data, model); err != nil {
		return nil, err
	}
	if strings.TrimSpace(model.Name) == "" {
		model.Name = fallbackName
	}
	return model, nil
}
