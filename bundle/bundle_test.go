package bundle

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/amazon-ion/ion-go/ion"

	"restyle/uss"
)

const fixtureManifest = `<?xml version="1.0" encoding="UTF-8"?>
<bundle name="core">
  <asset name="FigmaStyleVariables" path="assets/vars.styles" kind="stylesheet"/>
  <asset name="PanelStyles" path="assets/panel.styles" kind="stylesheet"/>
  <asset name="ButtonIcon" path="assets/icon.png" kind="texture"/>
</bundle>
`

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func styleFixture(name, varName string, c uss.RGBA) *uss.StyleAsset {
	asset := &uss.StyleAsset{Name: name}
	ci := asset.AddColor(c)
	asset.AddString(varName)
	ri := asset.AddRule(&uss.Rule{
		Line: 1,
		Properties: []*uss.Property{{
			Name:   varName,
			Line:   1,
			Values: []*uss.ValueSlot{{Kind: uss.ValueKindColor, Index: ci}},
		}},
	})
	asset.Selectors = append(asset.Selectors, &uss.ComplexSelector{
		RuleIndex:   ri,
		Specificity: 10,
		Selectors: []*uss.StyleSelector{{
			Parts: []uss.SelectorPart{{Kind: uss.PartKindClass, Value: "panel", Line: 1, Column: 1}},
		}},
	})
	return asset
}

// writeBundle creates a bundle file with two stylesheet assets, one manifest
// listed texture and two entries the manifest does not know about. It returns
// the bundle path and the raw bytes of every entry.
func writeBundle(t *testing.T, dir string) (string, map[string][]byte) {
	t.Helper()

	vars := styleFixture("FigmaStyleVariables", "--primary-color", uss.RGBA{R: 1, A: 1})
	panel := styleFixture("PanelStyles", "--panel-color", uss.RGBA{G: 1, A: 1})

	varsData, err := ion.MarshalBinary(vars)
	if err != nil {
		t.Fatalf("Failed to encode fixture asset: %v", err)
	}
	panelData, err := ion.MarshalBinary(panel)
	if err != nil {
		t.Fatalf("Failed to encode fixture asset: %v", err)
	}

	entries := []struct {
		name string
		data []byte
	}{
		{manifestName, []byte(fixtureManifest)},
		{"assets/vars.styles", varsData},
		{"assets/panel.styles", panelData},
		{"assets/icon.png", pngHeader},
		{"extra/texture.png", pngHeader},
		{"extra/blob.dat", []byte("opaque payload")},
	}

	path := filepath.Join(dir, "core.bundle")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create bundle file: %v", err)
	}
	w := zip.NewWriter(f)
	raw := make(map[string][]byte, len(entries))
	for _, e := range entries {
		ew, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", e.name, err)
		}
		if _, err := ew.Write(e.data); err != nil {
			t.Fatalf("Failed to write entry %s: %v", e.name, err)
		}
		raw[e.name] = e.data
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close bundle file: %v", err)
	}
	return path, raw
}

func readZipEntry(t *testing.T, path, name string) []byte {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileHeader.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("Failed to read entry %s: %v", name, err)
		}
		return buf.Bytes()
	}
	t.Fatalf("Entry %s not found in %s", name, path)
	return nil
}

func TestOpen(t *testing.T) {
	path, _ := writeBundle(t, t.TempDir())

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer b.Close()

	if b.Path() != path {
		t.Errorf("Path() = %q, want %q", b.Path(), path)
	}

	styles := b.Styles()
	if len(styles) != 2 {
		t.Fatalf("Expected 2 stylesheet assets, got %d", len(styles))
	}
	if styles[0].Name != "FigmaStyleVariables" || styles[1].Name != "PanelStyles" {
		t.Errorf("Stylesheet order = %s, %s, want manifest order", styles[0].Name, styles[1].Name)
	}
	for _, a := range styles {
		if a.Kind != KindStylesheet {
			t.Errorf("Asset %s has kind %q", a.Name, a.Kind)
		}
	}

	opaque := b.Opaque()
	if len(opaque) != 2 {
		t.Fatalf("Expected 2 opaque entries, got %d", len(opaque))
	}
	if opaque[0].Path != "extra/blob.dat" || opaque[0].Kind != "unknown" {
		t.Errorf("Unexpected opaque entry: %+v", opaque[0])
	}
	if opaque[1].Path != "extra/texture.png" || opaque[1].Kind != "png" {
		t.Errorf("Unexpected opaque entry: %+v", opaque[1])
	}
	if opaque[1].Size != uint64(len(pngHeader)) {
		t.Errorf("Opaque size = %d, want %d", opaque[1].Size, len(pngHeader))
	}

	if b.Modified() {
		t.Error("Freshly opened bundle reports modifications")
	}

	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("nonexistent file", func(t *testing.T) {
		if _, err := Open(filepath.Join(tmpDir, "missing.bundle"), nil); err == nil {
			t.Error("Expected error for nonexistent bundle")
		}
	})

	t.Run("not an archive", func(t *testing.T) {
		path := filepath.Join(tmpDir, "garbage.bundle")
		if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		if _, err := Open(path, nil); err == nil {
			t.Error("Expected error for invalid archive")
		}
	})

	t.Run("no manifest", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "nomanifest.bundle", map[string]string{
			"readme.txt": "hello",
		})
		if _, err := Open(path, nil); err == nil {
			t.Error("Expected error for bundle without manifest")
		}
	})

	t.Run("manifest references missing entry", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "dangling.bundle", map[string]string{
			manifestName: `<bundle><asset name="Ghost" path="assets/ghost.styles" kind="stylesheet"/></bundle>`,
		})
		if _, err := Open(path, nil); err == nil {
			t.Error("Expected error for manifest referencing missing entry")
		}
	})

	t.Run("wrong manifest root", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "badroot.bundle", map[string]string{
			manifestName: `<container/>`,
		})
		if _, err := Open(path, nil); err == nil {
			t.Error("Expected error for manifest with wrong root element")
		}
	})

	t.Run("asset without attributes", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "badasset.bundle", map[string]string{
			manifestName: `<bundle><asset kind="stylesheet"/></bundle>`,
		})
		if _, err := Open(path, nil); err == nil {
			t.Error("Expected error for asset element without name and path")
		}
	})
}

func writeRawZip(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(f)
	for entry, content := range entries {
		ew, err := w.Create(entry)
		if err != nil {
			t.Fatalf("Failed to create entry: %v", err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close zip file: %v", err)
	}
	return path
}

func TestAssetRead(t *testing.T) {
	path, _ := writeBundle(t, t.TempDir())

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer b.Close()

	styles := b.Styles()
	model, err := styles[0].Read()
	if err != nil {
		t.Fatalf("Failed to read asset: %v", err)
	}
	if model.Name != "FigmaStyleVariables" {
		t.Errorf("Decoded name = %q, want FigmaStyleVariables", model.Name)
	}
	if len(model.Rules) != 1 || len(model.Colors) != 1 {
		t.Errorf("Decoded model lost data: %d rules, %d colors", len(model.Rules), len(model.Colors))
	}
	if got, ok := model.ColorAt(0); !ok || got.R != 1 || got.A != 1 {
		t.Errorf("Decoded color = %+v", got)
	}

	again, err := styles[0].Read()
	if err != nil {
		t.Fatalf("Second read failed: %v", err)
	}
	if again != model {
		t.Error("Second read did not return the cached model")
	}

	// Manifest lists the texture but it is not decodable.
	var texture *Asset
	for _, a := range b.assets {
		if a.Kind != KindStylesheet {
			texture = a
		}
	}
	if texture == nil {
		t.Fatal("Fixture lost its texture asset")
	}
	if _, err := texture.Read(); err == nil {
		t.Error("Expected error reading non stylesheet asset")
	}
}

func TestAssetRead_NameFallback(t *testing.T) {
	tmpDir := t.TempDir()

	anon := styleFixture("", "--color", uss.RGBA{B: 1, A: 1})
	data, err := ion.MarshalBinary(anon)
	if err != nil {
		t.Fatalf("Failed to encode fixture asset: %v", err)
	}

	path := writeRawZip(t, tmpDir, "anon.bundle", map[string]string{
		manifestName:        `<bundle><asset name="ManifestName" path="anon.styles" kind="stylesheet"/></bundle>`,
		"anon.styles":       string(data),
		"unrelated/tex.bin": "xx",
	})

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer b.Close()

	model, err := b.Styles()[0].Read()
	if err != nil {
		t.Fatalf("Failed to read asset: %v", err)
	}
	if model.Name != "ManifestName" {
		t.Errorf("Fallback name = %q, want ManifestName", model.Name)
	}
}

func TestWriteTo(t *testing.T) {
	tmpDir := t.TempDir()
	path, raw := writeBundle(t, tmpDir)

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer b.Close()

	styles := b.Styles()
	model, err := styles[1].Read()
	if err != nil {
		t.Fatalf("Failed to read asset: %v", err)
	}
	model.Colors[0] = uss.RGBA{R: 0.2, G: 0.4, B: 0.6, A: 1}
	styles[1].MarkModified()

	if !b.Modified() {
		t.Fatal("Bundle does not report modifications")
	}

	outPath := filepath.Join(tmpDir, "out", "core.bundle")
	if err := b.WriteTo(outPath); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}

	// Untouched entries survive byte for byte.
	for _, name := range []string{manifestName, "assets/vars.styles", "assets/icon.png", "extra/texture.png", "extra/blob.dat"} {
		if got := readZipEntry(t, outPath, name); !bytes.Equal(got, raw[name]) {
			t.Errorf("Entry %s changed on rewrite", name)
		}
	}

	// Copied entries lose their data descriptor flag.
	r, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatalf("Failed to reopen output: %v", err)
	}
	for _, f := range r.File {
		if f.FileHeader.Name == "assets/vars.styles" && f.FileHeader.Flags&0x8 != 0 {
			t.Error("Copied entry still has data descriptor flag set")
		}
	}
	r.Close()

	// The modified asset decodes with the new value.
	out, err := Open(outPath, nil)
	if err != nil {
		t.Fatalf("Failed to open rewritten bundle: %v", err)
	}
	defer out.Close()

	patched, err := out.Styles()[1].Read()
	if err != nil {
		t.Fatalf("Failed to read rewritten asset: %v", err)
	}
	if got, ok := patched.ColorAt(0); !ok || got.R != 0.2 || got.G != 0.4 || got.B != 0.6 {
		t.Errorf("Rewritten color = %+v", got)
	}
	if v, ok := patched.StringAt(0); !ok || v != "--panel-color" {
		t.Errorf("Rewritten string table lost data: %q", v)
	}
}

func TestWriteTo_NoChanges(t *testing.T) {
	tmpDir := t.TempDir()
	path, raw := writeBundle(t, tmpDir)

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer b.Close()

	outPath := filepath.Join(tmpDir, "copy.bundle")
	if err := b.WriteTo(outPath); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	for name, data := range raw {
		if got := readZipEntry(t, outPath, name); !bytes.Equal(got, data) {
			t.Errorf("Entry %s changed on rewrite", name)
		}
	}
}

func TestWriteTo_InPlace(t *testing.T) {
	tmpDir := t.TempDir()
	path, raw := writeBundle(t, tmpDir)

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}

	styles := b.Styles()
	model, err := styles[0].Read()
	if err != nil {
		t.Fatalf("Failed to read asset: %v", err)
	}
	model.Colors[0] = uss.RGBA{R: 0.5, A: 1}
	styles[0].MarkModified()

	if err := b.WriteTo(path); err != nil {
		t.Fatalf("Failed to rewrite bundle in place: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if got := readZipEntry(t, path, "assets/panel.styles"); !bytes.Equal(got, raw["assets/panel.styles"]) {
		t.Error("Untouched asset changed on in place rewrite")
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to reopen bundle: %v", err)
	}
	defer reopened.Close()

	patched, err := reopened.Styles()[0].Read()
	if err != nil {
		t.Fatalf("Failed to read rewritten asset: %v", err)
	}
	if got, ok := patched.ColorAt(0); !ok || got.R != 0.5 {
		t.Errorf("Rewritten color = %+v", got)
	}
}

func TestWriteTo_ModifiedWithoutDecode(t *testing.T) {
	tmpDir := t.TempDir()
	path, _ := writeBundle(t, tmpDir)

	b, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to open bundle: %v", err)
	}
	defer b.Close()

	b.Styles()[0].MarkModified()
	if err := b.WriteTo(filepath.Join(tmpDir, "out.bundle")); err == nil {
		t.Error("Expected error for modified asset that was never decoded")
	}
}

func TestBackup(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "core.bundle")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	target, err := Backup(path, "")
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if target != path+".bak" {
		t.Errorf("Backup target = %q, want %q", target, path+".bak")
	}
	if data, _ := os.ReadFile(target); string(data) != "original" {
		t.Errorf("Backup content = %q", data)
	}

	// A second backup never clobbers the first.
	if err := os.WriteFile(path, []byte("patched"), 0644); err != nil {
		t.Fatalf("Failed to overwrite file: %v", err)
	}
	target2, err := Backup(path, "")
	if err != nil {
		t.Fatalf("Second backup failed: %v", err)
	}
	if target2 != target {
		t.Errorf("Second backup target = %q, want %q", target2, target)
	}
	if data, _ := os.ReadFile(target); string(data) != "original" {
		t.Errorf("Second backup overwrote the original: %q", data)
	}

	custom, err := Backup(path, ".orig")
	if err != nil {
		t.Fatalf("Backup with custom suffix failed: %v", err)
	}
	if custom != path+".orig" {
		t.Errorf("Backup target = %q, want %q", custom, path+".orig")
	}
	if data, _ := os.ReadFile(custom); string(data) != "patched" {
		t.Errorf("Backup content = %q", data)
	}

	if _, err := Backup(filepath.Join(tmpDir, "missing.bundle"), ""); err == nil {
		t.Error("Expected error backing up nonexistent file")
	}
}

func TestScan(t *testing.T) {
	path, _ := writeBundle(t, t.TempDir())

	models, err := Scan(path, nil)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(models))
	}
	if models[0].Name != "FigmaStyleVariables" || models[1].Name != "PanelStyles" {
		t.Errorf("Scan order = %s, %s, want manifest order", models[0].Name, models[1].Name)
	}
	if len(models[0].Rules) != 1 {
		t.Errorf("Scanned model lost rules: %d", len(models[0].Rules))
	}
}

func TestScan_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("no manifest", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "nomanifest.bundle", map[string]string{
			"readme.txt": "hello",
		})
		if _, err := Scan(path, nil); err == nil {
			t.Error("Expected error for bundle without manifest")
		}
	})

	t.Run("stylesheet entry missing", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "dangling.bundle", map[string]string{
			manifestName: `<bundle><asset name="Ghost" path="assets/ghost.styles" kind="stylesheet"/></bundle>`,
		})
		if _, err := Scan(path, nil); err == nil {
			t.Error("Expected error for manifest referencing missing entry")
		}
	})

	t.Run("no stylesheets", func(t *testing.T) {
		path := writeRawZip(t, tmpDir, "plain.bundle", map[string]string{
			manifestName: `<bundle><asset name="Icon" path="icon.png" kind="texture"/></bundle>`,
			"icon.png":   string(pngHeader),
		})
		models, err := Scan(path, nil)
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if models != nil {
			t.Errorf("Expected no models, got %d", len(models))
		}
	})
}
