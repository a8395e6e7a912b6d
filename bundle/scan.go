package bundle

import (
	"archive/zip"
	"fmt"
	"io"

	"go.uber.org/zap"

	"restyle/archive"
	"restyle/uss"
)

// Scan decodes every stylesheet asset of the bundle at path without keeping
// the container open. It is the scan cache's refresh delegate: models come
// back in manifest order, payload bytes are not retained.
func Scan(path string, log *zap.Logger) ([]*uss.StyleAsset, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("bundle")

	data, err := archive.ReadFile(path, manifestName)
	if err != nil {
		return nil, fmt.Errorf("unable to read bundle manifest (%s): %w", path, err)
	}
	entries, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("unable to read bundle manifest (%s): %w", path, err)
	}

	want := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Kind == KindStylesheet {
			want[e.Path] = e.Name
		}
	}
	if len(want) == 0 {
		return nil, nil
	}

	decoded := make(map[string]*uss.StyleAsset, len(want))
	err = archive.Walk(path, "", func(_ string, f *zip.File) error {
		name, ok := want[f.FileHeader.Name]
		if !ok {
			return nil
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to read asset %s: %w", name, err)
		}
		defer r.Close()

		payload, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read asset %s: %w", name, err)
		}
		model, err := decodeStyleAsset(payload, name)
		if err != nil {
			return fmt.Errorf("unable to decode asset %s: %w", name, err)
		}
		decoded[f.FileHeader.Name] = model
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*uss.StyleAsset, 0, len(decoded))
	for _, e := range entries {
		if e.Kind != KindStylesheet {
			continue
		}
		model, ok := decoded[e.Path]
		if !ok {
			return nil, fmt.Errorf("manifest references missing entry %q (%s)", e.Path, path)
		}
		out = append(out, model)
	}

	log.Debug("Bundle scanned", zap.String("path", path), zap.Int("assets", len(out)))
	return out, nil
}
