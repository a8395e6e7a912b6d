package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/amazon-ion/ion-go/ion"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"
)

// WriteTo writes the container to outPath. Entries backing modified assets
// are re-encoded from the in-memory model; everything else is copied
// verbatim with the data descriptor flag cleared so repeated rewrites stay
// byte-stable. outPath may be the source path itself: the content goes
// through a temporary file first.
func (b *Bundle) WriteTo(outPath string) error {
	replace, err := b.encodeModified()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".bundle-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := b.rewrite(tmp, replace); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize temporary file: %w", err)
	}

	if err := copyFile(tmpName, outPath); err != nil {
		return err
	}
	b.log.Info("Bundle written",
		zap.String("path", outPath),
		zap.Int("reencoded", len(replace)),
		zap.Int("copied", len(b.entries)-len(replace)))
	return nil
}

// encodeModified serializes every asset flagged for re-encoding, keyed by
// entry path.
func (b *Bundle) encodeModified() (map[string][]byte, error) {
	replace := make(map[string][]byte)
	for _, a := range b.assets {
		if !a.modified {
			continue
		}
		if a.decoded == nil {
			return nil, fmt.Errorf("asset %s marked modified but never decoded", a.Name)
		}
		data, err := ion.MarshalBinary(a.decoded)
		if err != nil {
			return nil, fmt.Errorf("unable to encode asset %s: %w", a.Name, err)
		}
		replace[a.Path] = data
	}
	return replace, nil
}

// rewrite streams the source archive into out, swapping in the replacement
// payloads where present.
func (b *Bundle) rewrite(out io.Writer, replace map[string][]byte) error {

	r, err := fixzip.OpenReader(b.path)
	if err != nil {
		return fmt.Errorf("unable to reread bundle (%s): %w", b.path, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		if data, ok := replace[file.Name]; ok {
			ew, err := w.Create(file.Name)
			if err != nil {
				return fmt.Errorf("unable to write entry %q: %w", file.Name, err)
			}
			if _, err := ew.Write(data); err != nil {
				return fmt.Errorf("unable to write entry %q: %w", file.Name, err)
			}
			continue
		}

		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to copy entry %q: %w", file.Name, err)
		}
	}
	return w.Close()
}

// Backup copies the bundle at path aside as <path><suffix> before it gets
// overwritten. An existing backup is the pristine original from an earlier
// run and is left untouched.
func Backup(path, suffix string) (string, error) {
	if suffix == "" {
		suffix = ".bak"
	}
	target := path + suffix

	if _, err := os.Stat(target); err == nil {
		return target, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := copyFile(path, target); err != nil {
		return "", err
	}
	return target, nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
