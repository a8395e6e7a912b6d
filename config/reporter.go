package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"restyle/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates an empty report backed by the configured destination. When
// the destination cannot be created the report goes to a temporary file
// instead, troubleshooting data is too valuable to lose over a bad path.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{items: make(map[string]item)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// item is a single future archive entry: either literal bytes or a path to
// pick up during finalization. tempRoot marks a snapshot directory owned by
// the report itself, removed after archiving.
type item struct {
	original string
	actual   string
	tempRoot string
	stamp    time.Time
	data     []byte
}

// Report accumulates troubleshooting artifacts of a patching run (logs,
// override snapshots, summaries) and writes them out as a single zip archive
// on Close. All methods accept a nil receiver and do nothing, a nil report
// simply means none was requested.
// NOTE: not safe for concurrent use.
type Report struct {
	items map[string]item
	file  *os.File
}

// Name returns the absolute location of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store registers a file or directory path to be archived during Close. The
// content is read at finalization time, late enough to pick up anything
// written to it after this call (log files rely on that).
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}

	if old, exists := r.items[name]; exists && old.original != path {
		// a name pointing at two different paths is always a programming error
		panic(fmt.Sprintf("conflicting report entry [%s]: was %s, now %s", name, old.original, path))
	}

	it := item{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		it.actual = p
	}
	r.items[name] = it
}

// StoreData registers literal bytes to be archived during Close under the
// requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	if _, exists := r.items[name]; exists {
		panic(fmt.Sprintf("conflicting report entry [%s]: data stored twice", name))
	}

	r.items[name] = item{data: data, stamp: time.Now()}
}

// StoreCopy snapshots a file or directory right now into a temporary
// location and registers the snapshot. Use it for inputs that may change
// before the run ends. Repeated names are versioned with a timestamp, so
// storing the same content several times is safe.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	it := item{stamp: time.Now(), original: path}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	it.actual = absPath

	if _, exists := r.items[name]; exists {
		name = fmt.Sprintf("%s-%d", name, it.stamp.UnixNano())
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	it.tempRoot = dir

	info, err := os.Stat(it.actual)
	if err != nil {
		os.RemoveAll(dir)
		return err
	}
	switch {
	case info.Mode().IsRegular():
		where, err := snapshotFile(dir, it.actual, info.ModTime())
		if err != nil {
			os.RemoveAll(dir)
			return err
		}
		it.actual = where
	case info.Mode().IsDir():
		if err := snapshotTree(dir, it.actual); err != nil {
			os.RemoveAll(dir)
			return err
		}
		it.actual = dir
	}

	r.items[name] = it
	return nil
}

// Close writes the archive out: a MANIFEST first, then every registered
// entry in manifest order. Paths that disappeared since registration are
// silently skipped. Snapshot directories created by StoreCopy are removed
// afterwards, caller-owned paths are never touched.
func (r *Report) Close() error {
	if r == nil {
		return nil
	}
	if r.file == nil {
		return nil
	}
	defer r.file.Close()

	err := r.archive()
	for _, it := range r.items {
		if len(it.tempRoot) > 0 {
			// best effort, snapshots live in temp space
			os.RemoveAll(it.tempRoot)
		}
	}
	return err
}

func (r *Report) archive() error {
	arc := zip.NewWriter(r.file)
	defer arc.Close()

	now := time.Now()

	names, manifest := r.manifest(now)
	if err := writeEntry(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, name := range names {
		it := r.items[name]
		if len(it.data) > 0 {
			if err := writeEntry(arc, name, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(it.actual)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			if err := writeFileEntry(arc, name, it.actual, info.ModTime()); err != nil {
				return err
			}
		case info.Mode().IsDir():
			if err := writeTree(arc, name, it.actual); err != nil {
				return err
			}
		}
	}
	return nil
}

// manifest renders one line per registered entry, sorted by name, and
// returns the names in the same order.
func (r *Report) manifest(now time.Time) ([]string, *bytes.Buffer) {

	buf := new(bytes.Buffer)
	if len(r.items) == 0 {
		return nil, buf
	}

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		it := r.items[name]
		stamp := it.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", stamp.UTC().Format(time.UnixDate), name, it.original, it.actual)
	}
	return names, buf
}

func writeEntry(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func writeFileEntry(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeEntry(dst, name, t, f)
}

// writeTree stores every regular file under dir in the archive, rooted at
// name.
func writeTree(dst *zip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			// links, sockets and the like do not belong in a report
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return writeFileEntry(dst, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
	})
}

// snapshotFile copies src into dir preserving its modification time.
func snapshotFile(dir, src string, modTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	if err = out.Sync(); err != nil {
		return "", err
	}
	out.Close()

	if err := os.Chtimes(dst, modTime, modTime); err != nil {
		return "", err
	}
	return dst, nil
}

// snapshotTree mirrors every regular file under src into dir.
func snapshotTree(dir, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		_, err = snapshotFile(filepath.Dir(filepath.Join(dir, rel)), path, info.ModTime())
		return err
	})
}
