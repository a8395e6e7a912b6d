// Package pipeline drives whole patching runs. It discovers bundle files,
// collects skin overrides once, and feeds every bundle through the patch
// engine. Per-bundle failures are isolated so one broken archive does not
// stop the rest of the queue.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"restyle/bundle"
	"restyle/cache"
	"restyle/config"
	"restyle/patch"
	"restyle/skin"
	"restyle/state"
	"restyle/uss"
)

// Result aggregates one pipeline run across all bundles.
type Result struct {
	BundleReports   []*patch.Report
	BundlesModified int
	VarsPatched     int
	DirectPatched   int
	Failures        int
}

// summaryText renders the per-bundle reports into the plain text form stored
// in the debug report archive.
func (r *Result) summaryText() []byte {
	var buf bytes.Buffer
	for _, rep := range r.BundleReports {
		fmt.Fprintf(&buf, "%s\n", rep.Bundle)
		for _, line := range rep.SummaryLines() {
			fmt.Fprintf(&buf, "%s\n", line)
		}
		if rep.SavedTo != "" {
			fmt.Fprintf(&buf, "Saved to %s\n", rep.SavedTo)
		}
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "Bundles modified: %d, variables patched: %d, direct colors patched: %d, failures: %d\n",
		r.BundlesModified, r.VarsPatched, r.DirectPatched, r.Failures)
	return buf.Bytes()
}

// errSave marks the one per-bundle failure that fails the whole run: a
// patched bundle that could not be written out.
var errSave = errors.New("unable to save patched bundle")

// Patch implements the patch command. The single optional argument is the
// bundle target: a bundle file, a directory of bundles, or nothing to use
// the configured bundles directory.
func Patch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pipeline")

	pc := &env.Cfg.Patch
	if cmd.IsSet("skin") {
		pc.SkinDir = cmd.String("skin")
	}
	if cmd.IsSet("out") {
		pc.OutputDir = cmd.String("out")
	}
	if cmd.Bool("direct") {
		pc.PatchDirect = true
	}
	if cmd.Bool("dry-run") {
		pc.DryRun = true
	}
	if cmd.Bool("no-backup") {
		pc.Backup = false
	}
	if cmd.Bool("debug-export") {
		pc.DebugExport = true
	}

	target := cmd.Args().Get(0)
	if len(target) == 0 {
		target = pc.BundlesDir
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many targets", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	bundles, err := discoverBundles(target)
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		log.Warn("No bundles to patch", zap.String("target", target))
		return nil
	}
	orderBundles(bundles)

	src, err := skin.Collect(pc.SkinDir, log)
	if err != nil {
		return fmt.Errorf("unable to collect skin overrides (%s): %w", pc.SkinDir, err)
	}
	hints := skin.LoadHints(pc.SkinDir, log)

	if env.Rpt != nil {
		// overrides may be edited between the run and report inspection
		if err := env.Rpt.StoreCopy("skin", pc.SkinDir); err != nil {
			log.Warn("Unable to snapshot skin overrides into report", zap.String("skin", pc.SkinDir), zap.Error(err))
		}
	}

	log.Info("Patching starting",
		zap.String("skin", pc.SkinDir), zap.String("target", target), zap.Int("bundles", len(bundles)))
	defer func(start time.Time) {
		log.Info("Patching completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	res, err := run(ctx, src, hints, bundles, pc, cmd.Bool("rescan"), log)
	log.Info("Patching summary",
		zap.Int("bundles", len(bundles)),
		zap.Int("modified", res.BundlesModified),
		zap.Int("variables_patched", res.VarsPatched),
		zap.Int("direct_patched", res.DirectPatched),
		zap.Int("failures", res.Failures))
	if env.Rpt != nil {
		env.Rpt.StoreData("patch-summary.txt", res.summaryText())
	}
	return err
}

// run feeds each bundle through the engine. The returned error is non-nil
// only when no bundle succeeded or when a patched bundle could not be
// saved; partial failures surface in Result.Failures.
func run(ctx context.Context, src *skin.Collected, hints *skin.Hints, bundles []string, pc *config.PatchConfig, rescan bool, log *zap.Logger) (*Result, error) {
	res := &Result{}

	var failed, hard error
	for _, path := range bundles {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rep, err := patchBundle(src, hints, path, pc, rescan, log)
		if err != nil {
			res.Failures++
			failed = multierr.Append(failed, err)
			if errors.Is(err, errSave) {
				hard = multierr.Append(hard, err)
			}
			log.Error("Unable to patch bundle", zap.String("bundle", filepath.Base(path)), zap.Error(err))
			continue
		}
		if rep == nil {
			// nothing in the bundle could match, skipped
			continue
		}

		res.BundleReports = append(res.BundleReports, rep)
		res.VarsPatched += rep.VariablesPatched
		res.DirectPatched += rep.DirectPatched
		if rep.HasChanges() {
			res.BundlesModified++
		}
	}

	if hard != nil {
		return res, hard
	}
	if res.Failures > 0 && res.Failures == len(bundles) {
		return res, failed
	}
	return res, nil
}

// patchBundle runs the engine over a single bundle file. A nil report with a
// nil error means the bundle was skipped because candidate narrowing proved
// nothing in it can match.
func patchBundle(src *skin.Collected, hints *skin.Hints, path string, pc *config.PatchConfig, rescan bool, log *zap.Logger) (*patch.Report, error) {
	base := filepath.Base(path)
	log.Info("Bundle starting", zap.String("bundle", base))

	// The scan cache narrows the asset set worth opening. Patch-direct mode
	// rewrites color tables wholesale, candidate narrowing does not apply
	// there.
	var candidates *cache.CandidateSet
	if pc.ScanCache.Enable && !pc.PatchDirect {
		ix, err := cache.LoadOrRefresh(cacheDir(pc), path, rescan, func(p string) ([]*uss.StyleAsset, error) {
			return bundle.Scan(p, log)
		}, log)
		if err != nil {
			log.Warn("Scan cache unavailable, examining all assets", zap.String("bundle", base), zap.Error(err))
		} else {
			vars, keys := src.Requested()
			candidates = ix.Candidates(vars, keys)
		}
	}
	candidates = candidates.Intersect(hints.AssetSet())
	if candidates != nil && candidates.Len() == 0 {
		log.Info("No assets can match overrides, skipping bundle", zap.String("bundle", base))
		return nil, nil
	}

	if pc.Backup && !pc.DryRun {
		if bak, err := bundle.Backup(path, pc.BackupSuffix); err != nil {
			log.Warn("Unable to back up bundle", zap.String("bundle", base), zap.Error(err))
		} else {
			log.Debug("Bundle backed up", zap.String("bundle", base), zap.String("backup", bak))
		}
	}

	b, err := bundle.Open(path, log)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	styles := b.Styles()
	models := make([]*uss.StyleAsset, 0, len(styles))
	byName := make(map[string]*bundle.Asset, len(styles))
	for _, a := range styles {
		m, err := a.Read()
		if err != nil {
			log.Warn("Skipping undecodable style asset",
				zap.String("bundle", base), zap.String("asset", a.Name), zap.Error(err))
			continue
		}
		models = append(models, m)
		byName[strings.ToLower(m.Name)] = a
	}

	opts := patch.Options{
		PatchDirect:         pc.PatchDirect,
		DryRun:              pc.DryRun,
		PrimaryVariableSink: pc.PrimaryVariableSink,
		PrimarySelectorSink: pc.PrimarySelectorSink,
	}
	if pc.DebugExport {
		opts.DebugDir = filepath.Join(pc.OutputDir, "debug", stem(base))
	}

	rep := patch.NewEngine(src, hints, opts, log).PatchCandidates(base, models, candidates.Names())

	for _, name := range rep.AssetsModified {
		if a, ok := byName[strings.ToLower(name)]; ok {
			a.MarkModified()
		}
	}

	if rep.HasChanges() && !pc.DryRun {
		outPath := filepath.Join(pc.OutputDir, base)
		if err := b.WriteTo(outPath); err != nil {
			return rep, fmt.Errorf("%w (%s): %v", errSave, outPath, err)
		}
		rep.MarkSaved(outPath)
	}

	log.Info("Bundle completed",
		zap.String("bundle", base),
		zap.Int("stylesheets", rep.StylesheetsFound),
		zap.Int("modified", len(rep.AssetsModified)),
		zap.Int("variables_patched", rep.VariablesPatched),
		zap.Int("direct_patched", rep.DirectPatched),
		zap.Int("conflicts", len(rep.Conflicts)))
	return rep, nil
}

// cacheDir resolves the scan cache location, defaulting to a dot directory
// under the skin so the cache travels with the overrides it was built for.
func cacheDir(pc *config.PatchConfig) string {
	if pc.ScanCache.Directory != "" {
		return pc.ScanCache.Directory
	}
	return filepath.Join(pc.SkinDir, ".scancache")
}

// discoverBundles resolves the patch target to a list of bundle files: the
// file itself, or every *.bundle directly inside a directory.
func discoverBundles(target string) ([]string, error) {
	fi, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("unable to access bundle target (%s): %w", target, err)
	}

	if fi.Mode().IsRegular() {
		return []string{target}, nil
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("unexpected path mode for (%s)", target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, fmt.Errorf("unable to read bundle directory (%s): %w", target, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".bundle") {
			continue
		}
		out = append(out, filepath.Join(target, e.Name()))
	}
	return out, nil
}

// orderBundles sorts bundles into a stable patching order: sprite atlas
// containers first, then other atlases, then everything else. Bundles are
// independent, the order only keeps logs and reports deterministic. Within
// a tier names compare naturally, "bundle2" before "bundle10".
func orderBundles(paths []string) {
	tier := func(p string) int {
		name := strings.ToLower(filepath.Base(p))
		switch {
		case strings.Contains(name, "spriteatlas"):
			return 0
		case strings.Contains(name, "atlas"):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(paths, func(i, j int) bool {
		if ti, tj := tier(paths[i]), tier(paths[j]); ti != tj {
			return ti < tj
		}
		return natural.Less(paths[i], paths[j])
	})
}

// stem strips the extension off a bundle file name.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
