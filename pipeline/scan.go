package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"restyle/bundle"
	"restyle/cache"
	"restyle/state"
	"restyle/uss"
)

// Scan implements the scan command: rebuild the cache index of every
// discovered bundle regardless of fingerprints, reporting what each one
// contains. Useful after a game update to see what moved before patching.
func Scan(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pipeline")

	pc := &env.Cfg.Patch
	if cmd.IsSet("skin") {
		pc.SkinDir = cmd.String("skin")
	}

	target := cmd.Args().Get(0)
	if len(target) == 0 {
		target = pc.BundlesDir
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	bundles, err := discoverBundles(target)
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		log.Warn("No bundles to scan", zap.String("target", target))
		return nil
	}
	orderBundles(bundles)

	log.Info("Scanning starting", zap.String("target", target), zap.Int("bundles", len(bundles)))
	defer func(start time.Time) {
		log.Info("Scanning completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	dir := cacheDir(pc)
	failures := 0
	var failed error
	for _, path := range bundles {
		if err := ctx.Err(); err != nil {
			return err
		}

		ix, err := cache.LoadOrRefresh(dir, path, true, func(p string) ([]*uss.StyleAsset, error) {
			return bundle.Scan(p, log)
		}, log)
		if err != nil {
			failures++
			failed = multierr.Append(failed, err)
			log.Error("Unable to scan bundle", zap.String("bundle", filepath.Base(path)), zap.Error(err))
			continue
		}

		log.Info("Bundle indexed",
			zap.String("bundle", filepath.Base(path)),
			zap.Int("stylesheets", len(ix.Assets)),
			zap.Int("variables", len(ix.VarMap)),
			zap.Int("selectors", len(ix.SelectorMap)),
			zap.Int("conflicts", len(ix.Conflicts)))
	}

	if failures == len(bundles) {
		return fmt.Errorf("unable to scan any bundle: %w", failed)
	}
	if failures > 0 {
		log.Warn("Some bundles could not be scanned", zap.Int("failures", failures))
	}
	return nil
}
