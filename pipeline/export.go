package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"restyle/bundle"
	"restyle/config"
	"restyle/state"
	"restyle/uss"
)

// Export implements the export command: decode every style asset of one
// bundle and write it out as readable USS text, one file per asset. With
// --tree an additional structural dump per asset shows tables and slot
// indices, which is what you want when a patch lands in the wrong place.
func Export(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pipeline")

	target := cmd.Args().Get(0)
	if len(target) == 0 {
		return errors.New("no bundle has been specified")
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	log.Info("Export starting", zap.String("bundle", target), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Export completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return exportBundle(target, dst, cmd.Bool("tree"), env.Rpt, log)
}

// exportBundle handles the core export logic independently of the CLI
// framework. Assets come out in natural name order, one file per asset.
func exportBundle(target, dst string, withTree bool, rpt *config.Report, log *zap.Logger) error {
	models, err := bundle.Scan(target, log)
	if err != nil {
		return fmt.Errorf("unable to scan bundle (%s): %w", target, err)
	}
	if len(models) == 0 {
		log.Warn("No style assets in bundle", zap.String("bundle", target))
		return nil
	}
	sort.SliceStable(models, func(i, j int) bool {
		return natural.Less(models[i].Name, models[j].Name)
	})

	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	for _, m := range models {
		name := slug.Make(m.Name)
		if name == "" {
			name = "asset"
		}

		path := filepath.Join(dst, name+".uss")
		if err := exportAsset(path, m, uss.WriteUSS); err != nil {
			return err
		}
		if rpt != nil {
			rpt.Store("export-"+name+".uss", path)
		}

		if withTree {
			treePath := filepath.Join(dst, name+".tree.txt")
			if err := exportAsset(treePath, m, uss.DumpTree); err != nil {
				return err
			}
		}
		log.Info("Asset exported", zap.String("asset", m.Name), zap.String("file", path))
	}
	return nil
}

func exportAsset(path string, m *uss.StyleAsset, write func(w io.Writer, a *uss.StyleAsset)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create export file (%s): %w", path, err)
	}
	write(f, m)
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize export file (%s): %w", path, err)
	}
	return nil
}
