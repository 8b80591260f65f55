package build

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/imagemin"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/workspace"
)

// stageCopyStatic copies static directories verbatim. Missing sources
// are warnings.
func stageCopyStatic(_ context.Context, bs *buildState) error {
	var missing []string
	for _, sc := range bs.desc.Static {
		from := bs.cfg.Abs(sc.From)
		if ok, _ := afero.DirExists(bs.source, from); !ok {
			missing = append(missing, sc.From)
			continue
		}
		if err := workspace.CopyTree(bs.source, from, bs.out, sc.To); err != nil {
			return err
		}
		bs.logger.Debug("Static directory copied", logfields.Path(from), logfields.Output(sc.To))
	}
	if len(missing) > 0 {
		return errors.NotFoundError("static directory not found: " + strings.Join(missing, ", ")).
			Warning().Build()
	}
	return nil
}

func stageOptimizeImages(ctx context.Context, bs *buildState) error {
	stats, err := imagemin.Optimize(ctx, bs.out, ".")
	if err != nil {
		return err
	}
	bs.report.ImagesSaved = stats.Saved
	bs.logger.Info("Images optimized",
		logfields.Count(stats.Optimized), slog.Int("scanned", stats.Scanned), logfields.Size(stats.Saved))
	return nil
}

// stageCheckPerformance compares emitted sizes with the budgets. Sizes are
// read back from the output so image recompression is accounted for.
func stageCheckPerformance(_ context.Context, bs *buildState) error {
	perf := bs.desc.Performance
	var over []string
	var entry int64
	for _, f := range bs.files {
		if strings.HasSuffix(f.Name, ".map") {
			continue
		}
		size := f.Size
		if info, err := bs.out.Stat(f.Name); err == nil {
			size = info.Size()
		}
		if f.Entry {
			entry += size
		}
		if perf.MaxAssetSize > 0 && size > perf.MaxAssetSize {
			over = append(over, fmt.Sprintf("asset %s is %d bytes (limit %d)", f.Name, size, perf.MaxAssetSize))
		}
	}
	if perf.MaxEntrypointSize > 0 && entry > perf.MaxEntrypointSize {
		over = append(over, fmt.Sprintf("entrypoint %s is %d bytes (limit %d)", bs.desc.Entry.Name, entry, perf.MaxEntrypointSize))
	}
	if len(over) == 0 {
		return nil
	}
	b := errors.BuildError("performance budget exceeded: "+strings.Join(over, "; ")).
		WithContext("hints", perf.Hints)
	if perf.Hints != config.HintsError {
		b = b.Warning()
	}
	return b.Build()
}

func stagePublish(_ context.Context, bs *buildState) error {
	return bs.staging.Promote()
}
