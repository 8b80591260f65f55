// Package imagemin recompresses raster images in a build output.
//
// Only PNG files are rewritten, losslessly and only when the result is
// smaller. JPEG and GIF files are left as they are.
package imagemin

import (
	"bytes"
	"context"
	"image/png"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Stats summarises one optimisation pass.
type Stats struct {
	Scanned   int
	Optimized int
	Saved     int64
}

// Optimize walks dir and re-encodes every PNG with best compression.
func Optimize(ctx context.Context, fsys afero.Fs, dir string) (Stats, error) {
	var stats Stats
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".png") {
			return nil
		}
		stats.Scanned++
		saved, err := optimizePNG(fsys, path, info)
		if err != nil {
			return err
		}
		if saved > 0 {
			stats.Optimized++
			stats.Saved += saved
		}
		return nil
	})
	return stats, err
}

func optimizePNG(fsys afero.Fs, path string, info fs.FileInfo) (int64, error) {
	original, err := afero.ReadFile(fsys, path)
	if err != nil {
		return 0, err
	}
	img, err := png.Decode(bytes.NewReader(original))
	if err != nil {
		// Not a decodable PNG; leave it for the browser to reject.
		return 0, nil
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return 0, err
	}
	if buf.Len() >= len(original) {
		return 0, nil
	}
	if err := afero.WriteFile(fsys, path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return int64(len(original) - buf.Len()), nil
}
