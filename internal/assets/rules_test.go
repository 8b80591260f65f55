package assets

import (
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

var fontsDir = filepath.Join("/site", "src", "assets", "fonts")

func newDefaultTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(DefaultRules(fontsDir, 8192, 7))
	require.NoError(t, err)
	return table
}

func TestTable_Resolve(t *testing.T) {
	table := newDefaultTable(t)
	images := filepath.Join("/site", "src", "assets", "images")
	svgDir := filepath.Join("/site", "src", "assets", "svg")

	tests := []struct {
		name     string
		ref      string
		path     string
		size     int64
		rule     string
		strategy Strategy
		output   string
	}{
		{"small raster inlines", "a.png", filepath.Join(images, "a.png"), 8192, "images", InlineData, ""},
		{"large raster copies", "a.png", filepath.Join(images, "a.png"), 8193, "images", CopyFile, "assets/images/[name].[contenthash:7].[ext]"},
		{"raster ignores sprite hint", "a.JPG?sprite", filepath.Join(images, "a.JPG"), 10, "images", InlineData, ""},
		{"svg inline", "i.svg?inline", filepath.Join(svgDir, "i.svg"), 10, "svg", InlineData, ""},
		{"svg sprite", "i.svg?sprite", filepath.Join(svgDir, "i.svg"), 10, "svg", SpriteSymbol, ""},
		{"svg image", "i.svg?image", filepath.Join(svgDir, "i.svg"), 10, "svg", CopyFile, "assets/images/[name].[contenthash:7].[ext]"},
		{"svg default copies", "i.svg", filepath.Join(svgDir, "i.svg"), 10, "svg", CopyFile, "assets/images/[name].[contenthash:7].[ext]"},
		{"svg unknown query copies", "i.svg?v=2", filepath.Join(svgDir, "i.svg"), 10, "svg", CopyFile, "assets/images/[name].[contenthash:7].[ext]"},
		{"svg font", "f.svg?sprite", filepath.Join(fontsDir, "f.svg"), 10, "fonts", CopyFile, "assets/fonts/[path][name].[ext]"},
		{"media", "clip.mp4", "/site/src/assets/media/clip.mp4", 1 << 20, "media", CopyFile, "assets/media/[name].[contenthash:7].[ext]"},
		{"woff2 in fonts dir", "r.woff2", filepath.Join(fontsDir, "roboto", "r.woff2"), 10, "fonts", CopyFile, "assets/fonts/[path][name].[ext]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := table.Resolve(ParseReference(tt.ref), tt.path, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.strategy, d.Strategy)
			assert.Equal(t, tt.output, d.OutputName)
		})
	}
}

func TestTable_ResolveFontRelPath(t *testing.T) {
	d, err := newDefaultTable(t).Resolve(Reference{}, filepath.Join(fontsDir, "roboto", "r.woff2"), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("roboto", "r.woff2"), d.RelPath)
}

func TestTable_NoRule(t *testing.T) {
	table := newDefaultTable(t)

	_, err := table.Resolve(Reference{Path: "x.txt"}, "/site/x.txt", 1)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrNoRule))

	// Font extensions outside the fonts dir match nothing.
	_, err = table.Resolve(Reference{Path: "x.woff"}, "/site/src/x.woff", 1)
	assert.True(t, stderrors.Is(err, ErrNoRule))
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable([]Rule{{Name: "bad", Match: "*.[a-", Branches: []Branch{{}}}})
	require.Error(t, err)
	assert.Equal(t, "rules.bad", errors.FieldOf(err))

	_, err = NewTable([]Rule{{Name: "empty", Match: "*.png"}})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestTable_HintWithoutFallback(t *testing.T) {
	table, err := NewTable([]Rule{{
		Name:     "sprites-only",
		Match:    "*.svg",
		Branches: []Branch{{Hint: HintSprite, Strategy: SpriteSymbol}},
	}})
	require.NoError(t, err)

	_, err = table.Resolve(Reference{Hint: HintInline}, "/x/a.svg", 1)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryAsset, errors.GetCategory(err))
}
