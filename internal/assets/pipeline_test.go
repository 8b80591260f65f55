package assets

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

type fakeSink struct{ ids []string }

func (f *fakeSink) AddSymbol(id string, _ []byte) (string, error) {
	f.ids = append(f.ids, id)
	return "0 0 24 24", nil
}

func newTestPipeline(t *testing.T) (*Pipeline, afero.Fs, afero.Fs, *fakeSink) {
	t.Helper()
	src := afero.NewMemMapFs()
	out := afero.NewMemMapFs()
	root := filepath.Join("/site", "src")
	table, err := NewTable(DefaultRules(filepath.Join(root, "assets", "fonts"), 8, 7))
	require.NoError(t, err)
	sink := &fakeSink{}
	p := NewPipeline(Options{
		Source:     src,
		Output:     out,
		Table:      table,
		Aliases:    Aliases{"~images": filepath.Join(root, "assets", "images"), "~fonts": filepath.Join(root, "assets", "fonts")},
		PublicPath: "/",
		Sprite:     sink,
	})
	return p, src, out, sink
}

func TestPipeline_Emit(t *testing.T) {
	p, src, out, sink := newTestPipeline(t)
	images := filepath.Join("/site", "src", "assets", "images")
	big := []byte("0123456789")
	require.NoError(t, afero.WriteFile(src, filepath.Join(images, "hero.png"), big, 0o644))
	require.NoError(t, afero.WriteFile(src, filepath.Join(images, "dot.gif"), []byte{1}, 0o644))
	require.NoError(t, afero.WriteFile(src, filepath.Join(images, "arrow.svg"), []byte(`<svg viewBox="0 0 24 24"/>`), 0o644))
	require.NoError(t, afero.WriteFile(src, filepath.Join("/site", "src", "assets", "fonts", "r", "a.woff"), []byte("w"), 0o644))

	hero, err := p.Emit("~images/hero.png", "/ignored")
	require.NoError(t, err)
	name := fmt.Sprintf("assets/images/hero.%s.png", ContentHash(big)[:7])
	assert.Equal(t, "/"+name, hero.URL)
	assert.Equal(t, CopyFile, hero.Strategy)
	written, err := afero.ReadFile(out, filepath.FromSlash(name))
	require.NoError(t, err)
	assert.Equal(t, big, written)

	dot, err := p.Emit("./dot.gif", images)
	require.NoError(t, err)
	assert.Equal(t, "data:image/gif;base64,AQ==", dot.URL)

	icon, err := p.Emit("~images/arrow.svg?sprite", "")
	require.NoError(t, err)
	assert.Equal(t, SpritePlaceholder+"#arrow", icon.URL)
	assert.Equal(t, "0 0 24 24", icon.ViewBox)

	inline, err := p.Emit("~images/arrow.svg?inline", "")
	require.NoError(t, err)
	assert.Equal(t, InlineData, inline.Strategy)

	font, err := p.Emit("~fonts/r/a.woff", "")
	require.NoError(t, err)
	assert.Equal(t, "/assets/fonts/r/a.woff", font.URL)

	// Memoised: the sink sees each sprite only once.
	_, err = p.Emit("~images/arrow.svg?sprite", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"arrow"}, sink.ids)

	emitted := p.Emitted()
	require.Len(t, emitted, 2)
	assert.Equal(t, "assets/fonts/r/a.woff", emitted[0].Output)
	assert.Equal(t, 2, p.Inlined())
}

func TestPipeline_MissingAsset(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	_, err := p.Emit("~images/none.png", "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
