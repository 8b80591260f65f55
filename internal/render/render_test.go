package render

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/minify"
	"git.home.luguber.info/inful/sitepack/internal/pages"
	"git.home.luguber.info/inful/sitepack/internal/sprite"
)

var (
	srcRoot   = filepath.Join("/site", "src")
	pagesRoot = filepath.Join(srcRoot, "pages")
	images    = filepath.Join(srcRoot, "assets", "images")
	icons     = filepath.Join(srcRoot, "assets", "svg")
	templates = filepath.Join(srcRoot, "templates")
)

type fixture struct {
	fs     afero.Fs
	sheet  *sprite.Sheet
	render *Renderer
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	table, err := assets.NewTable(assets.DefaultRules(filepath.Join(srcRoot, "assets", "fonts"), 64, 7))
	require.NoError(t, err)
	sheet := sprite.New()
	p := assets.NewPipeline(assets.Options{
		Source:     fs,
		Output:     afero.NewMemMapFs(),
		Table:      table,
		Aliases:    assets.Aliases{"~images": images},
		PublicPath: "/",
		Sprite:     sheet,
	})
	r, err := New(Options{
		FS:           fs,
		Pipeline:     p,
		TemplatesDir: templates,
		SpriteDirs:   []string{icons},
		PublicPath:   "/",
		Site:         config.SiteConfig{Title: "Acme", Lang: "en"},
		Mode:         config.ModeDevelopment,
	})
	require.NoError(t, err)
	return fixture{fs: fs, sheet: sheet, render: r}
}

func TestRender_HTMLPage(t *testing.T) {
	f := newFixture(t, map[string]string{
		filepath.Join(templates, "partials", "head.html"): `{{define "head"}}<title>{{.Page.Title}} | {{.Site.Title}}</title>{{end}}`,
		filepath.Join(pagesRoot, "about-us", "about-us.html"): `<html><head>{{template "head" .}}</head><body>` +
			`<img src="{{asset "~images/dot.png"}}">{{icon "star"}}<a href="{{page "about-us"}}">self</a>` +
			`{{range pages}}<i>{{.Name}}</i>{{end}}</body></html>`,
		filepath.Join(images, "dot.png"): "png",
		filepath.Join(icons, "star.svg"):  `<svg viewBox="0 0 10 10"><path d="M0 0"/></svg>`,
	})
	descs := pages.GenerateEntries(pagesRoot, "html", []string{"about-us"})

	out, err := f.render.RenderAll(context.Background(), descs)
	require.NoError(t, err)
	require.Len(t, out, 1)

	html := string(out[0].HTML)
	assert.Equal(t, "About Us", out[0].Title)
	assert.Contains(t, html, "<title>About Us | Acme</title>")
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, `<use href="`+assets.SpritePlaceholder+`#star">`)
	assert.Contains(t, html, `href="/about-us.html"`)
	assert.Contains(t, html, "<i>about-us</i>")
	assert.Equal(t, 1, f.sheet.Len())
}

func TestRender_MarkdownPage(t *testing.T) {
	f := newFixture(t, map[string]string{
		filepath.Join(templates, "layout.html"): `<main>{{.Content}}</main>`,
		filepath.Join(templates, "post.html"):   `<article data-desc="{{.Page.Description}}">{{.Content}}</article>`,
		filepath.Join(pagesRoot, "news", "news.md"): "---\ntitle: Latest\nlayout: post.html\ndescription: d\n---\n" +
			"# Hello\n\n![dot](../../assets/images/dot.png)\n",
		filepath.Join(pagesRoot, "faq", "faq.md"): "Plain *text*\n",
		filepath.Join(images, "dot.png"):          "png",
	})
	descs := pages.GenerateEntries(pagesRoot, "html", []string{"news", "faq"})

	out, err := f.render.RenderAll(context.Background(), descs)
	require.NoError(t, err)

	news := string(out[0].HTML)
	assert.Equal(t, "Latest", out[0].Title)
	assert.True(t, strings.HasPrefix(news, `<article data-desc="d">`))
	assert.Contains(t, news, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, news, `src="data:image/png;base64,`)

	assert.Equal(t, "<main><p>Plain <em>text</em></p>\n</main>", string(out[1].HTML))
}

func TestRender_Errors(t *testing.T) {
	t.Run("missing template", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.render.RenderAll(context.Background(), pages.GenerateEntries(pagesRoot, "html", []string{"gone"}))
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("missing layout", func(t *testing.T) {
		f := newFixture(t, map[string]string{filepath.Join(pagesRoot, "a", "a.md"): "# a"})
		_, err := f.render.RenderAll(context.Background(), pages.GenerateEntries(pagesRoot, "html", []string{"a"}))
		require.Error(t, err)
		assert.Equal(t, errors.CategoryTemplate, errors.GetCategory(err))
	})

	t.Run("unknown page link", func(t *testing.T) {
		f := newFixture(t, map[string]string{filepath.Join(pagesRoot, "a", "a.html"): `{{page "b"}}`})
		_, err := f.render.RenderAll(context.Background(), pages.GenerateEntries(pagesRoot, "html", []string{"a"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `page "b" is not part of this build`)
	})

	t.Run("missing asset", func(t *testing.T) {
		f := newFixture(t, map[string]string{filepath.Join(pagesRoot, "a", "a.html"): `{{asset "~images/nope.png"}}`})
		_, err := f.render.RenderAll(context.Background(), pages.GenerateEntries(pagesRoot, "html", []string{"a"}))
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t, map[string]string{filepath.Join(pagesRoot, "a", "a.html"): `x`})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.render.RenderAll(ctx, pages.GenerateEntries(pagesRoot, "html", []string{"a"}))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFinish(t *testing.T) {
	page := Page{
		Descriptor: pages.GenerateEntries(pagesRoot, "html", []string{"home"})[0],
		HTML: []byte("<!DOCTYPE html><html><head><title>x</title></head><body>\n  <!-- note -->\n  " +
			`<svg><use href="` + assets.SpritePlaceholder + `#star"></use></svg></body></html>`),
	}

	t.Run("inject and minify", func(t *testing.T) {
		out, err := Finish(page, FinishOptions{
			StyleURL:  "/css/bundle.abc.css",
			ScriptURL: "/js/bundle.abc.js",
			SpriteURL: "/assets/images/sprite.123.svg",
			Minifier:  minify.New(),
		})
		require.NoError(t, err)
		s := string(out)
		require.Contains(t, s, `href="/css/bundle.abc.css"`)
		assert.Less(t, strings.Index(s, `href="/css/bundle.abc.css"`), strings.Index(s, "</head>"))
		assert.Less(t, strings.Index(s, "<title>"), strings.Index(s, `href="/css/bundle.abc.css"`))
		assert.Contains(t, s, `src="/js/bundle.abc.js"></script></body>`)
		assert.Contains(t, s, "/assets/images/sprite.123.svg#star")
		assert.NotContains(t, s, assets.SpritePlaceholder)
		assert.NotContains(t, s, "note")
	})

	t.Run("no inject", func(t *testing.T) {
		p := page
		p.Descriptor.Inject = false
		out, err := Finish(p, FinishOptions{StyleURL: "/css/a.css", ScriptURL: "/js/a.js", SpriteURL: "/s.svg"})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "/css/a.css")
		assert.Contains(t, string(out), "<!-- note -->")
	})

	t.Run("live reload without inject", func(t *testing.T) {
		p := page
		p.Descriptor.Inject = false
		out, err := Finish(p, FinishOptions{ScriptURL: "/js/a.js", LiveReload: true})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "/js/a.js")
		assert.Contains(t, string(out), `<script src="/livereload.js"></script></body>`)
	})
}

func TestInject_Fragment(t *testing.T) {
	out, err := Inject([]byte("<p>hi</p>"), FinishOptions{StyleURL: "/a.css", ScriptURL: "/a.js"})
	require.NoError(t, err)
	assert.Equal(t,
		`<html><head><link rel="stylesheet" href="/a.css"/></head><body><p>hi</p><script defer="" src="/a.js"></script></body></html>`,
		string(out))
}

func TestDefaultTitle(t *testing.T) {
	r := &Renderer{}
	r.caser = newFixture(t, nil).render.caser
	assert.Equal(t, "Contact Us Now", r.DefaultTitle("contact-us_now"))
}
