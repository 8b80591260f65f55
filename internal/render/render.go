// Package render turns page descriptors into HTML documents.
//
// Pages are Go html/template files parsed together with the shared
// templates directory, or Markdown files wrapped in a shared layout.
// Rendering happens in memory; Finish injects the bundle tags, resolves
// the sprite placeholder and minifies once the bundle names are known.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/frontmatter"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/pages"
)

// DefaultLayout is the shared template Markdown pages use when their
// front matter names none.
const DefaultLayout = "layout.html"

// Options configures a Renderer.
type Options struct {
	FS           afero.Fs
	Pipeline     *assets.Pipeline
	TemplatesDir string
	SpriteDirs   []string
	PublicPath   string
	Site         config.SiteConfig
	Mode         config.Mode
	Logger       *slog.Logger
}

// PageInfo is what templates see about a page.
type PageInfo struct {
	Name        string
	Title       string
	Description string
	URL         string
	Params      map[string]any
}

// Data is the template context of one page.
type Data struct {
	Site    config.SiteConfig
	Mode    string
	Page    PageInfo
	Pages   []PageInfo
	Content template.HTML
}

// Page is a rendered document waiting for Finish.
type Page struct {
	Descriptor pages.Descriptor
	Source     string
	Title      string
	HTML       []byte
}

// Renderer renders the pages of one build.
type Renderer struct {
	opts   Options
	shared *template.Template
	caser  cases.Caser
	md     *markdownRenderer
}

// New parses the shared templates. A missing templates directory is
// allowed; pages then cannot use layouts or partials.
func New(opts Options) (*Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Renderer{
		opts:  opts,
		caser: cases.Title(language.English),
	}
	r.md = newMarkdownRenderer(opts.Pipeline)
	shared, err := r.parseShared()
	if err != nil {
		return nil, err
	}
	r.shared = shared
	return r, nil
}

func (r *Renderer) parseShared() (*template.Template, error) {
	root := template.New("").Funcs(r.funcs(nil, ""))
	dir := r.opts.TemplatesDir
	if ok, _ := afero.DirExists(r.opts.FS, dir); !ok || dir == "" {
		return root, nil
	}
	err := afero.Walk(r.opts.FS, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isTemplateFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		src, err := afero.ReadFile(r.opts.FS, path)
		if err != nil {
			return err
		}
		if _, err := root.New(filepath.ToSlash(rel)).Parse(string(src)); err != nil {
			return errors.WrapError(err, errors.CategoryTemplate, "parse shared template").
				Fatal().UserAction().WithPath(path).Build()
		}
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read shared templates").WithPath(dir).Build()
	}
	return root, nil
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".tmpl", ".gohtml":
		return true
	}
	return false
}

// DefaultTitle derives a title from a page name: "about-us" -> "About Us".
func (r *Renderer) DefaultTitle(name string) string {
	return r.caser.String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
}

// Infos returns the template view of every descriptor without rendering.
func (r *Renderer) Infos(descs []pages.Descriptor) []PageInfo {
	out := make([]PageInfo, len(descs))
	for i, d := range descs {
		out[i] = PageInfo{
			Name:  d.Name,
			Title: r.DefaultTitle(d.Name),
			URL:   assets.JoinURL(r.opts.PublicPath, d.OutputFile),
		}
	}
	return out
}

// RenderAll renders every descriptor in order.
func (r *Renderer) RenderAll(ctx context.Context, descs []pages.Descriptor) ([]Page, error) {
	all := r.Infos(descs)
	out := make([]Page, 0, len(descs))
	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := r.Render(d, all)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Render renders one page. all is the list exposed as .Pages.
func (r *Renderer) Render(d pages.Descriptor, all []PageInfo) (Page, error) {
	source, err := d.Source(r.opts.FS)
	if err != nil {
		return Page{}, err
	}
	raw, err := afero.ReadFile(r.opts.FS, source)
	if err != nil {
		return Page{}, errors.WrapError(err, errors.CategoryFileSystem, "read page template").WithPath(source).Build()
	}
	meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return Page{}, errors.WrapError(err, errors.CategoryTemplate, "invalid front matter").
			Fatal().UserAction().WithPath(source).WithContext("page", d.Name).Build()
	}

	info := PageInfo{
		Name:        d.Name,
		Title:       meta.Title,
		Description: meta.Description,
		URL:         assets.JoinURL(r.opts.PublicPath, d.OutputFile),
		Params:      meta.Params,
	}
	if info.Title == "" {
		info.Title = r.DefaultTitle(d.Name)
	}
	data := Data{Site: r.opts.Site, Mode: string(r.opts.Mode), Page: info, Pages: all}

	tmpl, err := r.shared.Clone()
	if err != nil {
		return Page{}, errors.WrapError(err, errors.CategoryInternal, "clone shared templates").Build()
	}
	tmpl = tmpl.Funcs(r.funcs(all, filepath.Dir(source)))

	var entry string
	if strings.EqualFold(filepath.Ext(source), ".md") {
		content, err := r.md.render(body, filepath.Dir(source))
		if err != nil {
			return Page{}, errors.WrapError(err, errors.CategoryTemplate, "render markdown").
				Fatal().UserAction().WithPath(source).Build()
		}
		data.Content = template.HTML(content)
		entry = meta.Layout
		if entry == "" {
			entry = DefaultLayout
		}
		if tmpl.Lookup(entry) == nil {
			return Page{}, errors.TemplateError(fmt.Sprintf("layout %q not found in shared templates", entry)).
				WithPath(source).WithContext("page", d.Name).Build()
		}
	} else {
		entry = "page:" + d.Name
		if _, err := tmpl.New(entry).Parse(string(body)); err != nil {
			return Page{}, errors.WrapError(err, errors.CategoryTemplate, "parse page template").
				Fatal().UserAction().WithPath(source).Build()
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		return Page{}, errors.WrapError(err, errors.CategoryTemplate, "execute page template").
			Fatal().UserAction().WithPath(source).WithContext("page", d.Name).Build()
	}

	r.opts.Logger.Debug("Page rendered", logfields.Page(d.Name), logfields.File(source))
	return Page{Descriptor: d, Source: source, Title: info.Title, HTML: buf.Bytes()}, nil
}
