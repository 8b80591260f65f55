package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Project directory"`
	Title string `name:"title" default:"My Site" help:"Site title written to .env"`
	Force bool   `help:"Overwrite existing files"`
}

type scaffoldFile struct {
	path string
	body string
}

var scaffold = []scaffoldFile{
	{"src/app.js", "import './app.css';\nimport '~pages/index/index.js';\n"},
	{"src/app.css", "body {\n  margin: 0;\n  font-family: system-ui, sans-serif;\n}\n"},
	{"src/pages/index/index.js", "document.documentElement.classList.add('js');\n"},
	{"src/pages/index/index.html", `<!DOCTYPE html>
<html lang="{{.Site.Lang}}">
<head>
  <meta charset="utf-8">
  <title>{{.Page.Title}} | {{.Site.Title}}</title>
</head>
<body>
  <h1>{{.Site.Title}}</h1>
  <ul>
  {{range .Pages}}<li><a href="{{.URL}}">{{.Title}}</a></li>
  {{end}}</ul>
</body>
</html>
`},
	{"src/pages/about/about.md", "---\ntitle: About\n---\n# About\n\nWritten in Markdown.\n"},
	{"src/common/templates/layout.html", `<!DOCTYPE html>
<html lang="{{.Site.Lang}}">
<head>
  <meta charset="utf-8">
  <title>{{.Page.Title}} | {{.Site.Title}}</title>
</head>
<body>
  <main>{{.Content}}</main>
</body>
</html>
`},
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	_, _ = fmt.Fprintln(g.Stdout, "Initializing sitepack project")
	if err := RunInit(g.Fs, i.Dir, i.Title, i.Force); err != nil {
		_, _ = fmt.Fprintln(g.Stdout, "Initialization failed")
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "initialized successfully in %s\n", i.Dir)
	return nil
}

// RunInit writes the example configuration, the page selection file, a
// .env with the site title and a minimal source tree into dir.
func RunInit(fsys afero.Fs, dir, title string, force bool) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create project directory").WithPath(dir).Build()
	}
	if err := config.Init(fsys,
		filepath.Join(dir, config.DefaultSiteFile),
		filepath.Join(dir, config.DefaultSelectionFile), force); err != nil {
		return err
	}

	files := append([]scaffoldFile{{".env", fmt.Sprintf("SITE_TITLE=%q\n", title)}}, scaffold...)
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.path))
		if exists, _ := afero.Exists(fsys, path); exists && !force {
			continue
		}
		if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithPath(path).Build()
		}
		if err := afero.WriteFile(fsys, path, []byte(f.body), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write scaffold file").WithPath(path).Build()
		}
	}
	return nil
}
