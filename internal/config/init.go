package config

import (
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

const exampleConfig = `# sitepack site configuration
mode: development

site:
  title: ${SITE_TITLE}
  lang: en

paths:
  pages: src/pages
  templates: src/common/templates
  template_ext: html

pages:
  selection: pages.yaml
  validate: true

output:
  directory: dist
  public_path: /

assets:
  inline_limit: 8192

sprite:
  include:
    - src/assets/svg

dev_server:
  port: 3000
  live_reload: true
  watch_ignore:
    - node_modules

performance:
  hints: warning
  max_entrypoint_size: 512000
  max_asset_size: 512000

static:
  - from: src/assets/favicons
    to: assets/favicons
`

const exampleSelection = `# Leave pages empty to build every folder under src/pages.
pages: []
exclude: []
`

// Init writes an example site.yaml and pages.yaml. Existing files are only
// replaced when force is set.
func Init(fsys afero.Fs, configPath, selectionPath string, force bool) error {
	files := []struct {
		path string
		body string
	}{
		{configPath, exampleConfig},
		{selectionPath, exampleSelection},
	}
	for _, f := range files {
		if exists, _ := afero.Exists(fsys, f.path); exists && !force {
			return errors.ValidationError("file already exists (use --force to overwrite)").WithPath(f.path).Build()
		}
	}
	for _, f := range files {
		if err := afero.WriteFile(fsys, f.path, []byte(f.body), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write example configuration").WithPath(f.path).Build()
		}
	}
	return nil
}
