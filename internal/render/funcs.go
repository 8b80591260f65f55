package render

import (
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/assets"
)

// funcs builds the template helpers for a page whose source lives in dir.
// The set is registered once with nil arguments so templates parse.
func (r *Renderer) funcs(all []PageInfo, dir string) template.FuncMap {
	return template.FuncMap{
		"asset": func(ref string) (template.URL, error) {
			res, err := r.opts.Pipeline.Emit(ref, dir)
			if err != nil {
				return "", err
			}
			return template.URL(res.URL), nil
		},
		"icon": func(name string, class ...string) (template.HTML, error) {
			id, err := r.icon(name)
			if err != nil {
				return "", err
			}
			cls := "icon icon-" + id
			if len(class) > 0 {
				cls = class[0]
			}
			return template.HTML(fmt.Sprintf(`<svg class="%s" aria-hidden="true"><use href="%s#%s"></use></svg>`,
				template.HTMLEscapeString(cls), assets.SpritePlaceholder, template.HTMLEscapeString(id))), nil
		},
		"sprite": func() template.URL {
			return template.URL(assets.SpritePlaceholder)
		},
		"page": func(name string) (template.URL, error) {
			for _, p := range all {
				if p.Name == name {
					return template.URL(p.URL), nil
				}
			}
			return "", fmt.Errorf("page %q is not part of this build", name)
		},
		"pages": func() []PageInfo {
			return all
		},
	}
}

// icon finds name.svg in the sprite directories and adds it to the sheet.
func (r *Renderer) icon(name string) (string, error) {
	for _, dir := range r.opts.SpriteDirs {
		path := filepath.Join(dir, name+".svg")
		if ok, _ := afero.Exists(r.opts.FS, path); !ok {
			continue
		}
		res, err := r.opts.Pipeline.EmitPath(assets.Reference{Path: path, Hint: assets.HintSprite}, path)
		if err != nil {
			return "", err
		}
		return res.SymbolID, nil
	}
	return "", fmt.Errorf("icon %q not found in %v", name, r.opts.SpriteDirs)
}
