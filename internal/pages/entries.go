package pages

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// Minify holds the HTML minification options of one page.
type Minify struct {
	RemoveComments     bool `yaml:"remove_comments" json:"remove_comments"`
	CollapseWhitespace bool `yaml:"collapse_whitespace" json:"collapse_whitespace"`
}

// Descriptor describes how one page is rendered and where it is written.
type Descriptor struct {
	Name         string `yaml:"name" json:"name"`
	TemplatePath string `yaml:"template" json:"template"`
	OutputFile   string `yaml:"output" json:"output"`
	Inject       bool   `yaml:"inject" json:"inject"`
	Cache        bool   `yaml:"cache" json:"cache"`
	Minify       Minify `yaml:"minify" json:"minify"`
}

// GenerateEntries maps page names to descriptors, one per name, in order.
// The template lives at <pagesRoot>/<name>/<name>.<templateExt>.
func GenerateEntries(pagesRoot, templateExt string, names []string) []Descriptor {
	out := make([]Descriptor, len(names))
	for i, name := range names {
		out[i] = Descriptor{
			Name:         name,
			TemplatePath: filepath.Join(pagesRoot, name, name+"."+templateExt),
			OutputFile:   name + ".html",
			Inject:       true,
			Cache:        false,
			Minify: Minify{
				RemoveComments:     true,
				CollapseWhitespace: true,
			},
		}
	}
	return out
}

// MarkdownPath is the alternative Markdown source for a descriptor.
func (d Descriptor) MarkdownPath() string {
	ext := filepath.Ext(d.TemplatePath)
	return d.TemplatePath[:len(d.TemplatePath)-len(ext)] + ".md"
}

// Source returns the file a page is rendered from: the template when it
// exists, otherwise the Markdown variant.
func (d Descriptor) Source(fsys afero.Fs) (string, error) {
	if ok, _ := afero.Exists(fsys, d.TemplatePath); ok {
		return d.TemplatePath, nil
	}
	if md := d.MarkdownPath(); md != d.TemplatePath {
		if ok, _ := afero.Exists(fsys, md); ok {
			return md, nil
		}
	}
	return "", errors.NotFoundError("page template not found").
		WithPath(d.TemplatePath).
		WithContext("page", d.Name).
		WithCause(os.ErrNotExist).
		Build()
}

// Validate reports the first duplicate page name or missing template.
func Validate(fsys afero.Fs, descriptors []Descriptor) error {
	seen := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		if first, dup := seen[d.Name]; dup {
			return errors.ConfigError(fmt.Sprintf("page %q selected twice (positions %d and %d)", d.Name, first, i)).
				WithField("pages").
				Build()
		}
		seen[d.Name] = i
		if _, err := d.Source(fsys); err != nil {
			return err
		}
	}
	return nil
}
