// Package minify wraps tdewolff/minify for the output types sitepack writes.
package minify

import (
	"bytes"
	"io"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
)

// Media types understood by Bytes.
const (
	TypeHTML = "text/html"
	TypeCSS  = "text/css"
	TypeJS   = "application/javascript"
	TypeJSON = "application/json"
	TypeSVG  = "image/svg+xml"
)

// HTMLOptions are the per-page HTML minification switches.
type HTMLOptions struct {
	RemoveComments     bool
	CollapseWhitespace bool
}

// Client minifies documents by media type.
type Client struct {
	m *minify.M
}

// New registers the css, js, json, svg and html minifiers.
func New() *Client {
	m := minify.New()
	m.Add(TypeCSS, &css.Minifier{KeepCSS2: true})
	m.Add(TypeJS, &js.Minifier{})
	m.AddRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), &js.Minifier{})
	m.Add(TypeJSON, &json.Minifier{})
	m.AddRegexp(regexp.MustCompile(`^(application|text)/(x-|(ld|manifest)\+)?json$`), &json.Minifier{})
	m.Add(TypeSVG, &svg.Minifier{})
	m.Add(TypeHTML, htmlMinifier(HTMLOptions{RemoveComments: true, CollapseWhitespace: true}))
	return &Client{m: m}
}

func htmlMinifier(opts HTMLOptions) minify.Minifier {
	if !opts.RemoveComments && !opts.CollapseWhitespace {
		return noopMinifier{}
	}
	return &html.Minifier{
		KeepComments:            !opts.RemoveComments,
		KeepWhitespace:          !opts.CollapseWhitespace,
		KeepDocumentTags:        true,
		KeepConditionalComments: true,
		KeepEndTags:             true,
		KeepDefaultAttrVals:     true,
		KeepQuotes:              true,
	}
}

// Bytes minifies b as mediatype.
func (c *Client) Bytes(mediatype string, b []byte) ([]byte, error) {
	return c.m.Bytes(mediatype, b)
}

// HTML minifies a page with its own options. Inline scripts and styles are
// handled by the registered minifiers.
func (c *Client) HTML(b []byte, opts HTMLOptions) ([]byte, error) {
	var out bytes.Buffer
	if err := htmlMinifier(opts).Minify(c.m, &out, bytes.NewReader(b), nil); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// noopMinifier copies its input unchanged.
type noopMinifier struct{}

func (noopMinifier) Minify(_ *minify.M, w io.Writer, r io.Reader, _ map[string]string) error {
	_, err := io.Copy(w, r)
	return err
}
