package render

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/minify"
)

// LiveReloadScript is the path of the dev server's reload client.
const LiveReloadScript = "/livereload.js"

// FinishOptions carries what is known once the bundle is finalized.
type FinishOptions struct {
	StyleURL   string
	ScriptURL  string
	SpriteURL  string
	LiveReload bool
	Minifier   *minify.Client
}

// Finish injects the bundle tags into pages that ask for it, replaces
// the sprite placeholder and applies the page's minify options.
func Finish(p Page, opts FinishOptions) ([]byte, error) {
	out := p.HTML
	if p.Descriptor.Inject || opts.LiveReload {
		tags := opts
		if !p.Descriptor.Inject {
			tags.StyleURL, tags.ScriptURL = "", ""
		}
		injected, err := Inject(out, tags)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "inject bundle tags").
				WithPath(p.Source).WithContext("page", p.Descriptor.Name).Build()
		}
		out = injected
	}
	out = bytes.ReplaceAll(out, []byte(assets.SpritePlaceholder), []byte(opts.SpriteURL))

	if opts.Minifier != nil {
		minified, err := opts.Minifier.HTML(out, minify.HTMLOptions{
			RemoveComments:     p.Descriptor.Minify.RemoveComments,
			CollapseWhitespace: p.Descriptor.Minify.CollapseWhitespace,
		})
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "minify page").
				WithPath(p.Source).WithContext("page", p.Descriptor.Name).Build()
		}
		out = minified
	}
	return out, nil
}

// Inject adds a stylesheet link at the end of <head> and deferred
// scripts at the end of <body>. Empty URLs are skipped. Documents
// without head or body get them from the HTML5 parser.
func Inject(doc []byte, opts FinishOptions) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	head, body := find(root, atom.Head), find(root, atom.Body)
	if head != nil && opts.StyleURL != "" {
		head.AppendChild(element(atom.Link, "rel", "stylesheet", "href", opts.StyleURL))
	}
	if body != nil {
		if opts.ScriptURL != "" {
			body.AppendChild(element(atom.Script, "defer", "", "src", opts.ScriptURL))
		}
		if opts.LiveReload {
			body.AppendChild(element(atom.Script, "src", LiveReloadScript))
		}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func element(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}
