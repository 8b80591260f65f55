package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/sitepack/internal/assets"
)

type markdownRenderer struct {
	md       goldmark.Markdown
	pipeline *assets.Pipeline
}

func newMarkdownRenderer(p *assets.Pipeline) *markdownRenderer {
	return &markdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		pipeline: p,
	}
}

// render converts body to HTML. Local image destinations are emitted
// through the asset pipeline relative to dir.
func (m *markdownRenderer) render(body []byte, dir string) ([]byte, error) {
	doc := m.md.Parser().Parse(text.NewReader(body))

	var emitErr error
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		img, ok := n.(*gmast.Image)
		if !ok || !isLocal(string(img.Destination)) {
			return gmast.WalkContinue, nil
		}
		res, err := m.pipeline.Emit(string(img.Destination), dir)
		if err != nil {
			emitErr = err
			return gmast.WalkStop, nil
		}
		img.Destination = []byte(res.URL)
		return gmast.WalkContinue, nil
	})
	if emitErr != nil {
		return nil, emitErr
	}

	var buf bytes.Buffer
	if err := m.md.Renderer().Render(&buf, body, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isLocal(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return false
	}
	return !strings.Contains(dest, "://") && !strings.HasPrefix(dest, "data:") && !strings.HasPrefix(dest, "//")
}
