// Package sprite assembles SVG icons into one sheet of <symbol> elements.
package sprite

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// Symbol is one icon in the sheet.
type Symbol struct {
	ID      string
	ViewBox string
	inner   []byte
}

// Sheet collects symbols in insertion order. It is safe for concurrent use.
type Sheet struct {
	mu      sync.Mutex
	symbols []Symbol
	index   map[string]int
}

// New returns an empty sheet.
func New() *Sheet {
	return &Sheet{index: map[string]int{}}
}

// Add parses svg and stores it under id. Re-adding identical markup is a
// no-op; a different icon under an existing id is an error.
func (s *Sheet) Add(id string, svg []byte) (Symbol, error) {
	viewBox, inner, err := parse(svg)
	if err != nil {
		return Symbol{}, errors.WrapError(err, errors.CategoryAsset, "invalid svg icon").WithContext("symbol", id).Build()
	}
	sym := Symbol{ID: id, ViewBox: viewBox, inner: inner}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		existing := s.symbols[i]
		if existing.ViewBox == sym.ViewBox && bytes.Equal(existing.inner, sym.inner) {
			return existing, nil
		}
		return Symbol{}, errors.AssetError(fmt.Sprintf("sprite symbol %q defined by two different icons", id)).
			WithContext("symbol", id).Build()
	}
	s.index[id] = len(s.symbols)
	s.symbols = append(s.symbols, sym)
	return sym, nil
}

// AddSymbol adds an icon and returns its viewBox.
func (s *Sheet) AddSymbol(id string, svg []byte) (string, error) {
	sym, err := s.Add(id, svg)
	return sym.ViewBox, err
}

// AddDir adds every *.svg file below dir, using the base name as id.
// A missing directory adds nothing.
func (s *Sheet) AddDir(fsys afero.Fs, dir string) (int, error) {
	if ok, _ := afero.DirExists(fsys, dir); !ok {
		return 0, nil
	}
	added := 0
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".svg") {
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		if _, err := s.Add(SymbolID(path), data); err != nil {
			return err
		}
		added++
		return nil
	})
	return added, err
}

// SymbolID derives a symbol id from an icon path.
func SymbolID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Len returns the number of symbols.
func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.symbols)
}

// Symbols returns a snapshot of the symbols in insertion order.
func (s *Sheet) Symbols() []Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Render returns the sheet document.
func (s *Sheet) Render() []byte {
	var b bytes.Buffer
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" style="position:absolute;width:0;height:0;display:none">`)
	for _, sym := range s.Symbols() {
		b.WriteString(`<symbol id="`)
		b.WriteString(html.EscapeString(sym.ID))
		b.WriteString(`"`)
		if sym.ViewBox != "" {
			b.WriteString(` viewBox="`)
			b.WriteString(html.EscapeString(sym.ViewBox))
			b.WriteString(`"`)
		}
		b.WriteString(">")
		b.Write(sym.inner)
		b.WriteString("</symbol>")
	}
	b.WriteString("</svg>")
	return b.Bytes()
}

// parse returns the root viewBox and the raw markup between the root tags.
// Without a viewBox, one is derived from width and height.
func parse(svg []byte) (string, []byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	dec.Strict = false

	var (
		viewBox string
		start   int64
		depth   int
	)
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			return "", nil, fmt.Errorf("unterminated svg element")
		}
		if err != nil {
			return "", nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != "svg" {
					return "", nil, fmt.Errorf("root element is <%s>, not <svg>", t.Name.Local)
				}
				viewBox = rootViewBox(t.Attr)
				start = dec.InputOffset()
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return viewBox, bytes.TrimSpace(svg[start:offset]), nil
			}
		}
	}
}

func rootViewBox(attrs []xml.Attr) string {
	var width, height string
	for _, a := range attrs {
		switch a.Name.Local {
		case "viewBox":
			return a.Value
		case "width":
			width = strings.TrimSuffix(a.Value, "px")
		case "height":
			height = strings.TrimSuffix(a.Value, "px")
		}
	}
	if width != "" && height != "" {
		return "0 0 " + width + " " + height
	}
	return ""
}
