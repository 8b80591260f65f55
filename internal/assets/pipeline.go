package assets

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
)

// SymbolSink receives icons routed to the sprite sheet.
type SymbolSink interface {
	AddSymbol(id string, svg []byte) (viewBox string, err error)
}

// Result is what an asset reference turned into.
type Result struct {
	// URL is the public URL, a data URL, or for sprite symbols
	// SpritePlaceholder + "#" + id.
	URL      string
	Strategy Strategy
	Rule     string
	Source   string
	Output   string
	Size     int64
	SymbolID string
	ViewBox  string
}

// Emitted describes one file written to the output.
type Emitted struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Size   int64  `json:"size"`
}

type memoKey struct {
	path string
	hint Hint
}

// Options configures a Pipeline.
type Options struct {
	Source     afero.Fs
	Output     afero.Fs
	Table      *Table
	Aliases    Aliases
	PublicPath string
	Sprite     SymbolSink
	Logger     *slog.Logger
}

// Pipeline applies the asset table during one build. It reads sources,
// writes copied files and memoises results per path and hint.
type Pipeline struct {
	opts Options

	mu      sync.Mutex
	memo    map[memoKey]Result
	emitted map[string]Emitted
	inlined int
}

// NewPipeline creates a pipeline for one build.
func NewPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		opts:    opts,
		memo:    map[memoKey]Result{},
		emitted: map[string]Emitted{},
	}
}

// Aliases exposes the alias table used to locate references.
func (p *Pipeline) Aliases() Aliases { return p.opts.Aliases }

// Emit resolves raw (for example "~images/logo.svg?inline") relative to
// importerDir and applies the matching rule.
func (p *Pipeline) Emit(raw, importerDir string) (Result, error) {
	ref := ParseReference(raw)
	return p.EmitPath(ref, p.opts.Aliases.Locate(ref.Path, importerDir))
}

// EmitPath is Emit for an already located file.
func (p *Pipeline) EmitPath(ref Reference, absPath string) (Result, error) {
	key := memoKey{path: filepath.Clean(absPath), hint: ref.Hint}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.memo[key]; ok {
		return r, nil
	}

	content, err := afero.ReadFile(p.opts.Source, key.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, errors.NotFoundError("asset not found").WithPath(key.path).
				WithContext("reference", ref.String()).Build()
		}
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "read asset").WithPath(key.path).Build()
	}

	d, err := p.opts.Table.Resolve(ref, key.path, int64(len(content)))
	if err != nil {
		return Result{}, err
	}

	res := Result{Strategy: d.Strategy, Rule: d.Rule, Source: key.path, Size: int64(len(content))}
	switch d.Strategy {
	case InlineData:
		res.URL = DataURL(key.path, content)
		p.inlined++
	case SpriteSymbol:
		if p.opts.Sprite == nil {
			return Result{}, errors.InternalError("sprite reference without a sprite sheet").WithPath(key.path).Build()
		}
		id := strings.TrimSuffix(filepath.Base(key.path), filepath.Ext(key.path))
		viewBox, err := p.opts.Sprite.AddSymbol(id, content)
		if err != nil {
			return Result{}, err
		}
		res.SymbolID = id
		res.ViewBox = viewBox
		res.URL = SpritePlaceholder + "#" + id
	default:
		name := ExpandName(d.OutputName, d.RelPath, content)
		if err := p.write(name, content); err != nil {
			return Result{}, err
		}
		res.Output = name
		res.URL = JoinURL(p.opts.PublicPath, name)
		p.emitted[name] = Emitted{Source: key.path, Output: name, Size: res.Size}
	}

	p.opts.Logger.Debug("Asset emitted",
		logfields.Asset(ref.String()),
		logfields.Hint(ref.Hint.String()),
		logfields.Strategy(d.Strategy.String()),
		slog.String("url", shorten(res.URL)))

	p.memo[key] = res
	return res, nil
}

func (p *Pipeline) write(name string, content []byte) error {
	path := filepath.FromSlash(name)
	if err := p.opts.Output.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create asset directory").WithPath(path).Build()
	}
	if err := afero.WriteFile(p.opts.Output, path, content, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write asset").WithPath(path).Build()
	}
	return nil
}

// Emitted lists copied files sorted by output name.
func (p *Pipeline) Emitted() []Emitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Emitted, 0, len(p.emitted))
	for _, e := range p.emitted {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Output < out[j].Output })
	return out
}

// Inlined returns how many references became data URLs.
func (p *Pipeline) Inlined() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inlined
}

var extraTypes = map[string]string{
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// DataURL encodes content for inlining. SVG stays readable text; every
// other type is base64 encoded.
func DataURL(path string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".svg" {
		return "data:image/svg+xml," + escapeSVG(string(content))
	}
	typ, ok := extraTypes[ext]
	if !ok {
		typ = mime.TypeByExtension(ext)
	}
	if typ == "" {
		typ = "application/octet-stream"
	}
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	return fmt.Sprintf("data:%s;base64,%s", typ, base64.StdEncoding.EncodeToString(content))
}

var svgEscaper = strings.NewReplacer(
	`"`, "'",
	"%", "%25",
	"#", "%23",
	"<", "%3C",
	">", "%3E",
	"{", "%7B",
	"}", "%7D",
	"\r", "",
	"\n", " ",
	"\t", " ",
)

func escapeSVG(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(svgEscaper.Replace(s)), " ")
	return s
}

func shorten(s string) string {
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
