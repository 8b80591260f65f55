package bundler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/descriptor"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
)

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2022": api.ES2022,
}

// autoprefixEngines are the browsers stylesheets are prefixed and lowered
// for when a style rule asks for it.
var autoprefixEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "58"},
	{Name: api.EngineEdge, Version: "16"},
	{Name: api.EngineFirefox, Version: "57"},
	{Name: api.EngineSafari, Version: "11"},
}

// Bundler bundles the application entry described by a descriptor.
type Bundler struct {
	desc     descriptor.Descriptor
	pipeline *assets.Pipeline
	logger   *slog.Logger
}

// New creates a bundler. Asset imports are emitted through pipeline.
func New(desc descriptor.Descriptor, pipeline *assets.Pipeline, logger *slog.Logger) *Bundler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bundler{desc: desc, pipeline: pipeline, logger: logger}
}

// Options returns the esbuild options for the descriptor.
func (b *Bundler) Options() (api.BuildOptions, error) {
	root, err := filepath.Abs(b.desc.Root)
	if err != nil {
		return api.BuildOptions{}, err
	}
	entry := b.desc.Entry.Path
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(root, entry)
	}
	outdir := b.desc.Output.Dir
	if !filepath.IsAbs(outdir) {
		outdir = filepath.Join(root, outdir)
	}
	target, ok := targets[strings.ToLower(b.desc.Target)]
	if !ok {
		return api.BuildOptions{}, errors.ConfigError(fmt.Sprintf("unsupported script target %q", b.desc.Target)).WithField("target").Build()
	}

	opts := api.BuildOptions{
		EntryPointsAdvanced: []api.EntryPoint{{InputPath: entryPath, OutputPath: b.desc.Entry.Name}},
		AbsWorkingDir:       root,
		Outdir:              outdir,
		Bundle:              true,
		Write:               false,
		Format:              api.FormatIIFE,
		Platform:            api.PlatformBrowser,
		Target:              target,
		LogLevel:            api.LogLevelSilent,
		Sourcemap:           api.SourceMapNone,
		Plugins: []api.Plugin{
			entryPlugin(root, entry, b.desc.Provide),
			assetPlugin(b.pipeline),
			aliasPlugin(b.pipeline.Aliases()),
		},
	}
	if b.desc.Devtool == descriptor.DevtoolSourceMap {
		opts.Sourcemap = api.SourceMapExternal
	}
	if b.desc.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	for _, s := range b.desc.Styles {
		if s.Autoprefix {
			opts.Engines = autoprefixEngines
		}
	}
	return opts, nil
}

// Bundle runs esbuild. Errors name the file and line esbuild reported.
func (b *Bundler) Bundle(ctx context.Context) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(b.desc.Entry.Path); err != nil {
		return nil, errors.NotFoundError("script entry not found").WithPath(b.desc.Entry.Path).WithCause(err).Build()
	}
	opts, err := b.Options()
	if err != nil {
		return nil, err
	}

	result := api.Build(opts)
	for _, w := range result.Warnings {
		b.logger.Warn("Bundler warning", slog.String("location", location(w)), slog.String("message", w.Text))
	}
	if len(result.Errors) > 0 {
		first := result.Errors[0]
		eb := errors.BundleError(fmt.Sprintf("bundling failed with %d error(s): %s", len(result.Errors), first.Text))
		if first.Location != nil {
			eb = eb.WithContext(errors.ContextFile, first.Location.File).WithContext("line", first.Location.Line)
		}
		return nil, eb.Build()
	}

	out := &Bundle{name: b.desc.Entry.Name}
	for _, f := range result.OutputFiles {
		switch {
		case strings.HasSuffix(f.Path, ".js.map"):
			out.ScriptMap = f.Contents
		case strings.HasSuffix(f.Path, ".css.map"):
			out.StyleMap = f.Contents
		case strings.HasSuffix(f.Path, ".js"):
			out.Script = f.Contents
		case strings.HasSuffix(f.Path, ".css"):
			out.Style = f.Contents
		default:
			b.logger.Debug("Ignoring bundler output", logfields.Path(f.Path))
		}
	}
	return out, nil
}

func location(m api.Message) string {
	if m.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", m.Location.File, m.Location.Line, m.Location.Column)
}

// Bundle is the in-memory output of one esbuild run.
type Bundle struct {
	name      string
	Script    []byte
	ScriptMap []byte
	Style     []byte
	StyleMap  []byte
}

// File is a finalized output file.
type File struct {
	// Logical is the manifest key, for example "bundle.js".
	Logical  string
	Name     string
	Contents []byte
}

// Finalized holds the named files and the URLs pages link to.
type Finalized struct {
	Files     []File
	ScriptURL string
	StyleURL  string
}

// Finalize substitutes the sprite URL, fingerprints the outputs and
// attaches source map references.
func (b *Bundle) Finalize(out descriptor.Output, spriteURL string) Finalized {
	var f Finalized
	if b == nil {
		return f
	}
	if len(b.Script) > 0 {
		name, files := finalizeOne(b.name+".js", out.Script, b.Script, b.ScriptMap, spriteURL, "//# sourceMappingURL=%s\n")
		f.Files = append(f.Files, files...)
		f.ScriptURL = assets.JoinURL(out.PublicPath, name)
	}
	if len(b.Style) > 0 {
		name, files := finalizeOne(b.name+".css", out.Style, b.Style, b.StyleMap, spriteURL, "/*# sourceMappingURL=%s */\n")
		f.Files = append(f.Files, files...)
		f.StyleURL = assets.JoinURL(out.PublicPath, name)
	}
	return f
}

func finalizeOne(logical, template string, contents, sourceMap []byte, spriteURL, mapComment string) (string, []File) {
	if spriteURL != "" {
		contents = bytes.ReplaceAll(contents, []byte(assets.SpritePlaceholder), []byte(spriteURL))
	}
	name := assets.ExpandName(template, logical, contents)
	if len(sourceMap) == 0 {
		return name, []File{{Logical: logical, Name: name, Contents: contents}}
	}
	mapName := name + ".map"
	withRef := make([]byte, 0, len(contents)+64)
	withRef = append(withRef, contents...)
	if len(withRef) > 0 && withRef[len(withRef)-1] != '\n' {
		withRef = append(withRef, '\n')
	}
	withRef = append(withRef, fmt.Sprintf(mapComment, filepath.Base(mapName))...)
	return name, []File{
		{Logical: logical, Name: name, Contents: withRef},
		{Logical: logical + ".map", Name: mapName, Contents: sourceMap},
	}
}
