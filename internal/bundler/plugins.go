package bundler

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/sitepack/internal/assets"
)

const (
	entryPath      = "sitepack:entry"
	providePath    = "sitepack:provide"
	entryNamespace = "sitepack-entry"
	assetNamespace = "sitepack-asset"
)

var (
	assetFilter = `(?i)\.(png|jpe?g|gif|ico|webp|svg|mp4|ogg|mp3|wav|flac|aac|eot|otf|ttf|woff2?)([?#].*)?$`
	aliasFilter = `^~[\w-]+(/|$)`
)

// resolveGuard marks resolutions issued by the asset plugin itself.
type resolveGuard struct{}

// entryPlugin serves the virtual entry module: the provide shim first,
// then the application entry.
func entryPlugin(root, entry string, provide map[string]string) api.Plugin {
	return api.Plugin{
		Name: "sitepack-entry",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^sitepack:(entry|provide)$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: entryNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: entryNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					var contents string
					if args.Path == providePath {
						contents = provideShim(provide)
					} else {
						contents = entryModule(entry, len(provide) > 0)
					}
					return api.OnLoadResult{Contents: &contents, ResolveDir: root, Loader: api.LoaderJS}, nil
				})
		},
	}
}

func entryModule(entry string, withProvide bool) string {
	var b strings.Builder
	if withProvide {
		fmt.Fprintf(&b, "import %q;\n", providePath)
	}
	fmt.Fprintf(&b, "import %q;\n", filepath.ToSlash(entry))
	return b.String()
}

// provideShim exposes modules as browser globals. Keys may be plain
// identifiers or "window.name".
func provideShim(provide map[string]string) string {
	modules := make([]string, 0, len(provide))
	byModule := map[string][]string{}
	for global, module := range provide {
		if _, ok := byModule[module]; !ok {
			modules = append(modules, module)
		}
		byModule[module] = append(byModule[module], strings.TrimPrefix(global, "window."))
	}
	sort.Strings(modules)

	var imports, assigns strings.Builder
	for i, module := range modules {
		fmt.Fprintf(&imports, "import * as m%d from %q;\n", i, module)
		fmt.Fprintf(&assigns, "const v%d = \"default\" in m%d ? m%d.default : m%d;\n", i, i, i, i)
		names := byModule[module]
		sort.Strings(names)
		for _, name := range dedupe(names) {
			fmt.Fprintf(&assigns, "window[%q] = v%d;\n", name, i)
		}
	}
	return imports.String() + assigns.String()
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// aliasPlugin rewrites "~name/..." imports to the aliased directory and
// hands the result back to esbuild's resolver.
func aliasPlugin(aliases assets.Aliases) api.Plugin {
	return api.Plugin{
		Name: "sitepack-alias",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: aliasFilter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					expanded, ok := aliases.Expand(args.Path)
					if !ok {
						return api.OnResolveResult{}, nil
					}
					r := build.Resolve(expanded, api.ResolveOptions{
						Importer:   args.Importer,
						ResolveDir: args.ResolveDir,
						Kind:       args.Kind,
					})
					return api.OnResolveResult{
						Path:      r.Path,
						External:  r.External,
						Namespace: r.Namespace,
						Errors:    r.Errors,
						Warnings:  r.Warnings,
					}, nil
				})
		},
	}
}

// assetPlugin routes asset imports through the pipeline. CSS url()
// references become external URLs; script imports become modules that
// export the URL (or the symbol descriptor for sprite icons).
func assetPlugin(p *assets.Pipeline) api.Plugin {
	return api.Plugin{
		Name: "sitepack-asset",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: assetFilter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if _, ok := args.PluginData.(resolveGuard); ok || isRemote(args.Path) {
						return api.OnResolveResult{}, nil
					}
					ref := assets.ParseReference(args.Path)
					abs, err := locate(build, p.Aliases(), ref.Path, args)
					if err != nil {
						return api.OnResolveResult{}, err
					}
					res, err := p.EmitPath(ref, abs)
					if err != nil {
						return api.OnResolveResult{}, err
					}
					if isCSSKind(args.Kind) {
						return api.OnResolveResult{Path: res.URL, External: true}, nil
					}
					return api.OnResolveResult{
						Path:       abs + "?" + ref.Hint.String(),
						Namespace:  assetNamespace,
						PluginData: res,
					}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: assetNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					res, ok := args.PluginData.(assets.Result)
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("asset %s loaded without a pipeline result", args.Path)
					}
					contents, err := assetModule(res)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

// locate finds the file for an asset path: aliases, then paths relative to
// the importer, then esbuild's own resolver for package paths.
func locate(build api.PluginBuild, aliases assets.Aliases, path string, args api.OnResolveArgs) (string, error) {
	if expanded, ok := aliases.Expand(path); ok {
		return expanded, nil
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return aliases.Locate(path, args.ResolveDir), nil
	}
	if isCSSKind(args.Kind) {
		// url(images/a.png) in CSS is relative, not a package.
		return filepath.Join(args.ResolveDir, filepath.FromSlash(path)), nil
	}
	r := build.Resolve(path, api.ResolveOptions{
		Importer:   args.Importer,
		ResolveDir: args.ResolveDir,
		Kind:       args.Kind,
		PluginData: resolveGuard{},
	})
	if len(r.Errors) > 0 {
		return "", fmt.Errorf("cannot resolve asset %q: %s", path, r.Errors[0].Text)
	}
	return r.Path, nil
}

func isRemote(path string) bool {
	return strings.Contains(path, "://") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "data:")
}

func isCSSKind(k api.ResolveKind) bool {
	return k == api.ResolveCSSURLToken || k == api.ResolveCSSImportRule
}

func assetModule(res assets.Result) (string, error) {
	var value any = res.URL
	if res.Strategy == assets.SpriteSymbol {
		value = map[string]string{"id": res.SymbolID, "viewBox": res.ViewBox, "url": res.URL}
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return "export default " + string(b) + ";\n", nil
}
