package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

// ErrNoRule is returned when no rule matches an asset's file name.
var ErrNoRule = errors.AssetError("no asset rule matches").Build()

// Branch is one way of handling a matched asset, selected by hint.
type Branch struct {
	Hint       Hint     `yaml:"hint" json:"hint"`
	Strategy   Strategy `yaml:"strategy" json:"strategy"`
	OutputName string   `yaml:"output_name,omitempty" json:"output_name,omitempty"`
	// InlineLimit turns a CopyFile branch into InlineData for files of at
	// most this many bytes. Zero disables size based inlining.
	InlineLimit int64 `yaml:"inline_limit,omitempty" json:"inline_limit,omitempty"`
}

// Rule routes one asset class. Match is a glob over the lower-cased file
// name. Include and Exclude are directories; a non-empty Include requires
// the file to live under one of them. Context is the directory [path] is
// computed from.
type Rule struct {
	Name     string   `yaml:"name" json:"name"`
	Match    string   `yaml:"match" json:"match"`
	Include  []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude  []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Context  string   `yaml:"context,omitempty" json:"context,omitempty"`
	Branches []Branch `yaml:"branches" json:"branches"`
}

// DefaultRules is the static asset table. fontsDir is where font files
// (including SVG fonts) live; inlineLimit is the raster inlining threshold
// and hashLen the fingerprint length used in file names.
func DefaultRules(fontsDir string, inlineLimit int64, hashLen int) []Rule {
	images := fmt.Sprintf("assets/images/[name].[contenthash:%d].[ext]", hashLen)
	media := fmt.Sprintf("assets/media/[name].[contenthash:%d].[ext]", hashLen)
	return []Rule{
		{
			Name:  "images",
			Match: "*.{png,jpg,jpeg,gif,ico,webp}",
			Branches: []Branch{
				{Hint: HintNone, Strategy: CopyFile, OutputName: images, InlineLimit: inlineLimit},
			},
		},
		{
			Name:    "svg",
			Match:   "*.svg",
			Exclude: []string{fontsDir},
			Branches: []Branch{
				{Hint: HintInline, Strategy: InlineData},
				{Hint: HintSprite, Strategy: SpriteSymbol},
				{Hint: HintImage, Strategy: CopyFile, OutputName: images},
				{Hint: HintNone, Strategy: CopyFile, OutputName: images},
			},
		},
		{
			Name:  "media",
			Match: "*.{mp4,ogg,mp3,wav,flac,aac}",
			Branches: []Branch{
				{Hint: HintNone, Strategy: CopyFile, OutputName: media},
			},
		},
		{
			Name:    "fonts",
			Match:   "*.{eot,otf,svg,ttf,woff,woff2}",
			Include: []string{fontsDir},
			Context: fontsDir,
			Branches: []Branch{
				{Hint: HintNone, Strategy: CopyFile, OutputName: "assets/fonts/[path][name].[ext]"},
			},
		},
	}
}

// Decision is the single branch chosen for one asset.
type Decision struct {
	Rule       string
	Strategy   Strategy
	OutputName string
	// RelPath is the asset path relative to the rule context.
	RelPath string
}

type compiledRule struct {
	Rule
	glob glob.Glob
}

// Table resolves assets against an ordered rule list. The first rule
// whose pattern and directories match wins.
type Table struct {
	rules []compiledRule
}

// NewTable compiles the rule patterns.
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		g, err := glob.Compile(strings.ToLower(r.Match))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("invalid asset pattern %q", r.Match)).
				Fatal().UserAction().WithField("rules." + r.Name).Build()
		}
		if len(r.Branches) == 0 {
			return nil, errors.ConfigError("asset rule has no branches").WithField("rules." + r.Name).Build()
		}
		t.rules = append(t.rules, compiledRule{Rule: r, glob: g})
	}
	return t, nil
}

// Rules returns the uncompiled rule list.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.Rule
	}
	return out
}

// Resolve picks exactly one rule and one branch for an asset. A hint the
// matched rule has no branch for falls back to that rule's HintNone branch.
func (t *Table) Resolve(ref Reference, absPath string, size int64) (Decision, error) {
	base := strings.ToLower(filepath.Base(absPath))
	for _, r := range t.rules {
		if !r.glob.Match(base) || !r.inScope(absPath) {
			continue
		}
		b, ok := r.branch(ref.Hint)
		if !ok {
			return Decision{}, errors.AssetError(fmt.Sprintf("rule %q has no branch for hint %s", r.Name, ref.Hint)).
				WithPath(absPath).Build()
		}
		d := Decision{Rule: r.Name, Strategy: b.Strategy, OutputName: b.OutputName, RelPath: filepath.Base(absPath)}
		if r.Context != "" {
			if rel, err := filepath.Rel(r.Context, absPath); err == nil {
				d.RelPath = rel
			}
		}
		if b.Strategy == CopyFile && b.InlineLimit > 0 && size <= b.InlineLimit {
			d.Strategy = InlineData
			d.OutputName = ""
		}
		return d, nil
	}
	return Decision{}, errors.AssetError(ErrNoRule.Message()).WithPath(absPath).Build()
}

func (r compiledRule) branch(h Hint) (Branch, bool) {
	var fallback *Branch
	for i := range r.Branches {
		if r.Branches[i].Hint == h {
			return r.Branches[i], true
		}
		if r.Branches[i].Hint == HintNone && fallback == nil {
			fallback = &r.Branches[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Branch{}, false
}

func (r compiledRule) inScope(absPath string) bool {
	for _, dir := range r.Exclude {
		if within(dir, absPath) {
			return false
		}
	}
	if len(r.Include) == 0 {
		return true
	}
	for _, dir := range r.Include {
		if within(dir, absPath) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
