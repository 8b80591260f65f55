package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
)

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func newSite(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	write(t, root, "src/app.js", "import './app.css';\nimport '~pages/home/home.js';\n")
	write(t, root, "src/app.css", "body { color: red; }\n")
	write(t, root, "src/pages/home/home.js", "document.body.dataset.page = 'home';\n")
	write(t, root, "src/pages/home/home.html",
		`<!DOCTYPE html><html><head><title>{{.Page.Title}}</title></head><body>`+
			`<!-- hero --><img src="{{asset "~images/hero.png"}}">{{icon "star"}}`+
			`<a href="{{page "about"}}">About</a></body></html>`)
	write(t, root, "src/pages/about/about.md", "---\ntitle: About us\n---\n# About\n")
	write(t, root, "src/pages/draft/draft.html", "<p>draft</p>")
	write(t, root, "src/common/templates/layout.html",
		`<!DOCTYPE html><html><head><title>{{.Page.Title}}</title></head><body>{{.Content}}</body></html>`)
	write(t, root, "src/assets/images/hero.png", strings.Repeat("p", 64))
	write(t, root, "src/assets/svg/star.svg", `<svg viewBox="0 0 10 10"><path d="M0 0"/></svg>`)
	write(t, root, "src/assets/favicons/favicon.ico", "ico")
	write(t, root, "pages.yaml", "exclude: [draft]\n")

	cfg := config.Default()
	cfg.Root = root
	cfg.Assets.InlineLimit = 8
	return cfg
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []string
	pages    int
}

func (r *countingRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = res
}

func (r *countingRecorder) IncBuildOutcome(o string) { r.outcomes = append(r.outcomes, o) }
func (r *countingRecorder) AddPagesRendered(n int)   { r.pages += n }

func TestRun_Production(t *testing.T) {
	cfg := newSite(t)
	rec := &countingRecorder{stages: map[string]metrics.ResultLabel{}}

	res, err := NewService(WithRecorder(rec)).Run(context.Background(), Request{Config: cfg, Mode: config.ModeProduction})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, OutcomeSuccess, res.Report.Outcome)
	assert.Equal(t, 2, res.Report.Pages)
	assert.Equal(t, AssetCounts{Copied: 1, Inlined: 0, Symbols: 1}, res.Report.Assets)

	out := filepath.Join(cfg.Root, "dist")
	assert.Equal(t, out, res.OutputPath)
	assert.NoDirExists(t, out+".stage")
	assert.NoFileExists(t, filepath.Join(out, "draft.html"))
	assert.FileExists(t, filepath.Join(out, "assets", "favicons", "favicon.ico"))

	m := res.Manifest
	require.NotNil(t, m)
	assert.Equal(t, []string{"about", "home"}, slices.Sorted(slices.Values(m.Pages)))
	for _, key := range []string{"bundle.js", "bundle.css", "sprite.svg", "home.html", "about.html", "src/assets/images/hero.png"} {
		assert.Contains(t, m.Files, key)
	}
	assert.Regexp(t, `^js/bundle\.[0-9a-f]{7}\.js$`, m.Files["bundle.js"])
	assert.NotContains(t, m.Files, "bundle.js.map")

	var onDisk Manifest
	require.NoError(t, json.Unmarshal([]byte(read(t, filepath.Join(out, ManifestFile))), &onDisk))
	assert.Equal(t, m.BuildID, onDisk.BuildID)
	assert.Equal(t, "production", onDisk.Mode)

	home := read(t, filepath.Join(out, "home.html"))
	assert.Contains(t, home, `href="/`+m.Files["bundle.css"]+`"`)
	assert.Contains(t, home, `src="/`+m.Files["bundle.js"]+`"`)
	assert.Contains(t, home, "/"+m.Files["sprite.svg"]+"#star")
	assert.Contains(t, home, "/"+m.Files["src/assets/images/hero.png"])
	assert.Contains(t, home, `href="/about.html"`)
	assert.NotContains(t, home, "hero -->")

	about := read(t, filepath.Join(out, "about.html"))
	assert.Contains(t, about, "<title>About us</title>")

	assert.Equal(t, metrics.ResultSuccess, rec.stages[string(StagePublish)])
	assert.Equal(t, []string{"success"}, rec.outcomes)
	assert.Equal(t, 2, rec.pages)
	assert.Equal(t, StageResultSuccess, res.Report.StageResults[StageOptimizeImages])
}

func TestRun_DevelopmentLiveReload(t *testing.T) {
	cfg := newSite(t)
	res, err := NewService().Run(context.Background(), Request{Config: cfg, Mode: config.ModeDevelopment, LiveReload: true})
	require.NoError(t, err)

	m := res.Manifest
	assert.Contains(t, m.Files, "bundle.js.map")
	assert.FileExists(t, filepath.Join(res.OutputPath, filepath.FromSlash(m.Files["bundle.js.map"])))
	home := read(t, filepath.Join(res.OutputPath, "home.html"))
	assert.Contains(t, home, `/livereload.js`)
	assert.Equal(t, StageResultSkipped, res.Report.StageResults[StageOptimizeImages])
	assert.Equal(t, StageResultSkipped, res.Report.StageResults[StageCheckPerformance])
}

func TestRun_FailureKeepsPreviousOutput(t *testing.T) {
	cfg := newSite(t)
	out := filepath.Join(cfg.Root, "dist")
	write(t, out, "index.html", "previous")
	write(t, cfg.Root, "src/app.js", "import {")

	res, err := NewService().Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, errors.CategoryBundle, errors.GetCategory(err))

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageBundleScripts, se.Stage)
	assert.Equal(t, "previous", read(t, filepath.Join(out, "index.html")))
	assert.NoDirExists(t, out+".stage")
	assert.Equal(t, StageResultFatal, res.Report.StageResults[StageBundleScripts])
	assert.NotContains(t, res.Report.StageResults, StagePublish)
}

func TestRun_MissingTemplateIsNotFound(t *testing.T) {
	cfg := newSite(t)
	write(t, cfg.Root, "pages.yaml", "pages: [home, ghost]\n")

	_, err := NewService().Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRun_PerformanceHints(t *testing.T) {
	t.Run("warning", func(t *testing.T) {
		cfg := newSite(t)
		cfg.Performance.MaxAssetSize = 16
		res, err := NewService().Run(context.Background(), Request{Config: cfg, Mode: config.ModeProduction})
		require.NoError(t, err)
		assert.Equal(t, OutcomeWarning, res.Report.Outcome)
		assert.Equal(t, StageResultWarning, res.Report.StageResults[StageCheckPerformance])
		require.NotEmpty(t, res.Report.Issues)
		assert.Contains(t, res.Report.Issues[0].Message, "performance budget exceeded")
		assert.FileExists(t, filepath.Join(res.OutputPath, ManifestFile))
	})

	t.Run("error", func(t *testing.T) {
		cfg := newSite(t)
		cfg.Performance.MaxEntrypointSize = 1
		cfg.Performance.Hints = config.HintsError
		res, err := NewService().Run(context.Background(), Request{Config: cfg, Mode: config.ModeProduction})
		require.Error(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.NoDirExists(t, res.OutputPath)
	})
}

func TestRun_Canceled(t *testing.T) {
	cfg := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewService().Run(ctx, Request{Config: cfg})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, res.Status)
	assert.Equal(t, OutcomeCanceled, res.Report.Outcome)
}

func TestRun_NoPagesIsWarning(t *testing.T) {
	cfg := newSite(t)
	write(t, cfg.Root, "pages.yaml", "exclude: [home, about, draft]\n")
	res, err := NewService().Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, res.Report.Outcome)
	assert.Zero(t, res.Report.Pages)
}

func TestReport_Summary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newReport("id", "production", start)
	r.Pages = 3
	r.addIssue(&StageError{Kind: StageErrorWarning, Stage: StageCopyStatic, Err: assert.AnError})
	r.finish(start.Add(1500 * time.Millisecond))
	assert.Equal(t, OutcomeWarning, r.Outcome)
	assert.Equal(t, "mode=production pages=3 copied=0 inlined=0 symbols=0 duration=1.5s warnings=1 errors=0 outcome=warning", r.Summary())
}

