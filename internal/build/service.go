package build

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitepack/internal/assets"
	"git.home.luguber.info/inful/sitepack/internal/bundler"
	"git.home.luguber.info/inful/sitepack/internal/config"
	"git.home.luguber.info/inful/sitepack/internal/descriptor"
	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
	"git.home.luguber.info/inful/sitepack/internal/minify"
	"git.home.luguber.info/inful/sitepack/internal/render"
	"git.home.luguber.info/inful/sitepack/internal/sprite"
	"git.home.luguber.info/inful/sitepack/internal/workspace"
)

// Request contains all inputs of one build.
type Request struct {
	// Config is the loaded site configuration.
	Config *config.Config

	// Mode overrides Config.Mode when set.
	Mode config.Mode

	// OutputDir overrides Config.Output.Directory when set.
	OutputDir string

	// LiveReload injects the dev server reload client into every page.
	LiveReload bool
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result contains the outcome of a build execution.
type Result struct {
	Status     Status
	Report     *Report
	Manifest   *Manifest
	OutputPath string
	Duration   time.Duration
}

// Service executes builds.
type Service struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	minifier *minify.Client
	source   afero.Fs
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service reading sources from the OS filesystem.
func NewService(opts ...Option) *Service {
	s := &Service{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		minifier: minify.New(),
		source:   afero.NewOsFs(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// buildState is the mutable state shared by the stages of one build.
type buildState struct {
	cfg      *config.Config
	mode     config.Mode
	req      Request
	outDir   string
	source   afero.Fs
	out      afero.Fs
	logger   *slog.Logger
	recorder metrics.Recorder
	minifier *minify.Client
	report   *Report

	staging   *workspace.Staging
	desc      descriptor.Descriptor
	pageNames []string
	pipeline  *assets.Pipeline
	sheet     *sprite.Sheet
	bundle    *bundler.Bundle
	rendered  []render.Page
	spriteURL string
	final     bundler.Finalized
	files     []outputFile
	manifest  *Manifest
}

// outputFile is a file written by the build, used for budgets and the manifest.
type outputFile struct {
	Logical string
	Name    string
	Size    int64
	Entry   bool
}

func (bs *buildState) skip(stage StageName) bool {
	switch stage {
	case StageCopyStatic:
		return !bs.desc.HasPlugin(descriptor.PluginCopy)
	case StageOptimizeImages:
		return !bs.desc.HasPlugin(descriptor.PluginImageMinimizer)
	case StageCheckPerformance:
		return bs.desc.Performance == nil || bs.desc.Performance.Hints == config.HintsOff
	}
	return false
}

var pipelineStages = []stageDef{
	{StagePrepareOutput, stagePrepareOutput},
	{StageDiscoverPages, stageDiscoverPages},
	{StageBundleScripts, stageBundleScripts},
	{StageRenderPages, stageRenderPages},
	{StageEmitBundle, stageEmitBundle},
	{StageWritePages, stageWritePages},
	{StageCopyStatic, stageCopyStatic},
	{StageOptimizeImages, stageOptimizeImages},
	{StageCheckPerformance, stageCheckPerformance},
	{StageWriteManifest, stageWriteManifest},
	{StagePublish, stagePublish},
}

// Run executes a complete build. The returned error is the first fatal
// stage error; warnings are only recorded in the report.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Config == nil {
		return nil, errors.InternalError("build request without configuration").Build()
	}
	cfg := *req.Config
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve project root").WithPath(cfg.Root).Build()
	}
	cfg.Root = root

	mode := cfg.Mode
	if req.Mode != "" {
		mode = req.Mode
	}
	outDir := cfg.Abs(cfg.Output.Directory)
	if req.OutputDir != "" {
		outDir, err = filepath.Abs(req.OutputDir)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve output directory").WithPath(req.OutputDir).Build()
		}
	}
	cfg.Output.Directory = outDir

	start := s.now()
	buildID := uuid.NewString()
	logger := s.logger.With(logfields.BuildID(buildID), logfields.Mode(string(mode)))
	bs := &buildState{
		cfg:      &cfg,
		mode:     mode,
		req:      req,
		outDir:   outDir,
		source:   s.source,
		logger:   logger,
		recorder: s.recorder,
		minifier: s.minifier,
		report:   newReport(buildID, string(mode), start),
	}
	logger.Info("Build started", logfields.Path(root), logfields.Output(outDir))

	runErr := runStages(ctx, bs, pipelineStages)
	if runErr != nil && bs.staging != nil {
		bs.staging.Abort()
	}

	bs.report.finish(s.now())
	dur := bs.report.Duration()
	s.recorder.ObserveBuildDuration(string(mode), dur)
	s.recorder.IncBuildOutcome(string(bs.report.Outcome))

	res := &Result{Report: bs.report, Manifest: bs.manifest, OutputPath: outDir, Duration: dur}
	switch bs.report.Outcome {
	case OutcomeFailed:
		res.Status = StatusFailed
	case OutcomeCanceled:
		res.Status = StatusCanceled
	default:
		res.Status = StatusSuccess
		s.recorder.AddPagesRendered(bs.report.Pages)
		s.recorder.AddAssets(assets.CopyFile.String(), bs.report.Assets.Copied)
		s.recorder.AddAssets(assets.InlineData.String(), bs.report.Assets.Inlined)
		s.recorder.AddAssets(assets.SpriteSymbol.String(), bs.report.Assets.Symbols)
		for _, f := range bs.files {
			if f.Entry {
				s.recorder.SetOutputBytes(f.Logical, f.Size)
			}
		}
	}

	level := slog.LevelInfo
	if runErr != nil {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "Build finished", slog.String("summary", bs.report.Summary()))
	return res, runErr
}
