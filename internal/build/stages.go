package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepack/internal/logfields"
	"git.home.luguber.info/inful/sitepack/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Canonical stage names in execution order.
const (
	StagePrepareOutput    StageName = "prepare_output"
	StageDiscoverPages    StageName = "discover_pages"
	StageBundleScripts    StageName = "bundle_scripts"
	StageRenderPages      StageName = "render_pages"
	StageEmitBundle       StageName = "emit_bundle"
	StageWritePages       StageName = "write_pages"
	StageCopyStatic       StageName = "copy_static"
	StageOptimizeImages   StageName = "optimize_images"
	StageCheckPerformance StageName = "check_performance"
	StageWriteManifest    StageName = "write_manifest"
	StagePublish          StageName = "publish"
)

// stageFunc executes one stage against the build state.
type stageFunc func(ctx context.Context, bs *buildState) error

type stageDef struct {
	Name StageName
	Fn   stageFunc
}

// StageResult is the per-stage classification outcome.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// classify turns a raw stage error into a StageError. Context errors are
// cancellations and classified errors with warning severity are warnings;
// everything else is fatal. A classified error returned directly by the
// stage is tagged with the stage name.
func classify(stage StageName, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if stderrors.As(err, &se) {
		return se
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return newCanceledStageError(stage, err)
	}
	if ce, ok := err.(*errors.ClassifiedError); ok {
		if _, tagged := ce.Context().GetString(errors.ContextStage); !tagged {
			err = ce.WithContext(errors.ContextStage, string(stage))
		}
	}
	if ce, ok := errors.AsClassified(err); ok && ce.Severity() == errors.SeverityWarning {
		return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
	}
	return newFatalStageError(stage, err)
}

func resultFromKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

func metricLabel(r StageResult) metrics.ResultLabel {
	switch r {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultSuccess
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.Name, err)
			bs.record(st.Name, StageResultCanceled, 0, se)
			return se
		}
		if bs.skip(st.Name) {
			bs.report.StageResults[st.Name] = StageResultSkipped
			continue
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		se := classify(st.Name, err)
		if se == nil {
			bs.record(st.Name, StageResultSuccess, dur, nil)
			continue
		}
		res := resultFromKind(se.Kind)
		bs.record(st.Name, res, dur, se)
		if res != StageResultWarning {
			return se
		}
	}
	return nil
}

func (bs *buildState) record(stage StageName, res StageResult, dur time.Duration, se *StageError) {
	bs.report.StageDurations[stage] = dur
	bs.report.StageResults[stage] = res
	bs.recorder.ObserveStageDuration(string(stage), dur)
	bs.recorder.IncStageResult(string(stage), metricLabel(res))
	if se != nil {
		bs.report.addIssue(se)
	}

	attrs := []slog.Attr{logfields.Stage(string(stage)), logfields.DurationMS(ms(dur)), slog.String("result", string(res))}
	switch res {
	case StageResultWarning:
		bs.logger.LogAttrs(context.Background(), slog.LevelWarn, "Stage finished with warnings", append(attrs, logfields.Error(se.Err))...)
	case StageResultFatal:
		bs.logger.LogAttrs(context.Background(), slog.LevelError, "Stage failed", append(attrs, logfields.Error(se.Err))...)
	default:
		bs.logger.LogAttrs(context.Background(), slog.LevelDebug, "Stage complete", attrs...)
	}
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
