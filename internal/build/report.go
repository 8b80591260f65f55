package build

import (
	"fmt"
	"time"
)

// Outcome is the final result of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Issue is one warning or error raised by a stage.
type Issue struct {
	Stage    StageName      `json:"stage"`
	Severity StageErrorKind `json:"severity"`
	Message  string         `json:"message"`
}

// AssetCounts breaks down how asset references were handled.
type AssetCounts struct {
	Copied  int `json:"copied"`
	Inlined int `json:"inlined"`
	Symbols int `json:"symbols"`
}

// Report captures what one build did.
type Report struct {
	BuildID        string                      `json:"build_id"`
	Mode           string                      `json:"mode"`
	Start          time.Time                   `json:"start"`
	End            time.Time                   `json:"end"`
	Outcome        Outcome                     `json:"outcome"`
	StageDurations map[StageName]time.Duration `json:"stage_durations"`
	StageResults   map[StageName]StageResult   `json:"stage_results"`
	Issues         []Issue                     `json:"issues,omitempty"`
	Pages          int                         `json:"pages"`
	Assets         AssetCounts                 `json:"assets"`
	ImagesSaved    int64                       `json:"images_saved,omitempty"`

	Errors   []error `json:"-"`
	Warnings []error `json:"-"`
}

func newReport(buildID, mode string, start time.Time) *Report {
	return &Report{
		BuildID:        buildID,
		Mode:           mode,
		Start:          start,
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

func (r *Report) addIssue(se *StageError) {
	r.Issues = append(r.Issues, Issue{Stage: se.Stage, Severity: se.Kind, Message: se.Err.Error()})
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se)
		return
	}
	r.Errors = append(r.Errors, se)
}

// finish stamps the end time and derives the outcome from recorded issues.
func (r *Report) finish(end time.Time) {
	r.End = end
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
			}
		}
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("mode=%s pages=%d copied=%d inlined=%d symbols=%d duration=%s warnings=%d errors=%d outcome=%s",
		r.Mode, r.Pages, r.Assets.Copied, r.Assets.Inlined, r.Assets.Symbols,
		r.Duration().Truncate(time.Millisecond), len(r.Warnings), len(r.Errors), r.Outcome)
}

