package build

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepack/internal/foundation/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind StageErrorKind
	}{
		{"canceled", context.Canceled, StageErrorCanceled},
		{"deadline", fmt.Errorf("render: %w", context.DeadlineExceeded), StageErrorCanceled},
		{"plain error", assert.AnError, StageErrorFatal},
		{"fatal classified", errors.BuildError("bundle failed").Build(), StageErrorFatal},
		{"warning classified", errors.BuildError("budget").Warning().Build(), StageErrorWarning},
		{"wrapped warning", fmt.Errorf("copy: %w", errors.NotFoundError("static").Warning().Build()), StageErrorWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := classify(StageCopyStatic, tt.err)
			require.NotNil(t, se)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, StageCopyStatic, se.Stage)
		})
	}

	assert.Nil(t, classify(StageCopyStatic, nil))
}

func TestClassify_TagsStage(t *testing.T) {
	orig := errors.NotFoundError("template not found").WithPath("src/pages/a/a.html").Build()
	se := classify(StageDiscoverPages, orig)

	ce, ok := errors.AsClassified(se)
	require.True(t, ok)
	stage, ok := ce.Context().GetString(errors.ContextStage)
	require.True(t, ok)
	assert.Equal(t, string(StageDiscoverPages), stage)
	assert.True(t, errors.IsNotFound(se))

	_, tagged := orig.Context().GetString(errors.ContextStage)
	assert.False(t, tagged, "original error must not be mutated")

	pre := errors.BuildError("x").WithContext(errors.ContextStage, "bundle_scripts").Build()
	ce, _ = errors.AsClassified(classify(StageRenderPages, pre))
	stage, _ = ce.Context().GetString(errors.ContextStage)
	assert.Equal(t, "bundle_scripts", stage)
}

func TestClassify_PassesStageError(t *testing.T) {
	in := newCanceledStageError(StagePublish, context.Canceled)
	assert.Same(t, in, classify(StageWritePages, fmt.Errorf("wrap: %w", in)))
}
