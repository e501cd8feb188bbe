package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTransitions(t *testing.T) {
	tests := []struct {
		from, to ProgressState
		allowed  bool
	}{
		{ProgressNotStarted, ProgressInProgress, true},
		{ProgressNotStarted, ProgressCompleted, false},
		{ProgressInProgress, ProgressCompleted, true},
		{ProgressInProgress, ProgressNotStarted, true},
		{ProgressInProgress, ProgressInProgress, false},
		{ProgressCompleted, ProgressInProgress, false},
		{ProgressCompleted, ProgressNotStarted, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLessonProgressAdvance(t *testing.T) {
	p := NewLessonProgress(uuid.New(), uuid.New())
	assert.Equal(t, ProgressInProgress, p.State)

	require.NoError(t, p.Advance(ProgressCompleted))
	assert.Equal(t, ProgressCompleted, p.State)

	assert.ErrorIs(t, p.Advance(ProgressCompleted), ErrInvalidTransition)
	assert.False(t, ProgressState("PAUSED").Valid())
}
