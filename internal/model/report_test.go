package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport_AbortRecordsFatal(t *testing.T) {
	r := NewRunReport("run-1")
	r.Abort(ErrMissingRequiredSource)

	assert.Equal(t, ErrMissingRequiredSource.Error(), r.Fatal)
	assert.False(t, r.FinishedAt.IsZero())
}

func TestRunReport_FinishLeavesFatalEmpty(t *testing.T) {
	r := NewRunReport("run-1")
	r.Warn("minor")
	r.Finish()

	require.Empty(t, r.Fatal)
	assert.False(t, r.FinishedAt.IsZero())
}
