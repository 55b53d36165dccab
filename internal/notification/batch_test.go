package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperr "github.com/julianstephens/streaklit/internal/errors"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want FailureType
	}{
		{apperr.InvalidInput("parse time", "bad"), FailureInvalidTimeFormat},
		{apperr.PermissionDenied("op", true), FailurePermissionDenied},
		{apperr.GloballyDisabled("op"), FailurePermissionDenied},
		{apperr.ServiceUnavailable("op", errors.New("x")), FailureServiceUnavailable},
		{apperr.Repository("op", errors.New("x")), FailureScheduling},
		{fmt.Errorf("wrap: %w", ErrNoOccurrence), FailureScheduling},
		{errors.New("mystery"), FailureUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), tt.err.Error())
	}
}

func TestBatchTallyResult(t *testing.T) {
	t.Parallel()

	empty := &batchTally{}
	assert.Equal(t, BatchSuccess{}, empty.result())

	interrupted := &batchTally{}
	interrupted.skip("b")
	interrupted.skip("a")
	assert.Equal(t, PartialSuccess{NotAttempted: []string{"a", "b"}}, interrupted.result())

	failed := &batchTally{}
	failed.fail(newFailure("x", context.Canceled))
	_, isErr := failed.result().(BatchError)
	assert.True(t, isErr)
}

func TestFormatBatch(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "updated 3 reminders", FormatBatch(BatchSuccess{Count: 3}))
	assert.Equal(t, "updated 4 reminders, 1 failed, 2 not attempted",
		FormatBatch(PartialSuccess{SuccessCount: 4, FailureCount: 1, NotAttempted: []string{"a", "b"}}))
	assert.Equal(t, "failed: all 2 habits failed", FormatBatch(BatchError{Failures: make([]Failure, 2)}))
}
