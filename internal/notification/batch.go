package notification

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
)

// FailureType classifies a single habit's failure inside a batch.
type FailureType string

const (
	FailureInvalidTimeFormat  FailureType = "INVALID_TIME_FORMAT"
	FailureScheduling         FailureType = "SCHEDULING_ERROR"
	FailureServiceUnavailable FailureType = "SERVICE_UNAVAILABLE"
	FailurePermissionDenied   FailureType = "PERMISSION_DENIED"
	FailureUnknown            FailureType = "UNKNOWN"
)

// Failure is one habit that could not be processed.
type Failure struct {
	HabitID   string      `json:"habit_id"`
	Type      FailureType `json:"error_type"`
	Retryable bool        `json:"retryable"`
	Err       error       `json:"-"`
}

// Classify maps an orchestrator error onto a batch failure type.
func Classify(err error) FailureType {
	if stderrors.Is(err, ErrNoOccurrence) {
		return FailureScheduling
	}
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return FailureInvalidTimeFormat
	case apperr.KindPermissionDenied, apperr.KindGloballyDisabled:
		return FailurePermissionDenied
	case apperr.KindServiceUnavailable:
		return FailureServiceUnavailable
	case apperr.KindRepositoryError, apperr.KindNotFound:
		return FailureScheduling
	default:
		return FailureUnknown
	}
}

func newFailure(habitID string, err error) Failure {
	t := Classify(err)
	retryable := apperr.IsRetryable(err)
	if t == FailureInvalidTimeFormat {
		retryable = false
	}
	return Failure{HabitID: habitID, Type: t, Retryable: retryable, Err: err}
}

// BatchResult is the outcome of an operation over many habits: BatchSuccess,
// PartialSuccess or BatchError.
type BatchResult interface {
	isBatchResult()
}

// BatchSuccess means every habit was processed.
type BatchSuccess struct {
	Count int
}

// PartialSuccess means the batch finished with some failures, or was interrupted before
// every habit was attempted. NotAttempted habits were left untouched.
type PartialSuccess struct {
	SuccessCount int
	FailureCount int
	Failures     []Failure
	NotAttempted []string
}

// BatchError means nothing succeeded. Cause is set when the batch failed before touching
// any habit.
type BatchError struct {
	Cause        error
	Failures     []Failure
	NotAttempted []string
}

func (BatchSuccess) isBatchResult()   {}
func (PartialSuccess) isBatchResult() {}
func (BatchError) isBatchResult()     {}

func (e BatchError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return fmt.Sprintf("all %d habits failed", len(e.Failures))
}

// FormatBatch renders a result as one line.
func FormatBatch(r BatchResult) string {
	switch b := r.(type) {
	case BatchSuccess:
		return fmt.Sprintf("updated %d reminders", b.Count)
	case PartialSuccess:
		s := fmt.Sprintf("updated %d reminders, %d failed", b.SuccessCount, b.FailureCount)
		if n := len(b.NotAttempted); n > 0 {
			s += fmt.Sprintf(", %d not attempted", n)
		}
		return s
	case BatchError:
		return "failed: " + b.Error()
	default:
		return "unknown result"
	}
}

type batchTally struct {
	mu           sync.Mutex
	success      int
	failures     []Failure
	notAttempted []string
}

func (t *batchTally) ok() {
	t.mu.Lock()
	t.success++
	t.mu.Unlock()
}

func (t *batchTally) fail(f Failure) {
	t.mu.Lock()
	t.failures = append(t.failures, f)
	t.mu.Unlock()
}

func (t *batchTally) skip(id string) {
	t.mu.Lock()
	t.notAttempted = append(t.notAttempted, id)
	t.mu.Unlock()
}

func (t *batchTally) result() BatchResult {
	sort.Slice(t.failures, func(i, j int) bool { return t.failures[i].HabitID < t.failures[j].HabitID })
	sort.Strings(t.notAttempted)

	switch {
	case len(t.failures) == 0 && len(t.notAttempted) == 0:
		return BatchSuccess{Count: t.success}
	case t.success == 0 && len(t.failures) > 0:
		return BatchError{Failures: t.failures, NotAttempted: t.notAttempted}
	default:
		return PartialSuccess{
			SuccessCount: t.success,
			FailureCount: len(t.failures),
			Failures:     t.failures,
			NotAttempted: t.notAttempted,
		}
	}
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded))
}

// runBatch applies fn to every habit with at most limit in flight. One habit's failure never
// stops the others. Once ctx is done the remaining habits are reported as not attempted.
func (o *Orchestrator) runBatch(ctx context.Context, name string, habits []models.Habit, fn func(context.Context, models.Habit) error) BatchResult {
	tally := &batchTally{}

	var g errgroup.Group
	g.SetLimit(max(1, o.opts.BatchConcurrency))

	for _, h := range habits {
		if ctx.Err() != nil {
			tally.skip(h.ID)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				tally.skip(h.ID)
				return nil
			}
			err := fn(ctx, h)
			switch {
			case err == nil:
				tally.ok()
			case isCancellation(ctx, err):
				tally.skip(h.ID)
			default:
				o.log.Warn("Reminder batch item failed", "batch", name, "habit", h.ID, "error", err)
				tally.fail(newFailure(h.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	r := tally.result()
	o.log.Info("Reminder batch finished", "batch", name, "result", FormatBatch(r))
	return r
}
