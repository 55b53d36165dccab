package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/streaklit/internal/logger"
)

// Kind classifies a failure so callers can pick a recovery affordance without
// string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindPermissionDenied
	KindGloballyDisabled
	KindServiceUnavailable
	KindRepositoryError
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindPermissionDenied:
		return "permission_denied"
	case KindGloballyDisabled:
		return "globally_disabled"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindRepositoryError:
		return "repository_error"
	default:
		return "unknown"
	}
}

// Error is the typed error carried across the engine and orchestrator.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	// CanRetry is only meaningful for KindPermissionDenied: true when the OS still
	// allows the app to prompt again.
	CanRetry bool
	Err      error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works on
// wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
	ErrGloballyDisabled   = &Error{Kind: KindGloballyDisabled}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrRepository         = &Error{Kind: KindRepositoryError}
)

// NotFound reports a missing habit or record.
func NotFound(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InvalidInput reports malformed caller input (empty day sets, bad intervals, bad times).
func InvalidInput(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports a missing OS notification permission.
func PermissionDenied(op string, canRetry bool) *Error {
	msg := "notification permission denied"
	if !canRetry {
		msg = "notification permission permanently denied"
	}
	return &Error{Kind: KindPermissionDenied, Op: op, Msg: msg, CanRetry: canRetry}
}

// GloballyDisabled reports that notifications are switched off at the system level.
func GloballyDisabled(op string) *Error {
	return &Error{Kind: KindGloballyDisabled, Op: op, Msg: "notifications are disabled in system settings"}
}

// ServiceUnavailable wraps a failure of the OS scheduling or display primitive.
func ServiceUnavailable(op string, err error) *Error {
	return &Error{Kind: KindServiceUnavailable, Op: op, Msg: "notification service unavailable", Err: err}
}

// Repository wraps a persistence failure.
func Repository(op string, err error) *Error {
	return &Error{Kind: KindRepositoryError, Op: op, Msg: "repository error", Err: err}
}

// Wrap attaches a kind to an arbitrary error. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether offering "try again" makes sense for err. Permission
// failures are retryable only while the OS still allows prompting; a globally disabled
// state needs a settings visit instead.
func IsRetryable(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return err != nil
	}
	switch e.Kind {
	case KindPermissionDenied:
		return e.CanRetry
	case KindGloballyDisabled, KindInvalidInput, KindNotFound:
		return false
	default:
		return true
	}
}

// NeedsSettings reports whether the only way forward is the system settings screen.
func NeedsSettings(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == KindGloballyDisabled || (e.Kind == KindPermissionDenied && !e.CanRetry)
}

// UserMessage renders err for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case NeedsSettings(err):
		return "Notifications are blocked. Open system settings to allow them."
	case KindOf(err) == KindPermissionDenied:
		return "Notification permission is required. Grant it and try again."
	case KindOf(err) == KindInvalidInput || KindOf(err) == KindNotFound:
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
