package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperr "github.com/julianstephens/streaklit/internal/errors"
)

// PermissionResult is the outcome of a permission check or request. The variants are
// Granted, DeniedCanAskAgain, DeniedPermanently, GloballyDisabled and PermissionError.
type PermissionResult interface {
	isPermissionResult()
}

type Granted struct{}

type DeniedCanAskAgain struct{}

type DeniedPermanently struct{}

// GloballyDisabled means the system switch for this app is off. Only a settings visit can
// change it.
type GloballyDisabled struct{}

type PermissionError struct {
	Cause error
}

func (Granted) isPermissionResult()           {}
func (DeniedCanAskAgain) isPermissionResult() {}
func (DeniedPermanently) isPermissionResult() {}
func (GloballyDisabled) isPermissionResult()  {}
func (PermissionError) isPermissionResult()   {}

type PermissionCases[T any] struct {
	Granted           func(Granted) T
	DeniedCanAskAgain func(DeniedCanAskAgain) T
	DeniedPermanently func(DeniedPermanently) T
	GloballyDisabled  func(GloballyDisabled) T
	PermissionError   func(PermissionError) T
}

// MatchPermission dispatches r to the matching case. Every case must be set.
func MatchPermission[T any](r PermissionResult, cases PermissionCases[T]) T {
	switch p := r.(type) {
	case Granted:
		return cases.Granted(p)
	case DeniedCanAskAgain:
		return cases.DeniedCanAskAgain(p)
	case DeniedPermanently:
		return cases.DeniedPermanently(p)
	case GloballyDisabled:
		return cases.GloballyDisabled(p)
	case PermissionError:
		return cases.PermissionError(p)
	default:
		panic(fmt.Sprintf("notification: unhandled permission result %T", r))
	}
}

func FormatPermission(r PermissionResult) string {
	return MatchPermission(r, PermissionCases[string]{
		Granted:           func(Granted) string { return "granted" },
		DeniedCanAskAgain: func(DeniedCanAskAgain) string { return "denied (can ask again)" },
		DeniedPermanently: func(DeniedPermanently) string { return "denied permanently" },
		GloballyDisabled:  func(GloballyDisabled) string { return "disabled in system settings" },
		PermissionError: func(p PermissionError) string {
			return fmt.Sprintf("error: %v", p.Cause)
		},
	})
}

// PermissionErr converts a non-granted result into the typed error callers receive.
func PermissionErr(op string, r PermissionResult) error {
	return MatchPermission(r, PermissionCases[error]{
		Granted:           func(Granted) error { return nil },
		DeniedCanAskAgain: func(DeniedCanAskAgain) error { return apperr.PermissionDenied(op, true) },
		DeniedPermanently: func(DeniedPermanently) error { return apperr.PermissionDenied(op, false) },
		GloballyDisabled:  func(GloballyDisabled) error { return apperr.GloballyDisabled(op) },
		PermissionError: func(p PermissionError) error {
			return apperr.ServiceUnavailable(op, p.Cause)
		},
	})
}

// permissionCache remembers the last permission result for ttl. Invalidate drops it; call
// it whenever the app returns to the foreground since the user may have changed settings.
type permissionCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	result    PermissionResult
	checkedAt time.Time
	// permanent is sticky until a check sees the permission granted again.
	permanent bool
}

func newPermissionCache(ttl time.Duration, now func() time.Time) *permissionCache {
	return &permissionCache{ttl: ttl, now: now}
}

func (c *permissionCache) get() (PermissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil || c.now().Sub(c.checkedAt) >= c.ttl {
		return nil, false
	}
	return c.result, true
}

func (c *permissionCache) put(r PermissionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch r.(type) {
	case Granted:
		c.permanent = false
	case DeniedPermanently:
		c.permanent = true
	case PermissionError:
		// errors are never cached
		c.result = nil
		return
	}
	c.result = r
	c.checkedAt = c.now()
}

func (c *permissionCache) deniedPermanently() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permanent
}

func (c *permissionCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
}

// Permission returns the current permission result, querying the OS when the cached value
// is missing or stale.
func (o *Orchestrator) Permission(ctx context.Context) PermissionResult {
	if r, ok := o.perms.get(); ok {
		return r
	}
	r := o.queryPermission(ctx)
	o.perms.put(r)
	return r
}

func (o *Orchestrator) queryPermission(ctx context.Context) PermissionResult {
	enabled, err := o.gateway.IsGloballyEnabled(ctx)
	if err != nil {
		return PermissionError{Cause: err}
	}
	if !enabled {
		return GloballyDisabled{}
	}
	has, err := o.gateway.HasSystemPermission(ctx)
	if err != nil {
		return PermissionError{Cause: err}
	}
	if has {
		return Granted{}
	}
	if o.perms.deniedPermanently() {
		return DeniedPermanently{}
	}
	if reporter, ok := o.gateway.(PermanentDenialReporter); ok {
		permanent, err := reporter.PermissionPermanentlyDenied(ctx)
		if err != nil {
			return PermissionError{Cause: err}
		}
		if permanent {
			return DeniedPermanently{}
		}
	}
	return DeniedCanAskAgain{}
}

// Invalidate drops the cached permission result so the next check asks the OS.
func (o *Orchestrator) Invalidate() {
	o.perms.invalidate()
}

// CheckGlobalState resolves the app-wide reminder state from a fresh permission check and
// the app toggle.
func (o *Orchestrator) CheckGlobalState(ctx context.Context) (GlobalState, error) {
	const op = "check notification state"

	o.Invalidate()
	r := o.Permission(ctx)
	if p, ok := r.(PermissionError); ok {
		return StateUnknown, apperr.ServiceUnavailable(op, p.Cause)
	}
	if _, ok := r.(Granted); !ok {
		return StateNeedsSystemPermission, nil
	}

	on, err := o.configs.GlobalEnabled(ctx)
	if err != nil {
		return StateUnknown, apperr.Repository(op, err)
	}
	if !on {
		return StateNeedsGlobalEnable, nil
	}
	return StateEnabled, nil
}

// RequestPermission prompts the OS for permission. No prompt is made when the permission is
// already granted, permanently denied or blocked by the system switch; the caller should
// offer OpenSettings for the last two.
func (o *Orchestrator) RequestPermission(ctx context.Context) PermissionResult {
	o.Invalidate()
	current := o.Permission(ctx)
	switch current.(type) {
	case Granted, DeniedPermanently, GloballyDisabled, PermissionError:
		return current
	}

	outcome, err := o.gateway.RequestSystemPermission(ctx)
	var r PermissionResult
	switch {
	case err != nil:
		r = PermissionError{Cause: err}
	case outcome == RequestGranted:
		r = Granted{}
	case outcome == RequestDeniedPermanently:
		r = DeniedPermanently{}
	default:
		r = DeniedCanAskAgain{}
	}
	o.perms.put(r)
	o.log.Info("Notification permission requested", "result", FormatPermission(r))
	return r
}

// OpenSettings deep-links to the system notification settings. The cached permission is
// dropped since the user is likely to change it there.
func (o *Orchestrator) OpenSettings(ctx context.Context) (bool, error) {
	o.Invalidate()
	opened, err := o.gateway.OpenSystemSettings(ctx)
	if err != nil {
		return false, apperr.ServiceUnavailable("open notification settings", err)
	}
	return opened, nil
}
