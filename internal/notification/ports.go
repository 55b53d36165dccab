package notification

import (
	"context"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
)

// HabitStore reads habits. A missing habit is reported either as a nil habit with a nil
// error or as a NotFound error.
type HabitStore interface {
	GetHabit(ctx context.Context, id string) (*models.Habit, error)
	// ListHabitsWithReminders returns every live habit that has a reminder configured,
	// enabled or not.
	ListHabitsWithReminders(ctx context.Context) ([]models.Habit, error)
}

// RecordStore reads completion records. A nil record with a nil error means nothing was
// recorded for that day.
type RecordStore interface {
	GetRecord(ctx context.Context, habitID string, date time.Time) (*models.HabitRecord, error)
}

// ConfigStore persists reminder configuration and the app-wide reminder toggle.
type ConfigStore interface {
	SaveNotificationConfig(ctx context.Context, cfg models.NotificationConfig) error
	SetGlobalEnabled(ctx context.Context, enabled bool) error
	GlobalEnabled(ctx context.Context) (bool, error)
}

// RequestOutcome is what the OS answers to a permission prompt.
type RequestOutcome int

const (
	RequestGranted RequestOutcome = iota
	RequestDeniedCanRetry
	RequestDeniedPermanently
)

// PermissionGateway talks to the OS notification permission layer.
type PermissionGateway interface {
	HasSystemPermission(ctx context.Context) (bool, error)
	RequestSystemPermission(ctx context.Context) (RequestOutcome, error)
	// IsGloballyEnabled reports the system-level switch for this app's notifications.
	IsGloballyEnabled(ctx context.Context) (bool, error)
	OpenSystemSettings(ctx context.Context) (bool, error)
}

// PermanentDenialReporter is implemented by gateways that can tell, without prompting,
// that asking for permission again cannot succeed.
type PermanentDenialReporter interface {
	PermissionPermanentlyDenied(ctx context.Context) (bool, error)
}

// AlarmGateway arms one-shot wakes. Arming a habit that is already armed replaces the
// previous alarm.
type AlarmGateway interface {
	ArmOneShot(ctx context.Context, habitID string, at time.Time, payload string) error
	Cancel(ctx context.Context, habitID string) error
	IsArmed(ctx context.Context, habitID string) (bool, error)
}

// Notification is a reminder ready for display.
type Notification struct {
	HabitID       string `json:"habit_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	OfferComplete bool   `json:"offer_complete"`
	Sound         bool   `json:"sound"`
	Vibrate       bool   `json:"vibrate"`
}

type NotificationPresenter interface {
	Show(ctx context.Context, n Notification) error
}
