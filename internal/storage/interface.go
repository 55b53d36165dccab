package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
)

// ListOptions filters habit listings. Archived and soft-deleted habits are hidden unless
// asked for.
type ListOptions struct {
	IncludeArchived bool
	IncludeDeleted  bool
}

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
	GlobalEnabled(ctx context.Context) (bool, error)
	SetGlobalEnabled(ctx context.Context, enabled bool) error

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, id string) (*models.Habit, error)
	GetHabitByTitle(ctx context.Context, title string) (*models.Habit, error)
	ListHabits(ctx context.Context, opts ListOptions) ([]models.Habit, error)
	ListHabitsWithReminders(ctx context.Context) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error
	ArchiveHabit(ctx context.Context, id string) error
	UnarchiveHabit(ctx context.Context, id string) error
	DeleteHabit(ctx context.Context, id string) error
	RestoreHabit(ctx context.Context, id string) error

	// Records
	UpsertRecord(ctx context.Context, record models.HabitRecord) error
	GetRecord(ctx context.Context, habitID string, date time.Time) (*models.HabitRecord, error)
	DeleteRecord(ctx context.Context, habitID string, date time.Time) error
	ListRecords(ctx context.Context, habitID string, from, to time.Time) ([]models.HabitRecord, error)
	FullyCompletedDates(ctx context.Context, habitID string) ([]time.Time, error)

	// Reminders
	SaveNotificationConfig(ctx context.Context, cfg models.NotificationConfig) error
	DeleteNotificationConfig(ctx context.Context, habitID string) error

	// Alarms
	ArmOneShot(ctx context.Context, habitID string, at time.Time, payload string) error
	Cancel(ctx context.Context, habitID string) error
	IsArmed(ctx context.Context, habitID string) (bool, error)
	GetAlarm(ctx context.Context, habitID string) (*models.Alarm, error)
	ListAlarms(ctx context.Context) ([]models.Alarm, error)
	DueAlarms(ctx context.Context, now time.Time) ([]models.Alarm, error)
	ClaimAlarm(ctx context.Context, alarm models.Alarm) (bool, error)

	// Utils
	GetConfigPath() string
	GetDB() *sql.DB
}
