// Package app wires the store, the reminder orchestrator and the tray into one explicitly
// constructed value that OS entry points (the notify command and the serve loop) drive.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/streaklit/internal/config"
	"github.com/julianstephens/streaklit/internal/constants"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/notification"
	"github.com/julianstephens/streaklit/internal/notifier"
	"github.com/julianstephens/streaklit/internal/stats"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/streak"
	"github.com/julianstephens/streaklit/internal/utils"
)

// Gateway is the OS side of reminders: it displays notifications and answers permission
// questions. The tray notifier is the production implementation.
type Gateway interface {
	notification.NotificationPresenter
	notification.PermissionGateway
}

type App struct {
	Config       *config.Config
	Store        storage.Provider
	Orchestrator *notification.Orchestrator
	Streaks      *streak.Calculator

	pool       *notification.WorkerPool
	loc        *time.Location
	windowDays int
	now        func() time.Time
	log        *log.Logger
}

type Option func(*options)

type options struct {
	gateway Gateway
	logger  *log.Logger
	now     func() time.Time
}

// WithGateway replaces the tray notifier.
func WithGateway(g Gateway) Option {
	return func(o *options) { o.gateway = g }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the App around a loaded store. Timezone and stats window come from the stored
// settings when they were changed from their defaults, from cfg otherwise.
func New(ctx context.Context, cfg *config.Config, store storage.Provider, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	l := logger.Or(o.logger)

	if o.gateway == nil {
		o.gateway = notifier.New(notifier.Options{
			Identifier:       cfg.Tray.Identifier,
			ExecutablePrefix: cfg.Tray.ExecutablePrefix,
			Logger:           l,
		})
	}

	tz, window := cfg.Notifications.Timezone, cfg.Stats.WindowDays
	if s, err := store.GetSettings(ctx); err != nil {
		l.Warn("Could not read stored settings, using config", "error", err)
	} else {
		if s.Timezone != "" && s.Timezone != constants.DefaultTimezone {
			tz = s.Timezone
		}
		if s.StatsWindowDays > 0 && s.StatsWindowDays != constants.DefaultStatsWindowDays {
			window = s.StatsWindowDays
		}
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return nil, apperr.InvalidInput("load app", "invalid timezone %q", tz)
	}

	n := cfg.Notifications
	orch := notification.NewOrchestrator(notification.Deps{
		Habits:      store,
		Records:     store,
		Configs:     store,
		Permissions: o.gateway,
		Alarms:      store,
		Presenter:   o.gateway,
	}, notification.Options{
		PermissionTTL:     n.PermissionTTL,
		BatchConcurrency:  n.BatchConcurrency,
		SearchHorizonDays: n.SearchHorizonDays,
		Sound:             n.Sound,
		Vibrate:           n.Vibrate,
		Location:          loc,
		Logger:            l,
		Now:               o.now,
	})

	return &App{
		Config:       cfg,
		Store:        store,
		Orchestrator: orch,
		Streaks:      streak.NewCalculator(store, store),
		pool:         notification.NewWorkerPool(n.FireWorkers, l),
		loc:          loc,
		windowDays:   window,
		now:          o.now,
		log:          l,
	}, nil
}

// Now is the current instant from the app's clock.
func (a *App) Now() time.Time {
	return a.now()
}

func (a *App) Location() *time.Location {
	return a.loc
}

// Today is the current calendar date in the app's timezone.
func (a *App) Today() time.Time {
	return utils.Day(a.now().In(a.loc))
}

func (a *App) WindowDays() int {
	return a.windowDays
}

// ResolveHabit looks a habit up by ID first and by title second.
func (a *App) ResolveHabit(ctx context.Context, ref string) (*models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.InvalidInput("resolve habit", "habit reference cannot be empty")
	}
	h, err := a.Store.GetHabit(ctx, ref)
	if err == nil {
		return h, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}
	return a.Store.GetHabitByTitle(ctx, ref)
}

// Streak returns the current and longest streak of habitID as of today.
func (a *App) Streak(ctx context.Context, habitID string) (streak.Result, error) {
	return a.Streaks.Calculate(ctx, habitID, a.Today())
}

// Stats summarizes habitID's completions over the configured window.
func (a *App) Stats(ctx context.Context, habitID string) (stats.Summary, error) {
	const op = "habit stats"

	habit, err := a.Store.GetHabit(ctx, habitID)
	if err != nil {
		return stats.Summary{}, err
	}
	today := a.Today()
	records, err := a.Store.ListRecords(ctx, habitID, time.Time{}, today)
	if err != nil {
		return stats.Summary{}, apperr.Repository(op, err)
	}
	return stats.Summarize(*habit, records, today, a.windowDays), nil
}

// RecordProgress sets the completion count for habitID on date. When increment is true,
// count is added to what is already recorded. Future dates are rejected.
func (a *App) RecordProgress(ctx context.Context, habitID string, date time.Time, count int, increment bool, note string) (models.HabitRecord, error) {
	const op = "record progress"

	date = utils.Day(date)
	if date.After(a.Today()) {
		return models.HabitRecord{}, apperr.InvalidInput(op, "cannot record progress for future date %s", utils.FormatDay(date))
	}
	if count < 0 {
		return models.HabitRecord{}, apperr.InvalidInput(op, "count cannot be negative, got %d", count)
	}

	existing, err := a.Store.GetRecord(ctx, habitID, date)
	if err != nil {
		return models.HabitRecord{}, err
	}

	rec := models.HabitRecord{
		ID:             uuid.New().String(),
		HabitID:        habitID,
		Date:           date,
		CompletedCount: count,
		Note:           note,
		CompletedAt:    a.now(),
	}
	if existing != nil {
		rec.ID = existing.ID
		if increment {
			rec.CompletedCount += existing.CompletedCount
		}
		if note == "" {
			rec.Note = existing.Note
		}
	}

	if err := a.Store.UpsertRecord(ctx, rec); err != nil {
		return models.HabitRecord{}, err
	}
	return rec, nil
}

// ClearProgress removes the record of habitID on date.
func (a *App) ClearProgress(ctx context.Context, habitID string, date time.Time) error {
	return a.Store.DeleteRecord(ctx, habitID, utils.Day(date))
}

// UpdateHabit saves habit and re-arms its reminder, since a new frequency may move the
// next occurrence. A failed re-arm is logged; the edit itself stands.
func (a *App) UpdateHabit(ctx context.Context, habit models.Habit) error {
	if err := a.Store.UpdateHabit(ctx, habit); err != nil {
		return err
	}
	a.rearm(ctx, habit.ID)
	return nil
}

func (a *App) rearm(ctx context.Context, habitID string) {
	h, err := a.Store.GetHabit(ctx, habitID)
	if err != nil || h.Reminder == nil || !h.Reminder.Enabled || h.ArchivedAt != nil {
		return
	}
	if err := a.Orchestrator.EnableHabitNotification(ctx, h.ID, h.Reminder.Time, h.Reminder.Period); err != nil {
		a.log.Warn("Failed to re-arm reminder", "habit", h.ID, "error", err)
	}
}

// ArchiveHabit archives habitID and cancels its pending alarm.
func (a *App) ArchiveHabit(ctx context.Context, habitID string) error {
	if err := a.Store.ArchiveHabit(ctx, habitID); err != nil {
		return err
	}
	return a.cancel(ctx, "archive habit", habitID)
}

// UnarchiveHabit brings habitID back and re-arms its reminder.
func (a *App) UnarchiveHabit(ctx context.Context, habitID string) error {
	if err := a.Store.UnarchiveHabit(ctx, habitID); err != nil {
		return err
	}
	a.rearm(ctx, habitID)
	return nil
}

// DeleteHabit soft-deletes habitID and cancels its pending alarm.
func (a *App) DeleteHabit(ctx context.Context, habitID string) error {
	if err := a.Store.DeleteHabit(ctx, habitID); err != nil {
		return err
	}
	return a.cancel(ctx, "delete habit", habitID)
}

// RestoreHabit undoes a soft delete and re-arms the reminder.
func (a *App) RestoreHabit(ctx context.Context, habitID string) error {
	if err := a.Store.RestoreHabit(ctx, habitID); err != nil {
		return err
	}
	a.rearm(ctx, habitID)
	return nil
}

func (a *App) cancel(ctx context.Context, op, habitID string) error {
	if err := a.Store.Cancel(ctx, habitID); err != nil {
		return apperr.ServiceUnavailable(op, err)
	}
	return nil
}

// FireDue claims every alarm due now and runs its fire handler on the worker pool. It
// returns how many alarms were claimed. Another process that claimed an alarm first wins.
func (a *App) FireDue(ctx context.Context) (int, error) {
	now := a.now()
	due, err := a.Store.DueAlarms(ctx, now)
	if err != nil {
		return 0, apperr.Repository("fire due reminders", err)
	}

	fired := 0
	for _, alarm := range due {
		ok, err := a.Store.ClaimAlarm(ctx, alarm)
		if err != nil {
			a.log.Error("Failed to claim alarm", "habit", alarm.HabitID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		fired++
		a.Orchestrator.SubmitFire(ctx, a.pool, alarm.HabitID, alarm.At)
	}
	if err := a.pool.Wait(); err != nil {
		return fired, fmt.Errorf("fire due reminders: %w", err)
	}
	return fired, nil
}

// Run re-arms missing alarms once and then fires due alarms every interval until ctx is
// done. Fire failures are logged and never stop the loop.
func (a *App) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	res := a.Orchestrator.Reschedule(ctx)
	a.log.Info("Reminders rescheduled", "result", notification.FormatBatch(res))

	tick := func() {
		n, err := a.FireDue(ctx)
		if err != nil {
			a.log.Error("Reminder tick failed", "fired", n, "error", err)
		} else if n > 0 {
			a.log.Debug("Reminders fired", "count", n)
		}
	}

	tick()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tick()
		}
	}
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
