// Package notification arms, disarms and fires habit reminders on top of one-shot OS alarms.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/streaklit/internal/constants"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/recurrence"
	"github.com/julianstephens/streaklit/internal/utils"
)

const defaultHorizon = constants.DefaultSearchHorizonDays

// Deps are the collaborators the orchestrator drives. Records may be nil.
type Deps struct {
	Habits      HabitStore
	Records     RecordStore
	Configs     ConfigStore
	Permissions PermissionGateway
	Alarms      AlarmGateway
	Presenter   NotificationPresenter
}

type Options struct {
	PermissionTTL     time.Duration
	BatchConcurrency  int
	SearchHorizonDays int
	Sound             bool
	Vibrate           bool
	Location          *time.Location
	Logger            *log.Logger
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PermissionTTL <= 0 {
		o.PermissionTTL = constants.DefaultPermissionTTL
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = constants.DefaultBatchConcurrency
	}
	if o.SearchHorizonDays <= 0 {
		o.SearchHorizonDays = defaultHorizon
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Orchestrator owns the reminder state machine. Operations on the same habit are
// serialized; operations on different habits run independently.
type Orchestrator struct {
	habits    HabitStore
	records   RecordStore
	configs   ConfigStore
	gateway   PermissionGateway
	alarms    AlarmGateway
	presenter NotificationPresenter

	opts    Options
	planner Planner
	perms   *permissionCache
	locks   *keyedMutex
	log     *log.Logger
}

func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		habits:    deps.Habits,
		records:   deps.Records,
		configs:   deps.Configs,
		gateway:   deps.Permissions,
		alarms:    deps.Alarms,
		presenter: deps.Presenter,
		opts:      opts,
		planner:   Planner{Location: opts.Location, HorizonDays: opts.SearchHorizonDays},
		perms:     newPermissionCache(opts.PermissionTTL, opts.Now),
		locks:     newKeyedMutex(),
		log:       logger.Or(opts.Logger),
	}
}

// Planner returns the planner used for reminder times.
func (o *Orchestrator) Planner() Planner {
	return o.planner
}

type alarmPayload struct {
	HabitID string `json:"habit_id"`
	Time    string `json:"time"`
}

func payloadFor(cfg models.NotificationConfig) string {
	data, _ := json.Marshal(alarmPayload{HabitID: cfg.HabitID, Time: cfg.Time})
	return string(data)
}

func (o *Orchestrator) loadHabit(ctx context.Context, op, habitID string) (*models.Habit, error) {
	h, err := o.habits.GetHabit(ctx, habitID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		return nil, apperr.Repository(op, err)
	}
	if h == nil {
		return nil, apperr.NotFound(op, "habit %s not found", habitID)
	}
	return h, nil
}

// HabitState returns the reminder state of one habit.
func (o *Orchestrator) HabitState(ctx context.Context, habitID string) (ScheduleState, error) {
	h, err := o.loadHabit(ctx, "reminder state", habitID)
	if err != nil {
		return nil, err
	}
	return StateOf(*h), nil
}

// EnableHabitNotification validates and stores a reminder for habitID and arms its next
// occurrence. Invalid input is rejected before anything is written. Permission must be
// granted. When the app-wide toggle is off the reminder is saved enabled but not armed.
func (o *Orchestrator) EnableHabitNotification(ctx context.Context, habitID, at string, period models.NotificationPeriod) error {
	const op = "enable reminder"

	tod, err := models.ParseTimeOfDay(at)
	if err != nil {
		return err
	}
	if err := models.ValidatePeriod(period); err != nil {
		return err
	}

	unlock := o.locks.Lock(habitID)
	defer unlock()

	habit, err := o.loadHabit(ctx, op, habitID)
	if err != nil {
		return err
	}
	if err := PermissionErr(op, o.Permission(ctx)); err != nil {
		return err
	}

	cfg := models.NotificationConfig{
		HabitID:   habitID,
		Time:      tod.String(),
		Enabled:   true,
		Period:    period,
		UpdatedAt: o.opts.Now(),
	}

	on, err := o.configs.GlobalEnabled(ctx)
	if err != nil {
		return apperr.Repository(op, err)
	}
	if !on {
		if err := o.configs.SaveNotificationConfig(ctx, cfg); err != nil {
			return apperr.Repository(op, err)
		}
		o.log.Info("Reminder saved while reminders are off", "habit", habitID)
		return nil
	}

	return o.armAndSave(ctx, op, *habit, cfg)
}

// armAndSave arms the next occurrence and then persists cfg. A failed write cancels the
// alarm again so the two never disagree.
func (o *Orchestrator) armAndSave(ctx context.Context, op string, habit models.Habit, cfg models.NotificationConfig) error {
	next, err := o.planner.First(cfg, habit, o.opts.Now())
	if err != nil {
		return err
	}
	if err := o.alarms.ArmOneShot(ctx, habit.ID, next, payloadFor(cfg)); err != nil {
		return wrapAlarmErr(op, err)
	}
	if err := o.configs.SaveNotificationConfig(ctx, cfg); err != nil {
		if cerr := o.alarms.Cancel(context.WithoutCancel(ctx), habit.ID); cerr != nil {
			o.log.Error("Failed to roll back alarm", "habit", habit.ID, "error", cerr)
		}
		return apperr.Repository(op, err)
	}
	o.log.Debug("Reminder armed", "habit", habit.ID, "at", next)
	return nil
}

func wrapAlarmErr(op string, err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return apperr.ServiceUnavailable(op, err)
}

// DisableHabitNotification cancels and disables a habit's reminder. Disabling a reminder
// that is already off succeeds.
func (o *Orchestrator) DisableHabitNotification(ctx context.Context, habitID string) error {
	const op = "disable reminder"

	unlock := o.locks.Lock(habitID)
	defer unlock()

	habit, err := o.loadHabit(ctx, op, habitID)
	if err != nil {
		return err
	}
	// The config is written first so a failed write leaves the reminder armed and enabled.
	if habit.Reminder != nil && habit.Reminder.Enabled {
		cfg := habit.Reminder.WithEnabled(false)
		cfg.HabitID = habitID
		cfg.UpdatedAt = o.opts.Now()
		if err := o.configs.SaveNotificationConfig(ctx, cfg); err != nil {
			return apperr.Repository(op, err)
		}
	}
	if err := o.alarms.Cancel(ctx, habitID); err != nil {
		return wrapAlarmErr(op, err)
	}
	return nil
}

func enabledReminders(habits []models.Habit) []models.Habit {
	var out []models.Habit
	for _, h := range habits {
		if h.Reminder != nil && h.Reminder.Enabled {
			out = append(out, h)
		}
	}
	return out
}

func (o *Orchestrator) listEnabled(ctx context.Context, op string) ([]models.Habit, error) {
	habits, err := o.habits.ListHabitsWithReminders(ctx)
	if err != nil {
		return nil, apperr.Repository(op, err)
	}
	return enabledReminders(habits), nil
}

// EnableGlobalNotifications turns the app-wide toggle on and re-arms every habit whose
// reminder was enabled.
func (o *Orchestrator) EnableGlobalNotifications(ctx context.Context) BatchResult {
	const op = "enable all reminders"

	if err := o.configs.SetGlobalEnabled(ctx, true); err != nil {
		return BatchError{Cause: apperr.Repository(op, err)}
	}
	habits, err := o.listEnabled(ctx, op)
	if err != nil {
		return BatchError{Cause: err}
	}

	return o.runBatch(ctx, op, habits, func(ctx context.Context, h models.Habit) error {
		unlock := o.locks.Lock(h.ID)
		defer unlock()

		if err := PermissionErr(op, o.Permission(ctx)); err != nil {
			return err
		}
		cfg := *h.Reminder
		cfg.HabitID = h.ID
		return o.armAndSave(ctx, op, h, cfg)
	})
}

// DisableGlobalNotifications turns the app-wide toggle off and cancels every armed
// reminder. Per-habit configs stay enabled so EnableGlobalNotifications can restore them.
func (o *Orchestrator) DisableGlobalNotifications(ctx context.Context) BatchResult {
	const op = "disable all reminders"

	if err := o.configs.SetGlobalEnabled(ctx, false); err != nil {
		return BatchError{Cause: apperr.Repository(op, err)}
	}
	habits, err := o.listEnabled(ctx, op)
	if err != nil {
		return BatchError{Cause: err}
	}

	return o.runBatch(ctx, op, habits, func(ctx context.Context, h models.Habit) error {
		unlock := o.locks.Lock(h.ID)
		defer unlock()

		if err := o.alarms.Cancel(ctx, h.ID); err != nil {
			return wrapAlarmErr(op, err)
		}
		return nil
	})
}

// Reschedule re-arms every enabled reminder whose alarm is missing, e.g. after a reboot.
// Nothing is armed while the app-wide toggle is off.
func (o *Orchestrator) Reschedule(ctx context.Context) BatchResult {
	const op = "reschedule reminders"

	on, err := o.configs.GlobalEnabled(ctx)
	if err != nil {
		return BatchError{Cause: apperr.Repository(op, err)}
	}
	if !on {
		return BatchSuccess{}
	}
	habits, err := o.listEnabled(ctx, op)
	if err != nil {
		return BatchError{Cause: err}
	}

	return o.runBatch(ctx, op, habits, func(ctx context.Context, h models.Habit) error {
		unlock := o.locks.Lock(h.ID)
		defer unlock()

		armed, err := o.alarms.IsArmed(ctx, h.ID)
		if err != nil {
			return wrapAlarmErr(op, err)
		}
		if armed {
			return nil
		}
		if err := PermissionErr(op, o.Permission(ctx)); err != nil {
			return err
		}
		cfg := *h.Reminder
		cfg.HabitID = h.ID
		next, err := o.planner.First(cfg, h, o.opts.Now())
		if err != nil {
			return err
		}
		if err := o.alarms.ArmOneShot(ctx, h.ID, next, payloadFor(cfg)); err != nil {
			return wrapAlarmErr(op, err)
		}
		return nil
	})
}

// HandleFire runs when a habit's alarm goes off. It arms the next occurrence first and then
// shows the reminder. A failed re-arm is logged and never prevents the display. When the
// habit's activity for today cannot be determined the reminder offers completion anyway.
func (o *Orchestrator) HandleFire(ctx context.Context, habitID string, firedAt time.Time) error {
	const op = "fire reminder"

	unlock := o.locks.Lock(habitID)
	defer unlock()

	// An alarm claimed after downtime is handled as today's reminder, so it shows once and
	// re-arms into the future instead of replaying every missed day.
	firedDate := utils.Day(firedAt.In(o.opts.Location))
	now := o.opts.Now().In(o.opts.Location)
	if today := utils.Day(now); today.After(firedDate) {
		firedDate = today
	}

	habit, err := o.habits.GetHabit(ctx, habitID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		habit, err = nil, nil
	}
	if err != nil {
		o.log.Error("Failed to load habit for reminder", "habit", habitID, "error", err)
		return o.show(ctx, op, Notification{
			HabitID:       habitID,
			Title:         "Habit reminder",
			Body:          "Time to check in on your habit.",
			OfferComplete: true,
		})
	}
	if habit == nil {
		o.log.Warn("Reminder fired for missing habit", "habit", habitID)
		if err := o.alarms.Cancel(ctx, habitID); err != nil {
			o.log.Error("Failed to cancel orphaned alarm", "habit", habitID, "error", err)
		}
		return apperr.NotFound(op, "habit %s not found", habitID)
	}
	if habit.ArchivedAt != nil {
		o.log.Debug("Reminder fired for archived habit", "habit", habitID)
		if err := o.alarms.Cancel(ctx, habitID); err != nil {
			o.log.Error("Failed to cancel alarm of archived habit", "habit", habitID, "error", err)
		}
		return nil
	}
	if habit.Reminder == nil || !habit.Reminder.Enabled {
		o.log.Debug("Reminder fired after being disabled", "habit", habitID)
		return nil
	}
	if on, err := o.configs.GlobalEnabled(ctx); err != nil {
		o.log.Warn("Could not read global reminder toggle", "error", err)
	} else if !on {
		o.log.Debug("Reminder fired while reminders are off", "habit", habitID)
		return nil
	}

	o.rearm(ctx, *habit, firedDate, now)

	return o.show(ctx, op, o.compose(ctx, *habit, firedDate))
}

// rearm arms the first occurrence after firedDate that is still ahead of now.
func (o *Orchestrator) rearm(ctx context.Context, habit models.Habit, firedDate, now time.Time) {
	cfg := *habit.Reminder
	cfg.HabitID = habit.ID
	next, err := o.planner.Next(cfg, habit, firedDate)
	if err == nil && !next.After(now) {
		next, err = o.planner.First(cfg, habit, now)
	}
	if err != nil {
		o.log.Error("Failed to compute next reminder", "habit", habit.ID, "error", err)
		return
	}
	if err := o.alarms.ArmOneShot(ctx, habit.ID, next, payloadFor(cfg)); err != nil {
		o.log.Error("Failed to re-arm reminder", "habit", habit.ID, "at", next, "error", err)
		return
	}
	o.log.Debug("Reminder re-armed", "habit", habit.ID, "at", next)
}

// compose builds the message for a fired reminder. Activity is judged by the habit's
// recurrence rule, not the reminder period.
func (o *Orchestrator) compose(ctx context.Context, habit models.Habit, day time.Time) Notification {
	n := Notification{
		HabitID: habit.ID,
		Title:   habit.Title,
		Sound:   o.opts.Sound,
		Vibrate: o.opts.Vibrate,
	}

	if !o.activeOn(habit, day) {
		n.Body = fmt.Sprintf("Rest day: %s is not scheduled today.", habit.Title)
		return n
	}

	n.OfferComplete = true
	n.Body = fmt.Sprintf("Time for %s.", habit.Title)
	if o.records == nil {
		return n
	}
	rec, err := o.records.GetRecord(ctx, habit.ID, day)
	if err != nil {
		o.log.Warn("Could not read today's progress", "habit", habit.ID, "error", err)
		return n
	}
	if rec != nil && rec.CompletedCount > 0 {
		target := habit.EffectiveTarget()
		if rec.IsFullyCompleted(target) {
			n.Body = fmt.Sprintf("%s is already done today.", habit.Title)
		} else {
			n.Body = fmt.Sprintf("Time for %s (%d/%d today).", habit.Title, rec.CompletedCount, target)
		}
	}
	return n
}

// activeOn fails open: a rule that cannot be evaluated counts as active.
func (o *Orchestrator) activeOn(habit models.Habit, day time.Time) (active bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Could not evaluate recurrence", "habit", habit.ID, "panic", r)
			active = true
		}
	}()
	if habit.Frequency == nil {
		return true
	}
	return recurrence.IsActive(habit.Frequency, habit.CreatedAt, day)
}

func (o *Orchestrator) show(ctx context.Context, op string, n Notification) error {
	if err := o.presenter.Show(ctx, n); err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return err
		}
		return apperr.ServiceUnavailable(op, err)
	}
	return nil
}
