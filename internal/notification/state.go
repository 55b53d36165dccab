package notification

import (
	"fmt"

	"github.com/julianstephens/streaklit/internal/models"
)

// GlobalState is the app-wide reminder state derived from OS permission and the app toggle.
type GlobalState int

const (
	StateUnknown GlobalState = iota
	StateNeedsSystemPermission
	StateNeedsGlobalEnable
	StateEnabled
)

func (s GlobalState) String() string {
	switch s {
	case StateNeedsSystemPermission:
		return "needs_system_permission"
	case StateNeedsGlobalEnable:
		return "needs_global_enable"
	case StateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// ScheduleState is a habit's reminder state: NoReminder, Scheduled or Disabled.
type ScheduleState interface {
	isScheduleState()
}

type NoReminder struct{}

type Scheduled struct {
	Time   models.TimeOfDay
	Period models.NotificationPeriod
}

type Disabled struct{}

func (NoReminder) isScheduleState() {}
func (Scheduled) isScheduleState()  {}
func (Disabled) isScheduleState()   {}

// StateOf derives the schedule state from a habit's stored reminder. A stored time that no
// longer parses is reported as Scheduled at midnight so the caller still sees the intent.
func StateOf(h models.Habit) ScheduleState {
	cfg := h.Reminder
	switch {
	case cfg == nil:
		return NoReminder{}
	case !cfg.Enabled:
		return Disabled{}
	default:
		tod, _ := models.ParseTimeOfDay(cfg.Time)
		return Scheduled{Time: tod, Period: cfg.Period}
	}
}

func FormatState(s ScheduleState) string {
	switch st := s.(type) {
	case NoReminder:
		return "no reminder"
	case Disabled:
		return "disabled"
	case Scheduled:
		return fmt.Sprintf("scheduled at %s, %s", st.Time, models.FormatPeriod(st.Period))
	default:
		return "unknown"
	}
}
