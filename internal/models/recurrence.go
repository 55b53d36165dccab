package models

import (
	"fmt"

	apperr "github.com/julianstephens/streaklit/internal/errors"
)

type RuleKind string

const (
	RuleDaily   RuleKind = "daily"
	RuleWeekly  RuleKind = "weekly"
	RuleMonthly RuleKind = "monthly"
	RuleCustom  RuleKind = "custom"
)

type IntervalUnit string

const (
	UnitDays   IntervalUnit = "days"
	UnitWeeks  IntervalUnit = "weeks"
	UnitMonths IntervalUnit = "months"
)

func (u IntervalUnit) valid() bool {
	return u == UnitDays || u == UnitWeeks || u == UnitMonths
}

// RecurrenceRule describes how often a habit recurs. The set of variants is closed:
// Daily, Weekly, Monthly and Custom are the only implementations.
type RecurrenceRule interface {
	Kind() RuleKind
	isRecurrenceRule()
}

type Daily struct{}

type Weekly struct {
	Days WeekdaySet
}

type Monthly struct {
	Days MonthDaySet
}

// Custom recurs every Interval units anchored at the habit's creation date.
type Custom struct {
	Interval int
	Unit     IntervalUnit
}

func (Daily) Kind() RuleKind   { return RuleDaily }
func (Weekly) Kind() RuleKind  { return RuleWeekly }
func (Monthly) Kind() RuleKind { return RuleMonthly }
func (Custom) Kind() RuleKind  { return RuleCustom }

func (Daily) isRecurrenceRule()   {}
func (Weekly) isRecurrenceRule()  {}
func (Monthly) isRecurrenceRule() {}
func (Custom) isRecurrenceRule()  {}

func NewWeekly(days WeekdaySet) (Weekly, error) {
	if days.Empty() {
		return Weekly{}, errInvalid("weekly rule", "at least one weekday is required")
	}
	return Weekly{Days: days}, nil
}

func NewMonthly(days MonthDaySet) (Monthly, error) {
	if days.Empty() {
		return Monthly{}, errInvalid("monthly rule", "at least one day of month is required")
	}
	return Monthly{Days: days}, nil
}

func NewCustom(interval int, unit IntervalUnit) (Custom, error) {
	if interval < 1 {
		return Custom{}, errInvalid("custom rule", "interval must be at least 1, got %d", interval)
	}
	if !unit.valid() {
		return Custom{}, errInvalid("custom rule", "unknown interval unit %q", unit)
	}
	return Custom{Interval: interval, Unit: unit}, nil
}

// ValidateRule re-checks a rule built without its constructor.
func ValidateRule(rule RecurrenceRule) error {
	if rule == nil {
		return errInvalid("recurrence rule", "rule is required")
	}
	return MatchRule(rule, RuleCases[error]{
		Daily:   func(Daily) error { return nil },
		Weekly:  func(r Weekly) error { _, err := NewWeekly(r.Days); return err },
		Monthly: func(r Monthly) error { _, err := NewMonthly(r.Days); return err },
		Custom:  func(r Custom) error { _, err := NewCustom(r.Interval, r.Unit); return err },
	})
}

// RuleCases holds one handler per RecurrenceRule variant.
type RuleCases[T any] struct {
	Daily   func(Daily) T
	Weekly  func(Weekly) T
	Monthly func(Monthly) T
	Custom  func(Custom) T
}

// MatchRule dispatches rule to the matching case. Every case must be set.
func MatchRule[T any](rule RecurrenceRule, cases RuleCases[T]) T {
	switch r := rule.(type) {
	case Daily:
		return cases.Daily(r)
	case Weekly:
		return cases.Weekly(r)
	case Monthly:
		return cases.Monthly(r)
	case Custom:
		return cases.Custom(r)
	default:
		panic(fmt.Sprintf("models: unhandled recurrence rule %T", rule))
	}
}

// FormatRule formats a recurrence rule into a human-readable string
func FormatRule(rule RecurrenceRule) string {
	if rule == nil {
		return "unknown"
	}
	return MatchRule(rule, RuleCases[string]{
		Daily: func(Daily) string { return "daily" },
		Weekly: func(r Weekly) string {
			return fmt.Sprintf("weekly on %s", r.Days)
		},
		Monthly: func(r Monthly) string {
			return fmt.Sprintf("monthly on day %s", r.Days)
		},
		Custom: func(r Custom) string {
			if r.Interval == 1 {
				return fmt.Sprintf("every %s", r.Unit[:len(r.Unit)-1])
			}
			return fmt.Sprintf("every %d %s", r.Interval, r.Unit)
		},
	})
}

func errInvalid(op, format string, args ...interface{}) error {
	return apperr.InvalidInput(op, format, args...)
}
