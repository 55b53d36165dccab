package models

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/streaklit/internal/constants"
)

// RuleWire is the serialized form of a RecurrenceRule: a type tag plus the fields of that
// variant. Day sets are written sorted and read back order-independent.
type RuleWire struct {
	Type        RuleKind     `json:"type" yaml:"type"`
	DaysOfWeek  []int        `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty,flow"`
	DaysOfMonth []int        `json:"days_of_month,omitempty" yaml:"days_of_month,omitempty,flow"`
	Interval    int          `json:"interval,omitempty" yaml:"interval,omitempty"`
	Unit        IntervalUnit `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// PeriodWire is the serialized form of a NotificationPeriod.
type PeriodWire struct {
	Type PeriodKind `json:"type" yaml:"type"`
	Days []int      `json:"days,omitempty" yaml:"days,omitempty,flow"`
}

func EncodeRule(rule RecurrenceRule) RuleWire {
	return MatchRule(rule, RuleCases[RuleWire]{
		Daily: func(Daily) RuleWire { return RuleWire{Type: RuleDaily} },
		Weekly: func(r Weekly) RuleWire {
			return RuleWire{Type: RuleWeekly, DaysOfWeek: weekdayInts(r.Days)}
		},
		Monthly: func(r Monthly) RuleWire {
			return RuleWire{Type: RuleMonthly, DaysOfMonth: r.Days.Days()}
		},
		Custom: func(r Custom) RuleWire {
			return RuleWire{Type: RuleCustom, Interval: r.Interval, Unit: r.Unit}
		},
	})
}

// DecodeRule rebuilds a rule through its constructor, so malformed input is rejected here
// rather than at evaluation time.
func DecodeRule(w RuleWire) (RecurrenceRule, error) {
	switch w.Type {
	case RuleDaily:
		return Daily{}, nil
	case RuleWeekly:
		days, err := weekdaySetFromInts(w.DaysOfWeek)
		if err != nil {
			return nil, err
		}
		return NewWeekly(days)
	case RuleMonthly:
		var set MonthDaySet
		for _, d := range w.DaysOfMonth {
			if d < 1 || d > 31 {
				return nil, errInvalid("decode rule", "day of month out of range: %d", d)
			}
			set |= NewMonthDaySet(d)
		}
		return NewMonthly(set)
	case RuleCustom:
		return NewCustom(w.Interval, w.Unit)
	default:
		return nil, errInvalid("decode rule", "unknown recurrence type %q", w.Type)
	}
}

func EncodePeriod(period NotificationPeriod) PeriodWire {
	return MatchPeriod(period, PeriodCases[PeriodWire]{
		EveryDay:       func(EveryDay) PeriodWire { return PeriodWire{Type: PeriodEveryDay} },
		ActiveDaysOnly: func(ActiveDaysOnly) PeriodWire { return PeriodWire{Type: PeriodActiveDaysOnly} },
		SelectedDays: func(p SelectedDays) PeriodWire {
			return PeriodWire{Type: PeriodSelectedDays, Days: weekdayInts(p.Days)}
		},
	})
}

func DecodePeriod(w PeriodWire) (NotificationPeriod, error) {
	switch w.Type {
	case PeriodEveryDay:
		return EveryDay{}, nil
	case PeriodActiveDaysOnly:
		return ActiveDaysOnly{}, nil
	case PeriodSelectedDays:
		days, err := weekdaySetFromInts(w.Days)
		if err != nil {
			return nil, err
		}
		return NewSelectedDays(days)
	default:
		return nil, errInvalid("decode period", "unknown notification period %q", w.Type)
	}
}

// MarshalRule encodes a rule as JSON.
func MarshalRule(rule RecurrenceRule) ([]byte, error) {
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	return json.Marshal(EncodeRule(rule))
}

// UnmarshalRule decodes a rule from JSON.
func UnmarshalRule(data []byte) (RecurrenceRule, error) {
	var w RuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errInvalid("decode rule", "malformed rule: %v", err)
	}
	return DecodeRule(w)
}

func MarshalPeriod(period NotificationPeriod) ([]byte, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}
	return json.Marshal(EncodePeriod(period))
}

func UnmarshalPeriod(data []byte) (NotificationPeriod, error) {
	var w PeriodWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errInvalid("decode period", "malformed period: %v", err)
	}
	return DecodePeriod(w)
}

func weekdayInts(s WeekdaySet) []int {
	days := s.Days()
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func weekdaySetFromInts(days []int) (WeekdaySet, error) {
	var set WeekdaySet
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, errInvalid("decode weekdays", "weekday out of range: %d", d)
		}
		set |= NewWeekdaySet(time.Weekday(d))
	}
	return set, nil
}

type reminderDoc struct {
	Time    string     `json:"time" yaml:"time"`
	Enabled bool       `json:"enabled" yaml:"enabled"`
	Period  PeriodWire `json:"period" yaml:"period"`
}

type habitDoc struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	TargetCount int          `json:"target_count" yaml:"target_count"`
	Frequency   RuleWire     `json:"frequency" yaml:"frequency"`
	CreatedAt   string       `json:"created_at" yaml:"created_at"`
	ArchivedAt  *time.Time   `json:"archived_at,omitempty" yaml:"archived_at,omitempty"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
	Reminder    *reminderDoc `json:"reminder,omitempty" yaml:"reminder,omitempty"`
}

func (h Habit) toDoc() habitDoc {
	doc := habitDoc{
		ID:          h.ID,
		Title:       h.Title,
		TargetCount: h.TargetCount,
		CreatedAt:   h.CreatedAt.Format(constants.DateFormat),
		ArchivedAt:  h.ArchivedAt,
		DeletedAt:   h.DeletedAt,
	}
	if h.Frequency != nil {
		doc.Frequency = EncodeRule(h.Frequency)
	}
	if h.Reminder != nil && h.Reminder.Period != nil {
		doc.Reminder = &reminderDoc{
			Time:    h.Reminder.Time,
			Enabled: h.Reminder.Enabled,
			Period:  EncodePeriod(h.Reminder.Period),
		}
	}
	return doc
}

func (h *Habit) fromDoc(doc habitDoc) error {
	rule, err := DecodeRule(doc.Frequency)
	if err != nil {
		return err
	}
	createdAt, err := time.Parse(constants.DateFormat, doc.CreatedAt)
	if err != nil {
		return errInvalid("decode habit", "invalid created_at %q", doc.CreatedAt)
	}

	*h = Habit{
		ID:          doc.ID,
		Title:       doc.Title,
		TargetCount: doc.TargetCount,
		Frequency:   rule,
		CreatedAt:   createdAt,
		ArchivedAt:  doc.ArchivedAt,
		DeletedAt:   doc.DeletedAt,
	}
	if doc.Reminder != nil {
		period, err := DecodePeriod(doc.Reminder.Period)
		if err != nil {
			return err
		}
		h.Reminder = &NotificationConfig{
			HabitID: doc.ID,
			Time:    doc.Reminder.Time,
			Enabled: doc.Reminder.Enabled,
			Period:  period,
		}
	}
	return nil
}

func (h Habit) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.toDoc())
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	var doc habitDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return h.fromDoc(doc)
}

func (h Habit) MarshalYAML() (interface{}, error) {
	return h.toDoc(), nil
}

func (h *Habit) UnmarshalYAML(value *yaml.Node) error {
	var doc habitDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return h.fromDoc(doc)
}
