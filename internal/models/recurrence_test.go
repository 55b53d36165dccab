package models

import (
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	apperr "github.com/julianstephens/streaklit/internal/errors"
)

func TestRuleConstructors(t *testing.T) {
	tests := []struct {
		name    string
		build   func() error
		wantErr bool
	}{
		{"weekly with days", func() error { _, err := NewWeekly(NewWeekdaySet(time.Monday)); return err }, false},
		{"weekly empty", func() error { _, err := NewWeekly(0); return err }, true},
		{"monthly with days", func() error { _, err := NewMonthly(NewMonthDaySet(1, 31)); return err }, false},
		{"monthly empty", func() error { _, err := NewMonthly(0); return err }, true},
		{"custom days", func() error { _, err := NewCustom(3, UnitDays); return err }, false},
		{"custom zero interval", func() error { _, err := NewCustom(0, UnitDays); return err }, true},
		{"custom negative interval", func() error { _, err := NewCustom(-2, UnitWeeks); return err }, true},
		{"custom unknown unit", func() error { _, err := NewCustom(1, IntervalUnit("years")); return err }, true},
		{"selected days empty", func() error { _, err := NewSelectedDays(0); return err }, true},
		{"selected days", func() error { _, err := NewSelectedDays(NewWeekdaySet(time.Sunday)); return err }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("expected InvalidInput, got %v", err)
			}
		})
	}
}

func TestNewMonthDaySetIgnoresOutOfRange(t *testing.T) {
	set := NewMonthDaySet(0, 1, 32, 31)
	if set.Len() != 2 || !set.Has(1) || !set.Has(31) {
		t.Errorf("unexpected set %s", set)
	}
}

func TestRuleRoundTrip(t *testing.T) {
	weekly, _ := NewWeekly(NewWeekdaySet(time.Friday, time.Monday, time.Wednesday))
	monthly, _ := NewMonthly(NewMonthDaySet(31, 1, 15))
	customDays, _ := NewCustom(3, UnitDays)
	customMonths, _ := NewCustom(2, UnitMonths)

	rules := []RecurrenceRule{Daily{}, weekly, monthly, customDays, customMonths}
	for _, rule := range rules {
		t.Run(FormatRule(rule), func(t *testing.T) {
			data, err := MarshalRule(rule)
			if err != nil {
				t.Fatalf("MarshalRule() error = %v", err)
			}
			got, err := UnmarshalRule(data)
			if err != nil {
				t.Fatalf("UnmarshalRule() error = %v", err)
			}
			if got != rule {
				t.Errorf("round trip = %#v, want %#v", got, rule)
			}
		})
	}
}

func TestRuleDecodeIsOrderIndependent(t *testing.T) {
	a, err := UnmarshalRule([]byte(`{"type":"weekly","days_of_week":[5,1,3]}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := UnmarshalRule([]byte(`{"type":"weekly","days_of_week":[1,3,5,3]}`))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("expected equal rules, got %#v and %#v", a, b)
	}

	m1, _ := UnmarshalRule([]byte(`{"type":"monthly","days_of_month":[31,1]}`))
	m2, _ := UnmarshalRule([]byte(`{"type":"monthly","days_of_month":[1,31]}`))
	if m1 != m2 {
		t.Errorf("expected equal monthly rules, got %#v and %#v", m1, m2)
	}
}

func TestRuleDecodeRejectsMalformed(t *testing.T) {
	inputs := []string{
		`{"type":"weekly","days_of_week":[]}`,
		`{"type":"weekly","days_of_week":[7]}`,
		`{"type":"monthly"}`,
		`{"type":"monthly","days_of_month":[0]}`,
		`{"type":"custom","interval":0,"unit":"days"}`,
		`{"type":"custom","interval":2,"unit":"fortnights"}`,
		`{"type":"hourly"}`,
		`not json`,
	}

	for _, in := range inputs {
		if _, err := UnmarshalRule([]byte(in)); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("UnmarshalRule(%s) error = %v, want InvalidInput", in, err)
		}
	}
}

func TestPeriodRoundTrip(t *testing.T) {
	selected, _ := NewSelectedDays(NewWeekdaySet(time.Saturday, time.Sunday))
	periods := []NotificationPeriod{EveryDay{}, ActiveDaysOnly{}, selected}

	for _, p := range periods {
		data, err := MarshalPeriod(p)
		if err != nil {
			t.Fatalf("MarshalPeriod(%s) error = %v", FormatPeriod(p), err)
		}
		got, err := UnmarshalPeriod(data)
		if err != nil {
			t.Fatalf("UnmarshalPeriod() error = %v", err)
		}
		if got != p {
			t.Errorf("round trip = %#v, want %#v", got, p)
		}
	}

	if _, err := UnmarshalPeriod([]byte(`{"type":"selected_days","days":[]}`)); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected empty selected days to be rejected, got %v", err)
	}
}

func TestHabitYAMLRoundTrip(t *testing.T) {
	weekly, _ := NewWeekly(NewWeekdaySet(time.Monday, time.Thursday))
	selected, _ := NewSelectedDays(NewWeekdaySet(time.Monday))
	habit := Habit{
		ID:          "h-1",
		Title:       "Stretch",
		TargetCount: 2,
		Frequency:   weekly,
		CreatedAt:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Reminder: &NotificationConfig{
			HabitID: "h-1",
			Time:    "07:30",
			Enabled: true,
			Period:  selected,
		},
	}

	data, err := yaml.Marshal(habit)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	var got Habit
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if got.Frequency != habit.Frequency {
		t.Errorf("frequency = %#v, want %#v", got.Frequency, habit.Frequency)
	}
	if !got.CreatedAt.Equal(habit.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, habit.CreatedAt)
	}
	if got.Reminder == nil || got.Reminder.Period != habit.Reminder.Period || got.Reminder.Time != "07:30" {
		t.Errorf("reminder = %#v", got.Reminder)
	}
}

func TestMatchRulePanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil rule")
		}
	}()
	MatchRule(nil, RuleCases[int]{})
}

func TestFormatRule(t *testing.T) {
	weekly, _ := NewWeekly(NewWeekdaySet(time.Monday, time.Wednesday, time.Friday))
	custom, _ := NewCustom(1, UnitWeeks)
	custom3, _ := NewCustom(3, UnitDays)

	tests := []struct {
		rule RecurrenceRule
		want string
	}{
		{Daily{}, "daily"},
		{weekly, "weekly on Mon,Wed,Fri"},
		{custom, "every week"},
		{custom3, "every 3 days"},
	}
	for _, tt := range tests {
		if got := FormatRule(tt.rule); got != tt.want {
			t.Errorf("FormatRule() = %q, want %q", got, tt.want)
		}
	}
}
