package models

import (
	"math/bits"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WeekdaySet is an unordered set of weekdays stored as a bitmask, so two sets holding the
// same days are always == regardless of insertion order.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s |= 1 << uint(d)
		}
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday && s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Len() int { return bits.OnesCount8(uint8(s)) }

func (s WeekdaySet) Empty() bool { return s == 0 }

// Days returns the members in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, s.Len())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, s.Len())
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// MonthDaySet is an unordered set of day-of-month numbers (1..31) stored as a bitmask.
type MonthDaySet uint32

func NewMonthDaySet(days ...int) MonthDaySet {
	var s MonthDaySet
	for _, d := range days {
		if d >= 1 && d <= 31 {
			s |= 1 << uint(d)
		}
	}
	return s
}

func (s MonthDaySet) Has(day int) bool {
	return day >= 1 && day <= 31 && s&(1<<uint(day)) != 0
}

func (s MonthDaySet) Len() int { return bits.OnesCount32(uint32(s)) }

func (s MonthDaySet) Empty() bool { return s == 0 }

// Days returns the members in ascending order.
func (s MonthDaySet) Days() []int {
	days := make([]int, 0, s.Len())
	for d := 1; d <= 31; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s MonthDaySet) String() string {
	days := s.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseWeekdays parses a comma-separated list of weekdays ("mon,wed" or "1,3").
func ParseWeekdays(s string) (WeekdaySet, error) {
	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if wd, ok := dayMap[part]; ok {
			set |= NewWeekdaySet(wd)
			continue
		}
		// Try parsing as number (0=Sunday, 6=Saturday)
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return 0, errInvalid("parse weekdays", "invalid weekday: %s", part)
		}
		set |= NewWeekdaySet(time.Weekday(num))
	}
	return set, nil
}

// ParseMonthDays parses a comma-separated list of day numbers ("1,15,31").
func ParseMonthDays(s string) (MonthDaySet, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 1 || num > 31 {
			return 0, errInvalid("parse month days", "invalid day of month: %s", part)
		}
		days = append(days, num)
	}
	sort.Ints(days)
	return NewMonthDaySet(days...), nil
}
