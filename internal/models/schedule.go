package models

import (
	"sort"
	"strings"
	"time"
)

// WeekdaySet is a typed set of instructional weekdays. It is kept as a
// set in memory and serialized only at the storage boundary.
type WeekdaySet map[time.Weekday]struct{}

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

// Contains reports whether the weekday is in the set.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	_, ok := s[d]
	return ok
}

// Ints returns the sorted weekday numbers for storage.
func (s WeekdaySet) Ints() []int64 {
	out := make([]int64, 0, len(s))
	for d := range s {
		out = append(out, int64(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set for human-readable reasons, e.g. "Mon, Wed".
func (s WeekdaySet) String() string {
	names := make([]string, 0, len(s))
	for _, d := range []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
		if s.Contains(d) {
			names = append(names, d.String()[:3])
		}
	}
	return strings.Join(names, ", ")
}

// SessionDefault is the institution-wide weekly pattern.
type SessionDefault struct {
	ID        string     `db:"id" json:"id"`
	Weekdays  WeekdaySet `db:"-" json:"weekdays"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ClassScheduleOverride replaces the default weekly pattern for one class.
type ClassScheduleOverride struct {
	ID        string     `db:"id" json:"id"`
	ClassID   string     `db:"class_id" json:"class_id"`
	Weekdays  WeekdaySet `db:"-" json:"weekdays"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ScheduleOverride is a time-boxed exception to the weekly pattern.
// Date ranges are inclusive.
type ScheduleOverride struct {
	ID        string     `db:"id" json:"id"`
	ClassID   *string    `db:"class_id" json:"class_id,omitempty"`
	Title     string     `db:"title" json:"title"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   time.Time  `db:"end_date" json:"end_date"`
	Weekdays  WeekdaySet `db:"-" json:"weekdays"`
}

// Holiday closes the institution for an inclusive date range.
type Holiday struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}

// ScheduleRules is the full layered configuration relevant to one class.
type ScheduleRules struct {
	Default       *SessionDefault
	ClassOverride *ClassScheduleOverride
	Overrides     []ScheduleOverride
	Holidays      []Holiday
}

// DayRuling is the result of resolving a date against schedule rules.
type DayRuling struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
