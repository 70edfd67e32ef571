package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
)

const minutesPerDay = 24 * 60

var clockLayouts = []string{"15:04", "15:04:05"}

// ParseClock parses HH:MM or HH:MM:SS into minutes after midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
}

// FormatClock renders a stored time string as HH:MM. Anything that does not
// parse renders as "00:00".
func FormatClock(s string) string {
	m, err := ParseClock(s)
	if err != nil {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ScheduleTiming is derived from a departure time and a running duration.
type ScheduleTiming struct {
	DepartureTime string
	ArrivalTime   string
	DurationTime  string
	NoOfDays      string
}

// ComputeTiming adds hours (possibly fractional) to departure. The day suffix
// counts whole days in the duration: 26.5h is "+1 day" whatever the departure.
func ComputeTiming(departure string, hours float64) (ScheduleTiming, error) {
	dep, err := ParseClock(departure)
	if err != nil {
		return ScheduleTiming{}, apperr.Validation("departure_time: %v", err)
	}
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return ScheduleTiming{}, apperr.Validation("total_running_hours must be greater than 0")
	}

	duration := int(math.Round(hours * 60))
	arrival := (dep + duration) % minutesPerDay

	return ScheduleTiming{
		DepartureTime: fmt.Sprintf("%02d:%02d", dep/60, dep%60),
		ArrivalTime:   fmt.Sprintf("%02d:%02d", arrival/60, arrival%60),
		DurationTime:  fmt.Sprintf("%d:%02d", duration/60, duration%60),
		NoOfDays:      daySuffix(duration / minutesPerDay),
	}, nil
}

func daySuffix(days int) string {
	switch {
	case days <= 0:
		return ""
	case days == 1:
		return "+1 day"
	default:
		return fmt.Sprintf("+%d days", days)
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekOrder lists weekdays Monday first, the order days_of_week is stored in.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// NormalizeDaysOfWeek validates a comma-delimited weekday list and returns it
// de-duplicated, title-cased and in week order.
func NormalizeDaysOfWeek(raw string) (string, error) {
	seen := map[time.Weekday]bool{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return "", apperr.Validation("days_of_week: unknown weekday %q", strings.TrimSpace(part))
		}
		seen[day] = true
	}
	if len(seen) == 0 {
		return "", apperr.Validation("days_of_week is required for Weekly and Custom schedules")
	}

	var out []string
	for _, d := range weekOrder {
		if seen[d] {
			out = append(out, d.String())
		}
	}
	return strings.Join(out, ","), nil
}

// ValidRecurrence reports whether pattern is one of Daily, Weekly, Custom.
func ValidRecurrence(pattern string) bool {
	switch pattern {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceCustom:
		return true
	}
	return false
}

// AvailableOn reports whether the schedule runs on date: always for Daily,
// otherwise when date's weekday is listed in DaysOfWeek.
func AvailableOn(s models.BusSchedule, date time.Time) bool {
	if s.RecurrencePattern == models.RecurrenceDaily {
		return true
	}
	if s.RecurrencePattern != models.RecurrenceWeekly && s.RecurrencePattern != models.RecurrenceCustom {
		return false
	}
	want := date.Weekday().String()
	for _, part := range strings.Split(s.DaysOfWeek, ",") {
		if strings.EqualFold(strings.TrimSpace(part), want) {
			return true
		}
	}
	return false
}

// FormatForRead normalizes the stored time strings of a schedule for output.
func FormatForRead(s *models.BusSchedule) {
	s.DepartureTime = FormatClock(s.DepartureTime)
	s.ArrivalTime = FormatClock(s.ArrivalTime)
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
