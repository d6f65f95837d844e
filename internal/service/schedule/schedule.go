// Package schedule turns a weekday selection into concrete walk dates.
package schedule

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

// ErrInvalidInput is returned for an unknown day name.
var ErrInvalidInput = apperrors.Validation("Día inválido")

// Canonical day names, Monday first.
var dayNames = [...]string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"}

var weekdays = map[string]time.Weekday{
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"domingo":   time.Sunday,
}

var accents = strings.NewReplacer("é", "e", "á", "a")

// Normalize lowercases a day name and strips the accents the vocabulary allows.
func Normalize(name string) string {
	return accents.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// ParseDay resolves a day name to its weekday.
func ParseDay(name string) (time.Weekday, error) {
	wd, ok := weekdays[Normalize(name)]
	if !ok {
		return 0, ErrInvalidInput
	}
	return wd, nil
}

// DayName returns the canonical name of wd.
func DayName(wd time.Weekday) string {
	return dayNames[(int(wd)+6)%7]
}

// Date truncates t to its calendar date in t's location, expressed at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixed emits one row for every date in [today, today+6] whose weekday is selected.
func Fixed(walkID uuid.UUID, today time.Time, days []time.Weekday, startTime string, duration int) []model.ScheduleRow {
	selected := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		selected[d] = true
	}

	start := Date(today)
	var rows []model.ScheduleRow
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		if selected[date.Weekday()] {
			rows = append(rows, newRow(walkID, date, startTime, duration))
		}
	}
	return rows
}

// Sporadic emits exactly one row on the first date on or after today falling on day.
func Sporadic(walkID uuid.UUID, today time.Time, day time.Weekday, startTime string, duration int) []model.ScheduleRow {
	date := Date(today)
	for date.Weekday() != day {
		date = date.AddDate(0, 0, 1)
	}
	return []model.ScheduleRow{newRow(walkID, date, startTime, duration)}
}

func newRow(walkID uuid.UUID, date time.Time, startTime string, duration int) model.ScheduleRow {
	return model.ScheduleRow{
		ID:        uuid.New(),
		WalkID:    walkID,
		Date:      date,
		StartTime: startTime,
		Duration:  duration,
	}
}
