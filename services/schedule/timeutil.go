package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tutorroute/models"
)

const dateLayout = "2006-01-02"

// minutesPerDay bounds every clock value; "24:00" is accepted as an end of day.
const minutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("time must be in HH:MM format")
var ErrInvalidDate = errors.New("date must be YYYY-MM-DD or an RFC3339 timestamp")

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if !digits(h) || !digits(m) || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	mins, _ := strconv.Atoi(m)
	total := hours*60 + mins
	if mins > 59 || total > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return total, nil
}

// digits reports whether s is a non-empty run of ASCII digits.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatClock converts minutes since midnight into "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// LocalDate returns the room-local calendar day of t.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateLayout)
}

// NormalizeDate accepts a plain date or a date-time value and returns the
// room-local calendar day. Plain dates are returned as-is so they never
// drift across a UTC boundary.
func NormalizeDate(value string, loc *time.Location) (string, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t.Format(dateLayout), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return LocalDate(t, loc), nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc); err == nil {
		return t.Format(dateLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// parseDay returns local midnight of a normalized date.
func parseDay(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// ceilToUnit rounds travel seconds up to whole units of unit minutes.
func ceilToUnit(seconds, unit int) int {
	if seconds <= 0 {
		return 0
	}
	if unit <= 0 {
		unit = 1
	}
	minutes := (seconds + 59) / 60
	return ((minutes + unit - 1) / unit) * unit
}

// DurationText renders minutes as "1 hr 10 min".
func DurationText(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d hr", h)
	}
	return fmt.Sprintf("%d hr %d min", h, m)
}

// ExpandAtomic splits an activity into unit-minute storage slots. A trailing
// remainder shorter than unit becomes its own shorter slot.
func ExpandAtomic(participantID, date string, start, end int, label string, unit int) []models.ActivitySlot {
	if unit <= 0 {
		unit = 10
	}
	var out []models.ActivitySlot
	for m := start; m < end; m += unit {
		e := min(m+unit, end)
		out = append(out, models.ActivitySlot{
			ParticipantID: participantID,
			Date:          date,
			StartTime:     FormatClock(m),
			EndTime:       FormatClock(e),
			Label:         label,
		})
	}
	return out
}

// MergeAtomic contracts atomic slots back into contiguous assignments. Slots
// are grouped by participant, date and label; touching slots are joined.
func MergeAtomic(slots []models.ActivitySlot) ([]models.Assignment, error) {
	type unit struct {
		pid, date, label string
		start, end       int
	}
	units := make([]unit, 0, len(slots))
	for _, s := range slots {
		start, err := ParseClock(s.StartTime)
		if err != nil {
			return nil, fmt.Errorf("slot %s %s: %w", s.ParticipantID, s.Date, err)
		}
		end, err := ParseClock(s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("slot %s %s: %w", s.ParticipantID, s.Date, err)
		}
		units = append(units, unit{pid: s.ParticipantID, date: s.Date, label: s.Label, start: start, end: end})
	}
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.date != b.date {
			return a.date < b.date
		}
		if a.pid != b.pid {
			return a.pid < b.pid
		}
		return a.start < b.start
	})

	var out []models.Assignment
	var cur *unit
	flush := func() {
		if cur != nil {
			out = append(out, models.Assignment{
				ParticipantID: cur.pid,
				Date:          cur.date,
				StartTime:     FormatClock(cur.start),
				EndTime:       FormatClock(cur.end),
				Label:         cur.label,
			})
		}
	}
	for i := range units {
		u := units[i]
		if cur != nil && cur.pid == u.pid && cur.date == u.date && cur.label == u.label && u.start == cur.end {
			cur.end = u.end
			continue
		}
		flush()
		cur = &u
	}
	flush()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}
