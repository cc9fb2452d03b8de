package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tutorroute/models"
)

// MinAvailabilityPriority is the lowest priority treated as real availability;
// lower priorities are soft defaults only.
const MinAvailabilityPriority = 2

// Range is a half-open minute range.
type Range struct {
	Start int
	End   int
}

// Preferences are a participant's merged availability windows.
type Preferences struct {
	byWeekday map[time.Weekday][]Range
	byDate    map[string][]Range
	defaulted bool
}

// DefaultWindow is used when a participant declares no qualifying availability.
type DefaultWindow struct {
	Weekdays []time.Weekday
	Start    int
	End      int
}

var standardWeek = DefaultWindow{
	Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	Start:    9 * 60,
	End:      17 * 60,
}

// BuildPreferences buckets entries by weekday and specific date and merges
// overlapping or touching ranges. Malformed entries are skipped and reported
// through the returned error while the usable windows are still returned.
func BuildPreferences(entries []models.AvailabilityEntry, fallback DefaultWindow, loc *time.Location) (*Preferences, error) {
	p := &Preferences{
		byWeekday: make(map[time.Weekday][]Range),
		byDate:    make(map[string][]Range),
	}
	var errs []error
	for _, e := range entries {
		if e.Priority < MinAvailabilityPriority {
			continue
		}
		start, err := ParseClock(e.StartTime)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		end, err := ParseClock(e.EndTime)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if end <= start {
			errs = append(errs, fmt.Errorf("availability %s-%s: end is not after start", e.StartTime, e.EndTime))
			continue
		}
		r := Range{Start: start, End: end}
		switch {
		case e.SpecificDate != "":
			date, err := NormalizeDate(e.SpecificDate, loc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			p.byDate[date] = append(p.byDate[date], r)
		case e.Weekday != nil && *e.Weekday >= 0 && *e.Weekday <= 6:
			wd := time.Weekday(*e.Weekday)
			p.byWeekday[wd] = append(p.byWeekday[wd], r)
		default:
			errs = append(errs, fmt.Errorf("availability %s-%s: needs a weekday (0-6) or a specific date", e.StartTime, e.EndTime))
		}
	}

	if len(p.byWeekday) == 0 && len(p.byDate) == 0 {
		p.defaulted = true
		for _, wd := range fallback.Weekdays {
			p.byWeekday[wd] = []Range{{Start: fallback.Start, End: fallback.End}}
		}
	}
	for k, v := range p.byWeekday {
		p.byWeekday[k] = mergeRanges(v)
	}
	for k, v := range p.byDate {
		p.byDate[k] = mergeRanges(v)
	}
	return p, errors.Join(errs...)
}

// mergeRanges sorts ranges and joins overlapping or touching ones.
func mergeRanges(in []Range) []Range {
	if len(in) == 0 {
		return nil
	}
	rs := append([]Range(nil), in...)
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].End < rs[j].End
	})
	out := []Range{rs[0]}
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Defaulted reports whether the fallback week was applied.
func (p *Preferences) Defaulted() bool { return p.defaulted }

// WindowsFor returns the windows of date; specific-date windows take
// precedence over the weekday's.
func (p *Preferences) WindowsFor(date string, weekday time.Weekday) []Range {
	if rs, ok := p.byDate[date]; ok {
		return rs
	}
	return p.byWeekday[weekday]
}

// Contains reports whether [start,end) lies inside a single window of date.
func (p *Preferences) Contains(date string, weekday time.Weekday, start, end int) bool {
	for _, w := range p.WindowsFor(date, weekday) {
		if start >= w.Start && end <= w.End {
			return true
		}
	}
	return false
}
