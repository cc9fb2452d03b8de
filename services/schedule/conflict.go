package schedule

import (
	"fmt"
	"sort"

	"tutorroute/models"
)

type IntervalKind string

const (
	KindActivity IntervalKind = "activity"
	KindTravel   IntervalKind = "travel"
)

// Interval is one committed occupation of the room timeline.
type Interval struct {
	Start         int
	End           int
	ParticipantID string
	Kind          IntervalKind
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && e1 > s2
}

// AllocationTable is the per-date ledger of committed intervals. It is owned
// by a single run and is not safe for concurrent use.
type AllocationTable struct {
	byDate map[string][]Interval
}

func NewAllocationTable() *AllocationTable {
	return &AllocationTable{byDate: make(map[string][]Interval)}
}

// Commit records an interval. Empty intervals are ignored.
func (t *AllocationTable) Commit(date string, iv Interval) {
	if iv.End <= iv.Start {
		return
	}
	list := append(t.byDate[date], iv)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Start < list[j].Start })
	t.byDate[date] = list
}

// Release removes the first interval equal to iv.
func (t *AllocationTable) Release(date string, iv Interval) bool {
	list := t.byDate[date]
	for i, cur := range list {
		if cur == iv {
			t.byDate[date] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Overlaps reports whether [start,end) intersects any committed interval on date.
func (t *AllocationTable) Overlaps(date string, start, end int) bool {
	return len(t.Conflicts(date, start, end)) > 0
}

// Conflicts returns the committed intervals on date intersecting [start,end).
func (t *AllocationTable) Conflicts(date string, start, end int) []Interval {
	var out []Interval
	for _, iv := range t.byDate[date] {
		if Overlaps(start, end, iv.Start, iv.End) {
			out = append(out, iv)
		}
	}
	return out
}

// Intervals returns a copy of the committed intervals on date, ordered by start.
func (t *AllocationTable) Intervals(date string) []Interval {
	return append([]Interval(nil), t.byDate[date]...)
}

// Dates returns every date with at least one committed interval, ascending.
func (t *AllocationTable) Dates() []string {
	out := make([]string, 0, len(t.byDate))
	for d, list := range t.byDate {
		if len(list) > 0 {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// BlockedRange is a compiled room-wide blocked interval.
type BlockedRange struct {
	Start int
	End   int
	Label string
	Date  string // empty applies to every date
}

// CompileBlocked parses blocked times into minute ranges.
func CompileBlocked(blocked []models.BlockedTime) ([]BlockedRange, error) {
	out := make([]BlockedRange, 0, len(blocked))
	for _, b := range blocked {
		start, err := ParseClock(b.StartTime)
		if err != nil {
			return nil, fmt.Errorf("blocked time %q: %w", b.Label, err)
		}
		end, err := ParseClock(b.EndTime)
		if err != nil {
			return nil, fmt.Errorf("blocked time %q: %w", b.Label, err)
		}
		if end <= start {
			return nil, fmt.Errorf("blocked time %q: end %s is not after start %s", b.Label, b.EndTime, b.StartTime)
		}
		out = append(out, BlockedRange{Start: start, End: end, Label: b.Label, Date: b.Date})
	}
	return out, nil
}

// OverlapsBlocked reports whether [start,end) on date touches a blocked range
// and returns the first one hit.
func OverlapsBlocked(date string, start, end int, blocked []BlockedRange) (bool, *BlockedRange) {
	for i := range blocked {
		b := &blocked[i]
		if b.Date != "" && b.Date != date {
			continue
		}
		if Overlaps(start, end, b.Start, b.End) {
			return true, b
		}
	}
	return false, nil
}

// freeGaps subtracts blocked ranges and committed intervals from window.
func freeGaps(date string, window Range, blocked []BlockedRange, table *AllocationTable) []Range {
	gaps := []Range{window}
	cut := func(s, e int) {
		var next []Range
		for _, g := range gaps {
			if !Overlaps(g.Start, g.End, s, e) {
				next = append(next, g)
				continue
			}
			if s > g.Start {
				next = append(next, Range{Start: g.Start, End: s})
			}
			if e < g.End {
				next = append(next, Range{Start: e, End: g.End})
			}
		}
		gaps = next
	}
	for _, b := range blocked {
		if b.Date != "" && b.Date != date {
			continue
		}
		cut(b.Start, b.End)
	}
	for _, iv := range table.Intervals(date) {
		cut(iv.Start, iv.End)
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Start < gaps[j].Start })
	return gaps
}
