package schedule

// placeInPlace keeps the block's original slot and inserts the travel leg
// backward from its start.
func (e *Engine) placeInPlace(rc *runContext, b Block) (*segment, bool) {
	leg := e.legInto(rc, b.Date, b.ParticipantID)
	seg := newSegment(b.ParticipantID, b.Label, b.Date, leg, b.Start, b.End)
	if len(e.spanConflicts(rc, b.Date, b.ParticipantID, seg.spanStart(), b.End)) > 0 {
		return nil, false
	}
	rc.commit(seg)
	return seg, true
}

// placeWhole searches the horizon for the first free sub-window that holds
// the travel leg and the whole activity. minStart only constrains the
// original date.
func (e *Engine) placeWhole(rc *runContext, b Block, minStart int) (*segment, bool) {
	prefs := rc.prefs[b.ParticipantID]
	if prefs == nil {
		return nil, false
	}
	duration := b.Duration()
	for _, day := range e.horizon(b.Date) {
		floor := 0
		if day == b.Date {
			floor = minStart
		}
		leg := e.legInto(rc, day, b.ParticipantID)
		for _, w := range prefs.WindowsFor(day, e.weekday(day)) {
			for _, gap := range freeGaps(day, w, rc.blocked, rc.table) {
				travelStart := max(gap.Start, floor)
				travelEnd := travelStart + leg.Minutes
				activityEnd := travelEnd + duration
				if activityEnd > gap.End {
					continue
				}
				seg := newSegment(b.ParticipantID, b.Label, day, leg, travelEnd, activityEnd)
				if len(e.spanConflicts(rc, day, b.ParticipantID, travelStart, activityEnd)) > 0 {
					continue
				}
				rc.commit(seg)
				return seg, true
			}
		}
	}
	return nil, false
}

// placeSplit divides the activity over as many (day, sub-window) segments as
// needed. Only the first segment of a day carries a travel leg. When the
// horizon runs out every committed segment is rolled back and the unplaced
// minutes are returned.
func (e *Engine) placeSplit(rc *runContext, b Block, minStart int) ([]*segment, int) {
	prefs := rc.prefs[b.ParticipantID]
	remaining := b.Duration()
	if prefs == nil {
		return nil, remaining
	}

	var placed []*segment
	previous := make(map[string]string)
	for _, day := range e.horizon(b.Date) {
		if remaining == 0 {
			break
		}
		floor := 0
		if day == b.Date {
			floor = minStart
		}
		if last, ok := rc.lastPlaced[day]; ok {
			previous[day] = last
		} else {
			previous[day] = ""
		}
		leg := e.legInto(rc, day, b.ParticipantID)
		arrived := false

		for _, w := range prefs.WindowsFor(day, e.weekday(day)) {
			for _, gap := range freeGaps(day, w, rc.blocked, rc.table) {
				if remaining == 0 {
					break
				}
				start := max(gap.Start, floor)
				segLeg := legInfo{FromID: leg.FromID}
				if !arrived {
					segLeg = leg
				}
				activityStart := start + segLeg.Minutes
				length := min(gap.End-activityStart, remaining)
				if length <= 0 || (length < e.cfg.MinSegmentMinutes && length < remaining) {
					continue
				}
				seg := newSegment(b.ParticipantID, b.Label, day, segLeg, activityStart, activityStart+length)
				if len(e.spanConflicts(rc, day, b.ParticipantID, seg.spanStart(), seg.Activity.End)) > 0 {
					continue
				}
				rc.commit(seg)
				placed = append(placed, seg)
				remaining -= length
				arrived = true
			}
		}
	}

	if remaining > 0 {
		for _, seg := range placed {
			rc.release(seg)
		}
		for day, last := range previous {
			if last == "" {
				delete(rc.lastPlaced, day)
			} else {
				rc.lastPlaced[day] = last
			}
		}
		return nil, remaining
	}
	return placed, 0
}
