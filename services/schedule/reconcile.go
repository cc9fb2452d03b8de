package schedule

import (
	"sort"

	"go.uber.org/zap"
)

// reconcile makes one chronological pass over the travel legs. A leg whose
// origin is no longer the participant actually preceding it on that date is
// recomputed. Corrections are not re-swept. The segments whose activity moved
// are returned.
func (e *Engine) reconcile(rc *runContext, segments []*segment) []*segment {
	ordered := append([]*segment(nil), segments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date < ordered[j].Date
		}
		return ordered[i].spanStart() < ordered[j].spanStart()
	})

	var shifted []*segment
	for _, s := range ordered {
		if s.Travel == nil {
			continue
		}
		pred := predecessor(rc.ownerID, segments, s)
		if pred == s.Leg.FromID {
			continue
		}
		leg := e.legBetween(rc, pred, s.ParticipantID)
		assumed, start := s.Leg.FromID, s.Activity.Start
		if !e.applyLeg(rc, s, leg) {
			e.logger.Debug("travel leg kept, no room for the corrected one",
				zap.String("participantID", s.ParticipantID),
				zap.String("date", s.Date),
				zap.String("assumedFrom", assumed),
				zap.String("from", pred))
			continue
		}
		e.logger.Debug("travel leg reconciled",
			zap.String("participantID", s.ParticipantID),
			zap.String("date", s.Date),
			zap.String("assumedFrom", assumed),
			zap.String("from", pred))
		if s.Activity.Start != start {
			shifted = append(shifted, s)
		}
	}
	return shifted
}

// predecessor is the member whose activity ends last at or before s departs,
// else the owner.
func predecessor(ownerID string, segments []*segment, s *segment) string {
	best, bestEnd := ownerID, -1
	for _, o := range segments {
		if o == s || o.Date != s.Date || o.ParticipantID == ownerID {
			continue
		}
		if o.Activity.End <= s.spanStart() && o.Activity.End > bestEnd {
			best, bestEnd = o.ParticipantID, o.Activity.End
		}
	}
	return best
}

// applyLeg swaps the leg of s. The travel start is kept and the activity
// shifted by the difference when that fits; otherwise the activity stays and
// the travel start moves. If neither fits, s is left untouched.
func (e *Engine) applyLeg(rc *runContext, s *segment, leg legInfo) bool {
	rc.release(s)
	duration := s.Activity.End - s.Activity.Start
	departure := s.spanStart()
	candidates := []*segment{
		newSegment(s.ParticipantID, s.Label, s.Date, leg, departure+leg.Minutes, departure+leg.Minutes+duration),
		newSegment(s.ParticipantID, s.Label, s.Date, leg, s.Activity.Start, s.Activity.End),
	}
	for _, c := range candidates {
		if len(e.spanConflicts(rc, c.Date, c.ParticipantID, c.spanStart(), c.Activity.End)) > 0 {
			continue
		}
		rc.table.Commit(c.Date, activityInterval(c))
		if c.Travel != nil {
			rc.table.Commit(c.Date, travelInterval(c))
		}
		c.seq = s.seq
		*s = *c
		return true
	}
	rc.table.Commit(s.Date, activityInterval(s))
	rc.table.Commit(s.Date, travelInterval(s))
	return false
}

func activityInterval(s *segment) Interval {
	return Interval{Start: s.Activity.Start, End: s.Activity.End, ParticipantID: s.ParticipantID, Kind: KindActivity}
}

func travelInterval(s *segment) Interval {
	return Interval{Start: s.Travel.Start, End: s.Travel.End, ParticipantID: s.ParticipantID, Kind: KindTravel}
}
