package schedule

import (
	"context"
	"fmt"

	"tutorroute/models"

	"go.uber.org/zap"
)

// Simulate answers whether req could be placed against the current schedule.
// The participant's own activities on that date are ignored, as the probe is
// meant to replace them. Nothing is committed.
func (e *Engine) Simulate(ctx context.Context, in Input, req models.SimulationRequest) (*models.SimulationResult, error) {
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, in.Mode)
	}
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidActivity)
	}
	rc, err := e.newRunContext(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, ok := rc.participants[req.ParticipantID]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParticipant, req.ParticipantID)
	}
	if in.Mode != models.ModeNormal && rc.participants[rc.ownerID].Location == nil {
		return nil, ErrMissingOwnerLocation
	}
	date, err := NormalizeDate(req.Date, e.cfg.Location)
	if err != nil {
		return nil, err
	}
	start, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	end := start + req.DurationMinutes

	blocks, err := e.blocks(rc, in.Assignments)
	if err != nil {
		return nil, err
	}
	segments := e.seed(rc, blocks, in.Travel, func(b Block) bool {
		return b.ParticipantID == req.ParticipantID && b.Date == date
	})

	probe := &segment{ParticipantID: req.ParticipantID, Date: date, Activity: Range{Start: start, End: end}}
	from := predecessor(rc.ownerID, segments, probe)
	leg := e.legBetween(rc, from, req.ParticipantID)
	seg := newSegment(req.ParticipantID, "", date, leg, start, end)
	conflicts := e.spanConflicts(rc, date, req.ParticipantID, seg.spanStart(), end)

	res := &models.SimulationResult{
		CanPlace:               len(conflicts) == 0,
		TravelMinutes:          leg.Minutes,
		Conflicts:              []models.Conflict{},
		ProposedActivityWindow: models.TimeWindow{StartTime: FormatClock(start), EndTime: FormatClock(end)},
	}
	res.Conflicts = append(res.Conflicts, conflicts...)
	if seg.Travel != nil {
		res.FromLocationName = rc.participants[from].DisplayName()
		res.ProposedTravelWindow = &models.TimeWindow{
			StartTime: FormatClock(seg.Travel.Start),
			EndTime:   FormatClock(seg.Travel.End),
		}
	}
	return res, nil
}

// seed commits the current schedule into rc, skipping blocks for which skip
// returns true. A stored travel slot ending exactly at a member block's start
// is attached to that block. Blocks are committed in time order so the last
// member of each date becomes its last placed participant.
func (e *Engine) seed(rc *runContext, blocks []Block, current []models.TravelSlot, skip func(Block) bool) []*segment {
	type travelKey struct {
		pid, date string
		end       int
	}
	arrivals := make(map[travelKey]models.TravelSlot)
	if rc.mode != models.ModeNormal {
		for _, t := range current {
			date, err := NormalizeDate(t.Date, e.cfg.Location)
			if err != nil {
				e.logger.Warn("ignoring travel slot with invalid date", zap.String("id", t.ID), zap.Error(err))
				continue
			}
			end, err := ParseClock(t.EndTime)
			if err != nil {
				e.logger.Warn("ignoring travel slot with invalid end", zap.String("id", t.ID), zap.Error(err))
				continue
			}
			arrivals[travelKey{pid: t.ParticipantID, date: date, end: end}] = t
		}
	}

	var out []*segment
	for _, b := range SortByTime(blocks) {
		if skip(b) {
			continue
		}
		leg := legInfo{FromID: b.ParticipantID}
		if t, ok := arrivals[travelKey{pid: b.ParticipantID, date: b.Date, end: b.Start}]; ok && b.ParticipantID != rc.ownerID {
			leg = storedLeg(rc, t)
		}
		seg := newSegment(b.ParticipantID, b.Label, b.Date, leg, b.Start, b.End)
		seg.seq = b.seq
		rc.commit(seg)
		out = append(out, seg)
	}
	return out
}

// storedLeg rebuilds the leg of a persisted travel slot.
func storedLeg(rc *runContext, t models.TravelSlot) legInfo {
	from := t.FromParticipantID
	if _, ok := rc.participants[from]; !ok {
		from = rc.ownerID
	}
	start, errStart := ParseClock(t.StartTime)
	end, errEnd := ParseClock(t.EndTime)
	if errStart != nil || errEnd != nil || end <= start {
		return legInfo{FromID: from}
	}
	return legInfo{
		FromID:    from,
		Minutes:   end - start,
		Seconds:   t.DurationSeconds,
		Meters:    t.DistanceMeters,
		Estimated: t.Estimated,
	}
}
