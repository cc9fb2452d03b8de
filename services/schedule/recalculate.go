package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tutorroute/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// travelSlotNamespace seeds the deterministic travel slot IDs.
var travelSlotNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9a43-2f5e1d7c9b10")

// Recalculate re-derives the schedule of in for in.Mode. Only fatal
// preconditions are returned as errors; blocks that cannot be placed are
// reported as dropped outcomes.
func (e *Engine) Recalculate(ctx context.Context, in Input) (*models.RecalculationResult, error) {
	started := time.Now()
	if len(in.Assignments) == 0 {
		return nil, ErrEmptySchedule
	}
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, in.Mode)
	}
	rc, err := e.newRunContext(ctx, in)
	if err != nil {
		return nil, err
	}
	blocks, err := e.blocks(rc, in.Assignments)
	if err != nil {
		return nil, err
	}

	if in.Mode == models.ModeNormal {
		result := e.passthrough(blocks)
		e.metrics.RecordRun(in.Mode, time.Since(started))
		return result, nil
	}

	owner := rc.participants[rc.ownerID]
	if owner.Location == nil {
		return nil, ErrMissingOwnerLocation
	}
	if e.gated(in.Mode) {
		if res := e.validate(rc, blocks); !res.IsValid {
			return nil, &ModeRejectedError{Mode: in.Mode, Message: res.Message}
		}
	}

	// The owner's blocks are fixed; seed them before anything moves.
	var segments []*segment
	outcomes := make([]models.PlacementOutcome, len(blocks))
	for _, b := range SortByTime(blocks) {
		if b.ParticipantID != rc.ownerID {
			continue
		}
		seg := newSegment(b.ParticipantID, b.Label, b.Date, legInfo{FromID: b.ParticipantID}, b.Start, b.End)
		seg.seq = b.seq
		rc.commit(seg)
		segments = append(segments, seg)
		outcomes[b.seq] = e.outcome(b, models.PlacementPlaced, 1, 0, "")
	}

	for _, b := range SortByDistance(blocks, rc.ownerID, *owner.Location, rc.locations()) {
		if b.ParticipantID == rc.ownerID {
			continue
		}
		placed, outcome := e.placeMember(rc, b, 0, true)
		segments = append(segments, placed...)
		outcomes[b.seq] = outcome
	}

	markShifted(outcomes, e.reconcile(rc, segments))
	result := e.buildResult(rc, segments, outcomes)

	for _, o := range outcomes {
		e.metrics.RecordOutcome(o.Status)
	}
	e.metrics.RecordRun(in.Mode, time.Since(started))
	e.logger.Info("schedule recalculated",
		zap.String("mode", string(in.Mode)),
		zap.Int("activities", len(blocks)),
		zap.Int("travelSlots", len(result.TravelSlots)),
		zap.Int("dropped", len(result.Dropped())),
		zap.Duration("took", time.Since(started)))
	return result, nil
}

// placeMember runs the placement ladder for one member block: in place,
// whole-block relocation, split relocation, else dropped.
func (e *Engine) placeMember(rc *runContext, b Block, minStart int, tryInPlace bool) ([]*segment, models.PlacementOutcome) {
	segs, outcome := e.placeLadder(rc, b, minStart, tryInPlace)
	for _, s := range segs {
		s.seq = b.seq
	}
	return segs, outcome
}

func (e *Engine) placeLadder(rc *runContext, b Block, minStart int, tryInPlace bool) ([]*segment, models.PlacementOutcome) {
	if tryInPlace && minStart <= b.Start {
		if seg, ok := e.placeInPlace(rc, b); ok {
			return []*segment{seg}, e.outcome(b, models.PlacementPlaced, 1, 0, "")
		}
	}
	if seg, ok := e.placeWhole(rc, b, minStart); ok {
		reason := fmt.Sprintf("moved to %s %s", seg.Date, FormatClock(seg.Activity.Start))
		return []*segment{seg}, e.outcome(b, models.PlacementRelocated, 1, 0, reason)
	}
	segs, remaining := e.placeSplit(rc, b, minStart)
	if remaining == 0 {
		reason := fmt.Sprintf("divided into %d segments", len(segs))
		return segs, e.outcome(b, models.PlacementSplit, len(segs), 0, reason)
	}
	e.logger.Warn("activity could not be placed",
		zap.String("participantID", b.ParticipantID),
		zap.String("date", b.Date),
		zap.Int("unplacedMinutes", remaining))
	reason := fmt.Sprintf("no free window within %d weekdays; %d minutes unplaced", e.cfg.HorizonWeekdays, remaining)
	return nil, e.outcome(b, models.PlacementDropped, 0, remaining, reason)
}

// markShifted updates the outcomes of whole blocks whose activity the
// reconciliation sweep moved. Split outcomes keep their status.
func markShifted(outcomes []models.PlacementOutcome, shifted []*segment) {
	for _, s := range shifted {
		o := &outcomes[s.seq]
		switch o.Status {
		case models.PlacementPlaced:
			o.Status = models.PlacementRelocated
			o.Reason = fmt.Sprintf("shifted to %s by travel reconciliation", FormatClock(s.Activity.Start))
		case models.PlacementRelocated:
			o.Reason = fmt.Sprintf("moved to %s %s", s.Date, FormatClock(s.Activity.Start))
		}
	}
}

func (e *Engine) outcome(b Block, status models.PlacementStatus, segments, unplaced int, reason string) models.PlacementOutcome {
	return models.PlacementOutcome{
		ParticipantID:   b.ParticipantID,
		Date:            b.Date,
		StartTime:       FormatClock(b.Start),
		EndTime:         FormatClock(b.End),
		Label:           b.Label,
		Status:          status,
		Reason:          reason,
		Segments:        segments,
		UnplacedMinutes: unplaced,
	}
}

func (e *Engine) gated(mode models.TravelMode) bool {
	for _, m := range e.cfg.GatedModes {
		if m == mode {
			return true
		}
	}
	return false
}

// passthrough returns the blocks unchanged, sorted by time, without travel.
func (e *Engine) passthrough(blocks []Block) *models.RecalculationResult {
	result := &models.RecalculationResult{
		ActivitySlots: []models.ActivitySlot{},
		TravelSlots:   []models.TravelSlot{},
		Mode:          models.ModeNormal,
		Outcomes:      make([]models.PlacementOutcome, len(blocks)),
	}
	for _, b := range SortByTime(blocks) {
		result.ActivitySlots = append(result.ActivitySlots,
			ExpandAtomic(b.ParticipantID, b.Date, b.Start, b.End, b.Label, e.cfg.SlotUnitMinutes)...)
		result.Outcomes[b.seq] = e.outcome(b, models.PlacementPlaced, 1, 0, "")
	}
	return result
}

// buildResult converts the placed segments into atomic activity slots and
// travel slots, both ordered by date, start and participant.
func (e *Engine) buildResult(rc *runContext, segments []*segment, outcomes []models.PlacementOutcome) *models.RecalculationResult {
	result := &models.RecalculationResult{
		ActivitySlots:  []models.ActivitySlot{},
		TravelSlots:    []models.TravelSlot{},
		Mode:           rc.mode,
		TravelAdjusted: true,
		Outcomes:       outcomes,
	}
	ordered := append([]*segment(nil), segments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Activity.Start != b.Activity.Start {
			return a.Activity.Start < b.Activity.Start
		}
		return a.ParticipantID < b.ParticipantID
	})

	for _, s := range ordered {
		result.ActivitySlots = append(result.ActivitySlots,
			ExpandAtomic(s.ParticipantID, s.Date, s.Activity.Start, s.Activity.End, s.Label, e.cfg.SlotUnitMinutes)...)
		if s.Travel == nil {
			continue
		}
		result.TravelSlots = append(result.TravelSlots, e.travelSlot(rc, s))
	}
	return result
}

func (e *Engine) travelSlot(rc *runContext, s *segment) models.TravelSlot {
	start, end := FormatClock(s.Travel.Start), FormatClock(s.Travel.End)
	key := fmt.Sprintf("%s|%s|%s|%s|%s", s.ParticipantID, s.Date, start, end, rc.mode)
	return models.TravelSlot{
		ID:                uuid.NewSHA1(travelSlotNamespace, []byte(key)).String(),
		ParticipantID:     s.ParticipantID,
		Date:              s.Date,
		StartTime:         start,
		EndTime:           end,
		FromParticipantID: s.Leg.FromID,
		FromLocationName:  rc.participants[s.Leg.FromID].DisplayName(),
		ToLocationName:    rc.participants[s.ParticipantID].DisplayName(),
		Mode:              rc.mode,
		DurationSeconds:   s.Leg.Seconds,
		DistanceMeters:    s.Leg.Meters,
		DurationText:      DurationText(s.Travel.End - s.Travel.Start),
		Estimated:         s.Leg.Estimated,
	}
}

// locations maps participant IDs to their coordinates for the sorter.
func (rc *runContext) locations() map[string]*models.Location {
	out := make(map[string]*models.Location, len(rc.participants))
	for id, p := range rc.participants {
		out[id] = p.Location
	}
	return out
}
