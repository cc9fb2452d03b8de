package schedule

import (
	"context"
	"fmt"
	"time"

	"tutorroute/models"

	"go.uber.org/zap"
)

// Relocate moves one member activity of the current schedule to the first
// feasible slot not earlier than req.MinimumStart on its date, searching the
// usual horizon. The rest of the schedule stays where it is apart from travel
// legs corrected by the reconciliation sweep.
func (e *Engine) Relocate(ctx context.Context, in Input, req models.RelocateRequest) (*models.RecalculationResult, error) {
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
	if in.Mode != models.ModeNormal && rc.participants[rc.ownerID].Location == nil {
		return nil, ErrMissingOwnerLocation
	}
	if req.ParticipantID == rc.ownerID {
		return nil, fmt.Errorf("%w: the owner's activities are fixed", ErrInvalidActivity)
	}
	blocks, err := e.blocks(rc, in.Assignments)
	if err != nil {
		return nil, err
	}
	date, err := NormalizeDate(req.Date, e.cfg.Location)
	if err != nil {
		return nil, err
	}
	start, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	minStart := 0
	if req.MinimumStart != "" {
		if minStart, err = ParseClock(req.MinimumStart); err != nil {
			return nil, err
		}
	}

	target := -1
	for i, b := range blocks {
		if b.ParticipantID == req.ParticipantID && b.Date == date && b.Start == start {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: %s on %s at %s", ErrBlockNotFound, req.ParticipantID, date, req.StartTime)
	}
	moving := blocks[target]

	outcomes := make([]models.PlacementOutcome, len(blocks))
	segments := e.seed(rc, blocks, in.Travel, func(b Block) bool { return b.seq == moving.seq })
	for _, b := range blocks {
		if b.seq != moving.seq {
			outcomes[b.seq] = e.outcome(b, models.PlacementPlaced, 1, 0, "")
		}
	}

	placed, outcome := e.placeMember(rc, moving, minStart, false)
	segments = append(segments, placed...)
	outcomes[moving.seq] = outcome
	e.metrics.RecordOutcome(outcome.Status)

	if in.Mode != models.ModeNormal {
		markShifted(outcomes, e.reconcile(rc, segments))
	}
	result := e.buildResult(rc, segments, outcomes)
	result.TravelAdjusted = in.Mode != models.ModeNormal

	e.metrics.RecordRun(in.Mode, time.Since(started))
	e.logger.Info("activity relocated",
		zap.String("participantID", moving.ParticipantID),
		zap.String("from", moving.Date+" "+FormatClock(moving.Start)),
		zap.String("status", string(outcome.Status)),
		zap.String("reason", outcome.Reason))
	return result, nil
}
