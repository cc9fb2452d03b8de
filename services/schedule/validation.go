package schedule

import (
	"context"
	"fmt"

	"tutorroute/models"
)

// Validate runs the gate for in.Mode without recalculating anything. Modes
// that are not gated are always valid.
func (e *Engine) Validate(ctx context.Context, in Input) (models.ValidationResult, error) {
	if !in.Mode.Valid() {
		return models.ValidationResult{}, fmt.Errorf("%w: %q", ErrUnknownMode, in.Mode)
	}
	if !e.gated(in.Mode) {
		return models.ValidationResult{IsValid: true}, nil
	}
	rc, err := e.newRunContext(ctx, in)
	if err != nil {
		return models.ValidationResult{}, err
	}
	if rc.participants[rc.ownerID].Location == nil {
		return models.ValidationResult{}, ErrMissingOwnerLocation
	}
	blocks, err := e.blocks(rc, in.Assignments)
	if err != nil {
		return models.ValidationResult{}, err
	}
	return e.validate(rc, blocks), nil
}

// validate checks every owner to member leg and every consecutive member to
// member leg of each date's itinerary against MaxLegMinutes.
func (e *Engine) validate(rc *runContext, blocks []Block) models.ValidationResult {
	owner := rc.participants[rc.ownerID]
	ordered := SortByDistance(blocks, rc.ownerID, *owner.Location, rc.locations())

	checked := make(map[legKey]bool)
	check := func(from, to string) *models.ValidationResult {
		key := legKey{from: from, to: to}
		if from == to || checked[key] {
			return nil
		}
		checked[key] = true
		leg := e.legBetween(rc, from, to)
		minutes := (leg.Seconds + 59) / 60
		if minutes <= e.cfg.MaxLegMinutes {
			return nil
		}
		return &models.ValidationResult{
			IsValid: false,
			Message: fmt.Sprintf("%s from %s to %s takes about %d minutes, over the %d-minute limit; choose another travel mode",
				rc.mode, rc.participants[from].DisplayName(), rc.participants[to].DisplayName(), minutes, e.cfg.MaxLegMinutes),
		}
	}

	date, prev := "", ""
	for _, b := range ordered {
		if b.ParticipantID == rc.ownerID {
			continue
		}
		if b.Date != date {
			date, prev = b.Date, ""
		}
		if res := check(rc.ownerID, b.ParticipantID); res != nil {
			return *res
		}
		if prev != "" {
			if res := check(prev, b.ParticipantID); res != nil {
				return *res
			}
		}
		prev = b.ParticipantID
	}
	return models.ValidationResult{IsValid: true}
}
