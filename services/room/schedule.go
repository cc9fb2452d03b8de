package room

import (
	"context"
	"errors"
	"fmt"

	roomRepo "tutorroute/database/repository/room"
	"tutorroute/models"
	"tutorroute/services/schedule"

	"go.uber.org/zap"
)

var ErrNoOwner = errors.New("room has no owner participant")

// Recalculate re-derives the room's schedule from its assignment for mode
// (the room's stored mode when empty) and saves it.
func (s *DefaultScheduleService) Recalculate(ctx context.Context, roomID string, mode models.TravelMode) (*models.RecalculationResult, error) {
	var result *models.RecalculationResult
	err := s.withRetry(ctx, roomID, func(room *models.Room) (*roomRepo.ScheduleUpdate, error) {
		in, err := buildInput(room, pickMode(mode, room), false)
		if err != nil {
			return nil, err
		}
		result, err = s.Engine.Recalculate(ctx, in)
		if err != nil {
			return nil, err
		}
		return &roomRepo.ScheduleUpdate{
			ActivitySlots: result.ActivitySlots,
			TravelSlots:   result.TravelSlots,
			TravelMode:    result.Mode,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Validate runs the travel mode gate for the room without saving anything.
func (s *DefaultScheduleService) Validate(ctx context.Context, roomID string, mode models.TravelMode) (models.ValidationResult, error) {
	room, err := s.Repo.GetByID(ctx, roomID)
	if err != nil {
		return models.ValidationResult{}, err
	}
	in, err := buildInput(room, pickMode(mode, room), false)
	if err != nil {
		return models.ValidationResult{}, err
	}
	return s.Engine.Validate(ctx, in)
}

// Simulate probes a slot against the room's current schedule.
func (s *DefaultScheduleService) Simulate(ctx context.Context, roomID string, req models.SimulationRequest) (*models.SimulationResult, error) {
	room, err := s.Repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	in, err := buildInput(room, pickMode("", room), true)
	if err != nil {
		return nil, err
	}
	return s.Engine.Simulate(ctx, in, req)
}

// Relocate moves one activity of the current schedule and saves the result.
// A later Recalculate starts again from the room's assignment.
func (s *DefaultScheduleService) Relocate(ctx context.Context, roomID string, req models.RelocateRequest) (*models.RecalculationResult, error) {
	var result *models.RecalculationResult
	err := s.withRetry(ctx, roomID, func(room *models.Room) (*roomRepo.ScheduleUpdate, error) {
		in, err := buildInput(room, pickMode("", room), true)
		if err != nil {
			return nil, err
		}
		result, err = s.Engine.Relocate(ctx, in, req)
		if err != nil {
			return nil, err
		}
		return &roomRepo.ScheduleUpdate{
			ActivitySlots: result.ActivitySlots,
			TravelSlots:   result.TravelSlots,
			TravelMode:    result.Mode,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withRetry loads the room, computes an update and saves it, starting over
// when another writer bumped the version in between.
func (s *DefaultScheduleService) withRetry(ctx context.Context, roomID string, compute func(*models.Room) (*roomRepo.ScheduleUpdate, error)) error {
	attempts := s.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		room, err := s.Repo.GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		update, err := compute(room)
		if err != nil {
			return err
		}
		_, err = s.Repo.SaveSchedule(ctx, roomID, room.Version, *update)
		if err == nil {
			return nil
		}
		if !errors.Is(err, roomRepo.ErrVersionConflict) || attempt >= attempts {
			return err
		}
		s.Logger.Info("room changed during recalculation, retrying",
			zap.String("roomID", roomID), zap.Int("attempt", attempt))
	}
}

func pickMode(mode models.TravelMode, room *models.Room) models.TravelMode {
	if mode != "" {
		return mode
	}
	if room.TravelMode != "" {
		return room.TravelMode
	}
	return models.ModeNormal
}

// buildInput normalizes a stored room into engine input. With current set
// the room's latest schedule is used instead of its assignment.
func buildInput(room *models.Room, mode models.TravelMode, current bool) (schedule.Input, error) {
	in := schedule.Input{Mode: mode, BlockedTimes: room.BlockedTimes}

	found := false
	for _, p := range room.Participants {
		switch {
		case p.ID == room.OwnerID:
			p.Role = models.RoleOwner
			in.Owner = p
			found = true
		case p.ID != "":
			p.Role = models.RoleMember
			in.Members = append(in.Members, p)
		}
	}
	if !found {
		return schedule.Input{}, fmt.Errorf("%w: %s", ErrNoOwner, room.ID)
	}

	slots := room.AssignedSlots
	if current && len(room.ActivitySlots) > 0 {
		slots = room.ActivitySlots
		in.Travel = room.TravelSlots
	}
	assignments, err := schedule.MergeAtomic(slots)
	if err != nil {
		return schedule.Input{}, fmt.Errorf("room %s has malformed slots: %w", room.ID, err)
	}
	in.Assignments = assignments
	return in, nil
}
