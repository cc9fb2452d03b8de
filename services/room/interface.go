package room

import (
	"context"
	"fmt"

	roomRepo "tutorroute/database/repository/room"
	"tutorroute/models"
	"tutorroute/services/schedule"

	"go.uber.org/zap"
)

// ScheduleService runs the scheduling engine against stored rooms.
type ScheduleService interface {
	Recalculate(ctx context.Context, roomID string, mode models.TravelMode) (*models.RecalculationResult, error)
	Validate(ctx context.Context, roomID string, mode models.TravelMode) (models.ValidationResult, error)
	Simulate(ctx context.Context, roomID string, req models.SimulationRequest) (*models.SimulationResult, error)
	Relocate(ctx context.Context, roomID string, req models.RelocateRequest) (*models.RecalculationResult, error)
}

// DefaultScheduleService is the production implementation.
type DefaultScheduleService struct {
	Repo       roomRepo.RoomRepository
	Engine     *schedule.Engine
	Logger     *zap.Logger
	MaxRetries int // attempts when the room changes underneath a save
}

func NewDefaultScheduleService(repo roomRepo.RoomRepository, engine *schedule.Engine, logger *zap.Logger) (*DefaultScheduleService, error) {
	if repo == nil || engine == nil {
		return nil, fmt.Errorf("schedule service initialization error: one or more dependencies are nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultScheduleService{
		Repo:       repo,
		Engine:     engine,
		Logger:     logger,
		MaxRetries: 3,
	}, nil
}
