// File: database/repository/room/interface.go
package roomRepo

import (
	"context"
	"errors"

	"tutorroute/database"
	"tutorroute/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrVersionConflict = errors.New("room was modified concurrently")
)

// ScheduleUpdate is the recalculated part of a room document.
type ScheduleUpdate struct {
	ActivitySlots []models.ActivitySlot
	TravelSlots   []models.TravelSlot
	TravelMode    models.TravelMode
}

type RoomRepository interface {
	GetByID(ctx context.Context, roomID string) (*models.Room, error)
	// SaveSchedule writes update if the stored version still equals version
	// and returns the new version.
	SaveSchedule(ctx context.Context, roomID string, version int, update ScheduleUpdate) (int, error)
	EnsureIndexes() error
}

type mongoRoomRepo struct {
	coll *mongo.Collection
}

// NewMongoRoomRepo constructs a new MongoDB RoomRepository.
func NewMongoRoomRepo() RoomRepository {
	return &mongoRoomRepo{
		coll: database.Database().Collection("rooms"),
	}
}
