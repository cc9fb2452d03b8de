// File: database/repository/room/crud.go
package roomRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorroute/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoRoomRepo) GetByID(ctx context.Context, roomID string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var room models.Room
	err := r.coll.FindOne(ctx, bson.M{"id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}
	return &room, nil
}

func (r *mongoRoomRepo) SaveSchedule(ctx context.Context, roomID string, version int, update ScheduleUpdate) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":      roomID,
		"version": version,
	}
	change := bson.M{
		"$set": bson.M{
			"activitySlots": update.ActivitySlots,
			"travelSlots":   update.TravelSlots,
			"travelMode":    update.TravelMode,
			"updatedAt":     time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, change)
	if err != nil {
		return 0, fmt.Errorf("failed to save schedule for room %s: %w", roomID, err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"id": roomID})
		if err != nil {
			return 0, fmt.Errorf("failed to check room %s: %w", roomID, err)
		}
		if n == 0 {
			return 0, ErrRoomNotFound
		}
		return 0, ErrVersionConflict
	}
	return version + 1, nil
}
