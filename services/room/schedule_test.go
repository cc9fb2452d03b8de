package room

import (
	"context"
	"testing"
	"time"

	roomRepo "tutorroute/database/repository/room"
	"tutorroute/models"
	"tutorroute/services/schedule"
	"tutorroute/services/travel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRoomRepo struct {
	room     models.Room
	loads    int
	saves    []roomRepo.ScheduleUpdate
	saveErrs []error
}

func (f *fakeRoomRepo) GetByID(_ context.Context, roomID string) (*models.Room, error) {
	f.loads++
	if roomID != f.room.ID {
		return nil, roomRepo.ErrRoomNotFound
	}
	room := f.room
	return &room, nil
}

func (f *fakeRoomRepo) SaveSchedule(_ context.Context, _ string, version int, update roomRepo.ScheduleUpdate) (int, error) {
	if len(f.saveErrs) > 0 {
		err := f.saveErrs[0]
		f.saveErrs = f.saveErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	f.saves = append(f.saves, update)
	f.room.ActivitySlots = update.ActivitySlots
	f.room.TravelSlots = update.TravelSlots
	f.room.TravelMode = update.TravelMode
	f.room.Version = version + 1
	return f.room.Version, nil
}

func (f *fakeRoomRepo) EnsureIndexes() error { return nil }

// fixedProvider answers every leg with the same duration.
func fixedProvider(minutes int) travel.Provider {
	return travel.ProviderFunc(func(context.Context, models.Location, models.Location, models.TravelMode) (travel.Leg, error) {
		return travel.Leg{DurationSeconds: minutes * 60, DistanceMeters: minutes * 500}, nil
	})
}

func testRoom() models.Room {
	return models.Room{
		ID:      "room-1",
		Name:    "Grade 8 maths",
		OwnerID: "tutor",
		Participants: []models.Participant{
			{ID: "kim", Name: "Kim", Location: &models.Location{Lat: 0, Lng: 0.1, DisplayName: "Kim's place"}},
			{ID: "tutor", Name: "Tutor", Location: &models.Location{Lat: 0, Lng: 0, DisplayName: "Tutor's place"}},
		},
		AssignedSlots: schedule.ExpandAtomic("kim", "2025-03-03", 600, 660, "Maths", 10),
		TravelMode:    models.ModeNormal,
		Version:       1,
	}
}

func newTestService(repo *fakeRoomRepo, minutes int) *DefaultScheduleService {
	cfg := schedule.DefaultConfig()
	cfg.Location = time.UTC
	engine := schedule.NewEngine(fixedProvider(minutes), cfg, zap.NewNop())
	svc, err := NewDefaultScheduleService(repo, engine, zap.NewNop())
	if err != nil {
		panic(err)
	}
	return svc
}

func TestRecalculateSavesTheSchedule(t *testing.T) {
	repo := &fakeRoomRepo{room: testRoom()}
	svc := newTestService(repo, 12)

	res, err := svc.Recalculate(context.Background(), "room-1", models.ModeDriving)
	require.NoError(t, err)

	require.Len(t, res.TravelSlots, 1)
	assert.Equal(t, "09:40", res.TravelSlots[0].StartTime)
	assert.Equal(t, "Tutor's place", res.TravelSlots[0].FromLocationName)
	require.Len(t, repo.saves, 1)
	assert.Equal(t, models.ModeDriving, repo.saves[0].TravelMode)
	assert.Equal(t, 2, repo.room.Version)

	// A second run starts from the assignment again, not from its own output.
	again, err := svc.Recalculate(context.Background(), "room-1", "")
	require.NoError(t, err)
	assert.Equal(t, res.ActivitySlots, again.ActivitySlots)
	assert.Equal(t, res.TravelSlots, again.TravelSlots)
}

func TestRecalculateRetriesOnVersionConflict(t *testing.T) {
	repo := &fakeRoomRepo{room: testRoom(), saveErrs: []error{roomRepo.ErrVersionConflict, nil}}
	svc := newTestService(repo, 12)

	_, err := svc.Recalculate(context.Background(), "room-1", models.ModeDriving)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
	assert.Len(t, repo.saves, 1)
}

func TestRecalculateGivesUpAfterRetries(t *testing.T) {
	conflict := roomRepo.ErrVersionConflict
	repo := &fakeRoomRepo{room: testRoom(), saveErrs: []error{conflict, conflict, conflict}}
	svc := newTestService(repo, 12)

	_, err := svc.Recalculate(context.Background(), "room-1", models.ModeDriving)
	assert.ErrorIs(t, err, roomRepo.ErrVersionConflict)
	assert.Equal(t, 3, repo.loads)
	assert.Empty(t, repo.saves)
}

func TestRecalculatePreconditionsDoNotSave(t *testing.T) {
	room := testRoom()
	room.Participants[1].Location = nil
	repo := &fakeRoomRepo{room: room}
	svc := newTestService(repo, 12)

	_, err := svc.Recalculate(context.Background(), "room-1", models.ModeDriving)
	assert.ErrorIs(t, err, schedule.ErrMissingOwnerLocation)
	assert.Empty(t, repo.saves)

	_, err = svc.Recalculate(context.Background(), "room-2", models.ModeDriving)
	assert.ErrorIs(t, err, roomRepo.ErrRoomNotFound)

	room = testRoom()
	room.OwnerID = "someone-else"
	repo = &fakeRoomRepo{room: room}
	_, err = newTestService(repo, 12).Recalculate(context.Background(), "room-1", models.ModeDriving)
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestValidateUsesStoredMode(t *testing.T) {
	room := testRoom()
	room.TravelMode = models.ModeWalking
	svc := newTestService(&fakeRoomRepo{room: room}, 90)

	res, err := svc.Validate(context.Background(), "room-1", "")
	require.NoError(t, err)
	assert.False(t, res.IsValid)

	res, err = svc.Validate(context.Background(), "room-1", models.ModeTransit)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
}

func TestSimulateAndRelocateUseTheCurrentSchedule(t *testing.T) {
	repo := &fakeRoomRepo{room: testRoom()}
	svc := newTestService(repo, 12)
	_, err := svc.Recalculate(context.Background(), "room-1", models.ModeDriving)
	require.NoError(t, err)

	sim, err := svc.Simulate(context.Background(), "room-1", models.SimulationRequest{
		ParticipantID: "kim", Date: "2025-03-03", StartTime: "14:00", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.True(t, sim.CanPlace)
	assert.Equal(t, 20, sim.TravelMinutes)

	res, err := svc.Relocate(context.Background(), "room-1", models.RelocateRequest{
		ParticipantID: "kim", Date: "2025-03-03", StartTime: "10:00", MinimumStart: "14:00",
	})
	require.NoError(t, err)
	require.Len(t, res.TravelSlots, 1)
	assert.Equal(t, "14:00", res.TravelSlots[0].StartTime)
	assert.Equal(t, "14:20", res.ActivitySlots[0].StartTime)
	assert.Len(t, repo.saves, 2)
}
