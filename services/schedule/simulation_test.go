package schedule

import (
	"context"
	"testing"
	"time"

	"tutorroute/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentSchedule() Input {
	return Input{
		Owner: owner(),
		Members: []models.Participant{
			member("a", houseA),
			member("b", houseB),
			member("c", houseB, available(time.Monday, "09:00", "12:00")),
		},
		Assignments: []models.Assignment{
			assign("owner", monday, "10:00", "11:00"),
			assign("a", monday, "13:00", "14:00"),
		},
		Travel: []models.TravelSlot{{
			ID: "t1", ParticipantID: "a", Date: monday, StartTime: "12:40", EndTime: "13:00",
			FromParticipantID: "owner", Mode: models.ModeDriving, DurationSeconds: 15 * 60,
		}},
		BlockedTimes: []models.BlockedTime{{StartTime: "16:30", EndTime: "17:00", Label: "Pickup"}},
		Mode:         models.ModeDriving,
	}
}

func simulationEngine() *Engine {
	return newTestEngine(newLegTable().set(ownerHome, houseA, 15).set(ownerHome, houseB, 25).set(houseA, houseB, 10))
}

func TestSimulateChainsFromPrecedingMember(t *testing.T) {
	res, err := simulationEngine().Simulate(context.Background(), currentSchedule(), models.SimulationRequest{
		ParticipantID: "b", Date: monday, StartTime: "15:00", DurationMinutes: 60,
	})
	require.NoError(t, err)

	assert.True(t, res.CanPlace)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 10, res.TravelMinutes)
	assert.Equal(t, "A house", res.FromLocationName)
	require.NotNil(t, res.ProposedTravelWindow)
	assert.Equal(t, models.TimeWindow{StartTime: "14:50", EndTime: "15:00"}, *res.ProposedTravelWindow)
	assert.Equal(t, models.TimeWindow{StartTime: "15:00", EndTime: "16:00"}, res.ProposedActivityWindow)
}

func TestSimulateReportsConflicts(t *testing.T) {
	engine := simulationEngine()
	in := currentSchedule()

	res, err := engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "b", Date: monday, StartTime: "10:30", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, res.CanPlace)
	require.NotEmpty(t, res.Conflicts)
	assert.Equal(t, models.ConflictAllocation, res.Conflicts[0].Kind)
	assert.Equal(t, "owner", res.Conflicts[0].ParticipantID)
	assert.Equal(t, 30, res.TravelMinutes)
	assert.Equal(t, "Owner home", res.FromLocationName)

	res, err = engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "b", Date: monday, StartTime: "16:30", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, res.CanPlace)
	kinds := make([]models.ConflictKind, 0, len(res.Conflicts))
	for _, c := range res.Conflicts {
		kinds = append(kinds, c.Kind)
	}
	assert.ElementsMatch(t, []models.ConflictKind{models.ConflictBlocked, models.ConflictPreference}, kinds)

	res, err = engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "c", Date: monday, StartTime: "14:30", DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.False(t, res.CanPlace)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, models.ConflictPreference, res.Conflicts[0].Kind)

	res, err = engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "b", Date: monday, StartTime: "23:30", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, res.CanPlace)
	assert.Equal(t, models.ConflictBounds, res.Conflicts[0].Kind)
}

func TestSimulateIgnoresTheParticipantsOwnBlock(t *testing.T) {
	res, err := simulationEngine().Simulate(context.Background(), currentSchedule(), models.SimulationRequest{
		ParticipantID: "a", Date: monday, StartTime: "13:30", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.True(t, res.CanPlace, "a's current block is the one being moved")
	assert.Equal(t, 20, res.TravelMinutes)
}

func TestSimulateRejectsBadRequests(t *testing.T) {
	engine := simulationEngine()
	in := currentSchedule()

	_, err := engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "ghost", Date: monday, StartTime: "10:00", DurationMinutes: 30,
	})
	assert.ErrorIs(t, err, ErrUnknownParticipant)

	_, err = engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "b", Date: monday, StartTime: "10:00", DurationMinutes: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidActivity)

	_, err = engine.Simulate(context.Background(), in, models.SimulationRequest{
		ParticipantID: "b", Date: "tomorrow", StartTime: "10:00", DurationMinutes: 30,
	})
	assert.ErrorIs(t, err, ErrInvalidDate)
}
