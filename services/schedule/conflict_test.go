package schedule

import (
	"testing"

	"tutorroute/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapsIsHalfOpen(t *testing.T) {
	assert.True(t, Overlaps(600, 660, 630, 700))
	assert.True(t, Overlaps(600, 660, 540, 601))
	assert.False(t, Overlaps(600, 660, 660, 720))
	assert.False(t, Overlaps(600, 660, 540, 600))
}

func TestAllocationTable(t *testing.T) {
	table := NewAllocationTable()
	owner := Interval{Start: 600, End: 660, ParticipantID: "owner", Kind: KindActivity}
	travel := Interval{Start: 540, End: 560, ParticipantID: "m1", Kind: KindTravel}
	table.Commit("2025-03-03", owner)
	table.Commit("2025-03-03", travel)
	table.Commit("2025-03-03", Interval{Start: 700, End: 700, ParticipantID: "m1"})

	assert.Equal(t, []Interval{travel, owner}, table.Intervals("2025-03-03"))
	assert.True(t, table.Overlaps("2025-03-03", 650, 700))
	assert.False(t, table.Overlaps("2025-03-03", 660, 720))
	assert.False(t, table.Overlaps("2025-03-04", 600, 660))
	assert.Equal(t, []Interval{owner}, table.Conflicts("2025-03-03", 610, 620))

	require.True(t, table.Release("2025-03-03", owner))
	assert.False(t, table.Release("2025-03-03", owner))
	assert.Equal(t, []Interval{travel}, table.Intervals("2025-03-03"))
	assert.Equal(t, []string{"2025-03-03"}, table.Dates())
}

func TestCompileBlocked(t *testing.T) {
	blocked, err := CompileBlocked([]models.BlockedTime{
		{StartTime: "12:00", EndTime: "13:00", Label: "Lunch"},
		{StartTime: "15:00", EndTime: "16:00", Label: "Assembly", Date: "2025-03-04"},
	})
	require.NoError(t, err)
	require.Len(t, blocked, 2)

	hit, which := OverlapsBlocked("2025-03-03", 690, 730, blocked)
	assert.True(t, hit)
	assert.Equal(t, "Lunch", which.Label)

	hit, _ = OverlapsBlocked("2025-03-03", 900, 960, blocked)
	assert.False(t, hit, "dated blocked time only applies on its date")

	hit, which = OverlapsBlocked("2025-03-04", 930, 990, blocked)
	assert.True(t, hit)
	assert.Equal(t, "Assembly", which.Label)

	hit, _ = OverlapsBlocked("2025-03-03", 780, 840, blocked)
	assert.False(t, hit)

	_, err = CompileBlocked([]models.BlockedTime{{StartTime: "13:00", EndTime: "12:00", Label: "Backwards"}})
	assert.Error(t, err)
}

func TestFreeGaps(t *testing.T) {
	table := NewAllocationTable()
	table.Commit("2025-03-03", Interval{Start: 600, End: 660, ParticipantID: "owner", Kind: KindActivity})
	blocked := []BlockedRange{{Start: 720, End: 780, Label: "Lunch"}}

	gaps := freeGaps("2025-03-03", Range{Start: 540, End: 1020}, blocked, table)
	assert.Equal(t, []Range{{540, 600}, {660, 720}, {780, 1020}}, gaps)

	gaps = freeGaps("2025-03-03", Range{Start: 600, End: 660}, blocked, table)
	assert.Empty(t, gaps)
}
