package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func activeRow(id uint64, name string, pos int64) queueRow {
	return queueRow{
		ID:          id,
		Name:        name,
		Status:      "active",
		Position:    pos,
		HasPosition: true,
		CreatedAt:   baseTime,
	}
}

func unassignedRow(id uint64, name string) queueRow {
	return queueRow{ID: id, Name: name, Status: "active", CreatedAt: baseTime}
}

// advance simulates one successful allocation against an in-memory
// queue: the picked company moves to the back and records the
// assignment time, exactly what AdvanceNext persists.
func advance(rows []queueRow, at time.Time) (picked queueRow, ok bool) {
	picked, ok = pickNext(rows)
	if !ok {
		return queueRow{}, false
	}
	back := maxValidPosition(rows) + 1
	for i := range rows {
		if rows[i].ID == picked.ID {
			rows[i].Position = back
			t := at
			rows[i].LastAssigned = &t
		}
	}
	return picked, true
}

func TestPickNextEmpty(t *testing.T) {
	_, ok := pickNext(nil)
	assert.False(t, ok)

	// rows exist but none holds a usable slot
	rows := []queueRow{unassignedRow(1, "Alpha"), {ID: 2, Name: "Beta", Status: "active", Position: -3, HasPosition: true}}
	_, ok = pickNext(rows)
	assert.False(t, ok)
}

func TestPickNextLowestPositionWins(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "Alpha", 7),
		activeRow(2, "Beta", 2),
		activeRow(3, "Gamma", 5),
	}
	got, ok := pickNext(rows)
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.ID)
	assert.Equal(t, int64(2), got.Position)
}

func TestPickNextTieBreaks(t *testing.T) {
	early := baseTime.Add(-time.Hour)
	late := baseTime

	neverAssigned := activeRow(1, "Zeta", 3)
	assignedEarly := activeRow(2, "Alpha", 3)
	assignedEarly.LastAssigned = &early
	assignedLate := activeRow(3, "Beta", 3)
	assignedLate.LastAssigned = &late

	// a company that never received an order beats any assigned one
	got, ok := pickNext([]queueRow{assignedLate, neverAssigned, assignedEarly})
	require.True(t, ok)
	assert.Equal(t, neverAssigned.ID, got.ID)

	// among assigned companies the longest-waiting one wins
	got, ok = pickNext([]queueRow{assignedLate, assignedEarly})
	require.True(t, ok)
	assert.Equal(t, assignedEarly.ID, got.ID)

	// identical history falls back to name order
	twinA := activeRow(4, "Avila", 3)
	twinB := activeRow(5, "Bahia", 3)
	got, ok = pickNext([]queueRow{twinB, twinA})
	require.True(t, ok)
	assert.Equal(t, twinA.ID, got.ID)
}

// Three companies at positions 1..3 rotate A, B, C; the fourth
// allocation wraps back to B because A moved to the largest position.
func TestRotationCycle(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "A", 1),
		activeRow(2, "B", 2),
		activeRow(3, "C", 3),
	}
	now := baseTime

	var order []string
	for i := 0; i < 3; i++ {
		picked, ok := advance(rows, now.Add(time.Duration(i)*time.Minute))
		require.True(t, ok)
		order = append(order, picked.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, order)

	// each pick went to the back of the line in turn
	for _, r := range rows {
		switch r.Name {
		case "A":
			assert.Equal(t, int64(4), r.Position)
		case "B":
			assert.Equal(t, int64(5), r.Position)
		case "C":
			assert.Equal(t, int64(6), r.Position)
		}
	}

	picked, ok := advance(rows, now.Add(10*time.Minute))
	require.True(t, ok)
	assert.Equal(t, "A", picked.Name)
}

// N consecutive allocations over N distinct positions return each
// company exactly once, and allocation N+1 repeats the first pick.
func TestRotationFairness(t *testing.T) {
	const n = 7
	rows := make([]queueRow, 0, n)
	names := []string{"Aon", "Bix", "Cor", "Dux", "Eli", "Fog", "Gal"}
	for i := 0; i < n; i++ {
		rows = append(rows, activeRow(uint64(i+1), names[i], int64(i+1)))
	}

	seen := make(map[uint64]bool)
	var first uint64
	for i := 0; i < n; i++ {
		picked, ok := advance(rows, baseTime.Add(time.Duration(i)*time.Second))
		require.True(t, ok)
		assert.False(t, seen[picked.ID], "company %d picked twice in one cycle", picked.ID)
		seen[picked.ID] = true
		if i == 0 {
			first = picked.ID
		}
	}
	assert.Len(t, seen, n)

	picked, ok := advance(rows, baseTime.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, first, picked.ID)

	// uniqueness holds throughout
	held := make(map[int64]int)
	for _, r := range rows {
		held[r.Position]++
	}
	for pos, cnt := range held {
		assert.Equal(t, 1, cnt, "position %d held by %d companies", pos, cnt)
	}
}

func TestComputeHealthEmptyAndClean(t *testing.T) {
	rep := computeHealth(nil)
	assert.Equal(t, 100, rep.HealthScore)
	assert.False(t, rep.NeedsAttention)

	rep = computeHealth([]queueRow{
		activeRow(1, "A", 1),
		activeRow(2, "B", 2),
		{ID: 3, Name: "C", Status: "pending", CreatedAt: baseTime},
	})
	assert.Equal(t, 3, rep.TotalCompanies)
	assert.Equal(t, 2, rep.ActiveCompanies)
	assert.Equal(t, 0, rep.InvalidPositions)
	assert.Equal(t, 0, rep.DuplicatePositions)
	assert.Equal(t, 100, rep.HealthScore)
	assert.False(t, rep.NeedsAttention)
}

func TestComputeHealthCountsDefects(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "A", 2),
		activeRow(2, "B", 2), // duplicate of A
		unassignedRow(3, "C"),
		activeRow(4, "D", 5),
	}
	rep := computeHealth(rows)
	assert.Equal(t, 4, rep.ActiveCompanies)
	assert.Equal(t, 1, rep.InvalidPositions)
	assert.Equal(t, 1, rep.DuplicatePositions)
	assert.Equal(t, 50, rep.HealthScore)
	assert.True(t, rep.NeedsAttention)
}

func TestComputeHealthFloorsAtZero(t *testing.T) {
	rows := []queueRow{
		unassignedRow(1, "A"),
		unassignedRow(2, "B"),
	}
	rep := computeHealth(rows)
	assert.Equal(t, 0, rep.HealthScore)
	assert.True(t, rep.NeedsAttention)
}

// Adding one more defect never raises the score.
func TestComputeHealthMonotonic(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "A", 1),
		activeRow(2, "B", 2),
		activeRow(3, "C", 3),
		activeRow(4, "D", 4),
	}
	prev := computeHealth(rows).HealthScore
	for i := range rows {
		worse := make([]queueRow, len(rows))
		copy(worse, rows)
		worse[i].HasPosition = false // invalidate one more slot each pass
		rows = worse
		got := computeHealth(rows).HealthScore
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
}

func TestPlanPositionRepairNothingToFix(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "A", 1),
		activeRow(2, "B", 2),
	}
	assert.Nil(t, planPositionRepair(rows))
}

// A(pos=2) and B(pos=2) duplicated, C unassigned: A keeps its slot, B
// and C get fresh values above 2 in name order.
func TestPlanPositionRepairDuplicateAndNull(t *testing.T) {
	a := activeRow(1, "A", 2)
	a.CreatedAt = baseTime.Add(-time.Hour) // A is the older occurrence
	rows := []queueRow{
		a,
		activeRow(2, "B", 2),
		unassignedRow(3, "C"),
	}
	plan := planPositionRepair(rows)
	require.Len(t, plan, 2)
	assert.Equal(t, positionChange{ID: 2, Name: "B", NewPosition: 3}, plan[0])
	assert.Equal(t, positionChange{ID: 3, Name: "C", NewPosition: 4}, plan[1])
}

func TestPlanPositionRepairIdempotent(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "A", 3),
		activeRow(2, "B", 3),
		unassignedRow(3, "C"),
		activeRow(4, "D", 1),
	}
	plan := planPositionRepair(rows)
	require.NotEmpty(t, plan)

	for _, ch := range plan {
		for i := range rows {
			if rows[i].ID == ch.ID {
				rows[i].Position = ch.NewPosition
				rows[i].HasPosition = true
			}
		}
	}
	assert.Nil(t, planPositionRepair(rows), "second repair pass must be a no-op")

	rep := computeHealth(rows)
	assert.Equal(t, 100, rep.HealthScore)
}

// Companies already holding a valid unique slot are never touched.
func TestPlanPositionRepairMinimal(t *testing.T) {
	rows := []queueRow{
		activeRow(1, "A", 1),
		activeRow(2, "B", 6),
		unassignedRow(3, "C"),
	}
	plan := planPositionRepair(rows)
	require.Len(t, plan, 1)
	assert.Equal(t, uint64(3), plan[0].ID)
	assert.Equal(t, int64(7), plan[0].NewPosition, "fresh value starts above the largest kept position")
}

func TestSurvivorOf(t *testing.T) {
	older := activeRow(5, "Zulu", 4)
	older.CreatedAt = baseTime.Add(-time.Hour)
	younger := activeRow(2, "Alpha", 4)

	assert.Equal(t, older.ID, survivorOf([]queueRow{younger, older}).ID, "earliest created_at survives")

	sameAge := activeRow(9, "Beta", 4)
	assert.Equal(t, younger.ID, survivorOf([]queueRow{sameAge, younger}).ID, "name breaks created_at ties")

	twinA := activeRow(3, "Alpha", 4)
	assert.Equal(t, twinA.ID, survivorOf([]queueRow{younger, twinA}).ID, "lowest ID is the last resort")
}

func TestPlanQueueReset(t *testing.T) {
	rows := []queueRow{
		activeRow(3, "Charlie", 42),
		unassignedRow(1, "Alpha"),
		activeRow(2, "Bravo", -1),
	}
	plan := planQueueReset(rows)
	require.Len(t, plan, 3)
	assert.Equal(t, positionChange{ID: 1, Name: "Alpha", NewPosition: 1}, plan[0])
	assert.Equal(t, positionChange{ID: 2, Name: "Bravo", NewPosition: 2}, plan[1])
	assert.Equal(t, positionChange{ID: 3, Name: "Charlie", NewPosition: 3}, plan[2])

	// deterministic: same input, same plan
	assert.Equal(t, plan, planQueueReset(rows))
}

func TestProcessingScore(t *testing.T) {
	assert.Equal(t, 100, processingScore(0, 0), "empty sample is healthy")
	assert.Equal(t, 100, processingScore(50, 0))
	assert.Equal(t, 0, processingScore(10, 10))
	assert.Equal(t, 0, processingScore(10, 25), "over-count clamps to zero")
	assert.Equal(t, 80, processingScore(50, 10))
	assert.Equal(t, 66, processingScore(3, 1), "integer score rounds down")
}

func TestMaxValidPosition(t *testing.T) {
	assert.Equal(t, int64(0), maxValidPosition(nil))
	rows := []queueRow{
		unassignedRow(1, "A"),
		activeRow(2, "B", 9),
		activeRow(3, "C", 4),
	}
	assert.Equal(t, int64(9), maxValidPosition(rows))
}
