package repository

import (
	"sort"
	"time"
)

// This file contains the pure decision logic behind the company
// rotation: picking the next company, scoring queue health and planning
// the two repair procedures. Nothing here touches the database; the
// QueueRepo loads the relevant rows under a transaction and feeds them
// through these functions so the decisions are deterministic and
// testable in isolation.

// queueRow is the projection of a companies row that the rotation logic
// operates on. Position carries the raw queue_position value and
// HasPosition distinguishes NULL from zero.
type queueRow struct {
	ID           uint64
	Name         string
	Status       string
	Position     int64
	HasPosition  bool
	LastAssigned *time.Time
	CreatedAt    time.Time
}

// validPosition reports whether the row holds a usable rotation slot.
// NULL and non-positive values both count as unassigned.
func (r queueRow) validPosition() bool { return r.HasPosition && r.Position > 0 }

// positionChange is one planned queue_position update produced by the
// repair planners.
type positionChange struct {
	ID          uint64
	Name        string
	NewPosition int64
}

// HealthReport is the point-in-time health summary computed by the
// diagnostics scan. An empty-but-reachable store is healthy by
// convention and scores 100.
type HealthReport struct {
	TotalCompanies     int  `json:"total_companies"`
	ActiveCompanies    int  `json:"active_companies"`
	InvalidPositions   int  `json:"invalid_positions"`
	DuplicatePositions int  `json:"duplicate_positions"`
	HealthScore        int  `json:"health_score"`
	NeedsAttention     bool `json:"needs_attention"`
}

// Assignment is the result of a successful allocation: which company
// was picked and the rotation slot it held at selection time.
type Assignment struct {
	CompanyID   uint64 `json:"company_id"`
	CompanyName string `json:"company_name"`
	Position    int64  `json:"position"`
}

// ReconciliationReport summarises the booking/service-order
// cross-consistency check. The score is the percentage of sampled
// bookings that have a linked service order.
type ReconciliationReport struct {
	SampledBookings  int `json:"sampled_bookings"`
	UnprocessedCount int `json:"unprocessed_count"`
	SampledOrders    int `json:"sampled_orders"`
	UnlinkedCount    int `json:"unlinked_count"`
	ProcessingScore  int `json:"booking_processing_score"`
}

// pickNext selects the company that is next in the rotation: the
// smallest valid position wins, ties go to the company that has waited
// longest (never-assigned companies first), and the name breaks any
// remaining tie so the choice stays deterministic even on corrupted
// data. The second return value is false when no row holds a valid
// position.
func pickNext(rows []queueRow) (queueRow, bool) {
	var best queueRow
	found := false
	for _, r := range rows {
		if !r.validPosition() {
			continue
		}
		if !found || lessInRotation(r, best) {
			best = r
			found = true
		}
	}
	return best, found
}

// lessInRotation reports whether a comes before b in the rotation
// order. Positions should be unique while the store is healthy; the
// secondary keys only matter during transient corruption.
func lessInRotation(a, b queueRow) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	an, bn := a.LastAssigned == nil, b.LastAssigned == nil
	switch {
	case an && !bn:
		return true
	case !an && bn:
		return false
	case !an && !bn && !a.LastAssigned.Equal(*b.LastAssigned):
		return a.LastAssigned.Before(*b.LastAssigned)
	}
	return a.Name < b.Name
}

// maxValidPosition returns the largest valid position among the rows,
// or 0 when none holds one.
func maxValidPosition(rows []queueRow) int64 {
	var max int64
	for _, r := range rows {
		if r.validPosition() && r.Position > max {
			max = r.Position
		}
	}
	return max
}

// computeHealth derives the diagnostics report from a full scan of the
// companies table. Invalid positions are NULL or non-positive values on
// active companies; duplicates are counted as the excess over one
// holder per distinct value. The score is 100*(1 - defects/active)
// rounded down and floored at 0, so zero defects score 100 and a fully
// defective rotation scores 0.
func computeHealth(rows []queueRow) HealthReport {
	rep := HealthReport{TotalCompanies: len(rows)}
	holders := make(map[int64]int)
	for _, r := range rows {
		if r.Status != "active" {
			continue
		}
		rep.ActiveCompanies++
		if !r.validPosition() {
			rep.InvalidPositions++
			continue
		}
		holders[r.Position]++
	}
	for _, n := range holders {
		if n > 1 {
			rep.DuplicatePositions += n - 1
		}
	}
	defects := rep.InvalidPositions + rep.DuplicatePositions
	switch {
	case rep.ActiveCompanies == 0 || defects == 0:
		rep.HealthScore = 100
	case defects >= rep.ActiveCompanies:
		rep.HealthScore = 0
	default:
		rep.HealthScore = 100 * (rep.ActiveCompanies - defects) / rep.ActiveCompanies
	}
	rep.NeedsAttention = defects > 0
	return rep
}

// planPositionRepair computes the minimal set of position updates that
// restores uniqueness without disturbing companies that already hold a
// valid, unique slot. For each group of duplicates exactly one member
// survives untouched (earliest created_at, name as tiebreak); every
// other defective company is renumbered from max(kept)+1 upward in name
// order, which resolves duplicates and fills the tail without shuffling
// correct companies. Running the plan twice yields an empty second
// plan. Rows must already be restricted to active companies.
func planPositionRepair(rows []queueRow) []positionChange {
	groups := make(map[int64][]queueRow)
	for _, r := range rows {
		if r.validPosition() {
			groups[r.Position] = append(groups[r.Position], r)
		}
	}

	needsFix := make([]queueRow, 0)
	var maxKept int64
	for _, r := range rows {
		if !r.validPosition() {
			needsFix = append(needsFix, r)
			continue
		}
		group := groups[r.Position]
		if len(group) > 1 && survivorOf(group).ID != r.ID {
			needsFix = append(needsFix, r)
			continue
		}
		if r.Position > maxKept {
			maxKept = r.Position
		}
	}
	if len(needsFix) == 0 {
		return nil
	}

	sort.Slice(needsFix, func(i, j int) bool {
		if needsFix[i].Name != needsFix[j].Name {
			return needsFix[i].Name < needsFix[j].Name
		}
		return needsFix[i].ID < needsFix[j].ID
	})
	plan := make([]positionChange, 0, len(needsFix))
	next := maxKept + 1
	for _, r := range needsFix {
		plan = append(plan, positionChange{ID: r.ID, Name: r.Name, NewPosition: next})
		next++
	}
	return plan
}

// survivorOf picks the member of a duplicate group that keeps its
// position: the one created first, falling back to name, then ID.
func survivorOf(group []queueRow) queueRow {
	best := group[0]
	for _, r := range group[1:] {
		switch {
		case r.CreatedAt.Before(best.CreatedAt):
			best = r
		case r.CreatedAt.Equal(best.CreatedAt) && r.Name < best.Name:
			best = r
		case r.CreatedAt.Equal(best.CreatedAt) && r.Name == best.Name && r.ID < best.ID:
			best = r
		}
	}
	return best
}

// planQueueReset assigns a canonical 1..N ordering by name ascending to
// every row. Rows must already be restricted to active companies. The
// caller is responsible for clearing last_order_assigned alongside the
// renumbering; forfeiting rotation history is the documented trade-off
// of a full reset.
func planQueueReset(rows []queueRow) []positionChange {
	ordered := make([]queueRow, len(rows))
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})
	plan := make([]positionChange, 0, len(ordered))
	for i, r := range ordered {
		plan = append(plan, positionChange{ID: r.ID, Name: r.Name, NewPosition: int64(i + 1)})
	}
	return plan
}

// processingScore converts reconciliation counts into the percentage of
// sampled bookings that were successfully linked to a service order. An
// empty sample scores 100: nothing sampled means nothing is broken.
func processingScore(sampled, unprocessed int) int {
	if sampled <= 0 {
		return 100
	}
	if unprocessed >= sampled {
		return 0
	}
	return 100 * (sampled - unprocessed) / sampled
}
