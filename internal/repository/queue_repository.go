package repository

import (
	"context"
	"database/sql"
	"log"
)

// QueueRepo owns every mutation of the company rotation. The
// read-modify-write behind "advance to the back of the queue" lives in
// exactly one place (AdvanceNext) and the repair procedures lock the
// same rows, so two concurrent allocations, or an allocation racing a
// repair pass, serialize on the database instead of computing the same
// "back of line" position twice. Handlers must never update
// queue_position through any other path.
type QueueRepo struct {
	db *sql.DB
}

// NewQueueRepo returns a new QueueRepo bound to the given database.
func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

// selectActiveForUpdate loads every active company inside the given
// transaction with FOR UPDATE, so the caller holds row locks on the
// whole rotation until commit.
const selectActiveForUpdate = `SELECT id, name, status, queue_position, last_order_assigned, created_at
                               FROM companies
                               WHERE status = 'active'
                               FOR UPDATE`

// scanQueueRows reads companies rows into queueRow projections. The
// caller owns the rows handle.
func scanQueueRows(rows *sql.Rows) ([]queueRow, error) {
	out := make([]queueRow, 0)
	for rows.Next() {
		var (
			r    queueRow
			pos  sql.NullInt64
			last sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &pos, &last, &r.CreatedAt); err != nil {
			return nil, err
		}
		if pos.Valid {
			r.Position = pos.Int64
			r.HasPosition = true
		}
		if last.Valid {
			t := last.Time.UTC()
			r.LastAssigned = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AdvanceNext picks the company that is next in the rotation and moves
// it to the back of the line, all inside a single transaction. The
// chosen company is the one with the smallest valid queue_position
// among active companies; ties go to the longest-waiting company. Its
// position becomes max(valid)+1 and last_order_assigned is stamped with
// the current time. The update is guarded by the previously observed
// position so a lost lock can never silently move the wrong row.
//
// bookingID is used only for log traceability. Returns
// ErrNoEligibleCompany when no active company exists and
// ErrQueueNeedsRepair when active companies exist but none holds a
// valid position.
func (r *QueueRepo) AdvanceNext(ctx context.Context, bookingID uint64) (Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Assignment{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, selectActiveForUpdate)
	if err != nil {
		return Assignment{}, err
	}
	active, err := scanQueueRows(rows)
	rows.Close()
	if err != nil {
		return Assignment{}, err
	}
	if len(active) == 0 {
		return Assignment{}, ErrNoEligibleCompany
	}

	next, ok := pickNext(active)
	if !ok {
		return Assignment{}, ErrQueueNeedsRepair
	}
	back := maxValidPosition(active) + 1

	res, err := tx.ExecContext(ctx,
		`UPDATE companies
		 SET queue_position = ?, last_order_assigned = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND queue_position = ?`,
		back, next.ID, next.Position)
	if err != nil {
		return Assignment{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Assignment{}, err
	}
	if n == 0 {
		// The guarded position moved underneath us despite the row
		// locks; bail out rather than assign out of turn.
		return Assignment{}, ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return Assignment{}, err
	}
	committed = true
	log.Printf("queue: booking %d assigned to company %d %q (position %d -> %d)",
		bookingID, next.ID, next.Name, next.Position, back)
	return Assignment{CompanyID: next.ID, CompanyName: next.Name, Position: next.Position}, nil
}

// Diagnostics scans every company in a single query pass and computes
// the health report. It never mutates anything and never treats
// data-quality findings as errors; only an unreachable store surfaces
// as an error.
func (r *QueueRepo) Diagnostics(ctx context.Context) (HealthReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, queue_position, last_order_assigned, created_at FROM companies`)
	if err != nil {
		return HealthReport{}, err
	}
	defer rows.Close()
	all, err := scanQueueRows(rows)
	if err != nil {
		return HealthReport{}, err
	}
	return computeHealth(all), nil
}

// FixInvalidPositions runs the minimal repair: companies whose position
// is NULL, non-positive or duplicated are renumbered after the current
// maximum, everyone else keeps their slot. Running it twice in a row
// with no intervening allocations is a no-op on the second call.
//
// It returns the number of companies whose position changed. When some
// updates fail while others succeed, the successes are committed and a
// *PartialUpdateError lists exactly which companies still need
// attention.
func (r *QueueRepo) FixInvalidPositions(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, selectActiveForUpdate)
	if err != nil {
		return 0, err
	}
	active, err := scanQueueRows(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	plan := planPositionRepair(active)
	if len(plan) == 0 {
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		committed = true
		return 0, nil
	}

	fixed := make([]uint64, 0, len(plan))
	var failures []CompanyUpdateFailure
	for _, ch := range plan {
		_, err := tx.ExecContext(ctx,
			`UPDATE companies SET queue_position = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
			ch.NewPosition, ch.ID)
		if err != nil {
			failures = append(failures, CompanyUpdateFailure{
				CompanyID: ch.ID, Name: ch.Name, Reason: err.Error(),
			})
			continue
		}
		fixed = append(fixed, ch.ID)
	}

	// Commit whatever went through; a failure on one company must not
	// throw away repairs already applied to others.
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	log.Printf("queue: fix-invalid-positions updated %d companies (%d failed)", len(fixed), len(failures))
	if len(failures) > 0 {
		return len(fixed), &PartialUpdateError{Fixed: fixed, Failures: failures}
	}
	return len(fixed), nil
}

// ResetQueue discards the current ordering and reassigns positions 1..N
// to every active company sorted by name ascending, clearing
// last_order_assigned. Repeated resets over an unchanged company set
// produce the same assignment. Rotation history is intentionally
// forfeited; the allocator's waited-longest tiebreak starts from
// scratch afterwards.
func (r *QueueRepo) ResetQueue(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, selectActiveForUpdate)
	if err != nil {
		return 0, err
	}
	active, err := scanQueueRows(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	plan := planQueueReset(active)
	updated := make([]uint64, 0, len(plan))
	var failures []CompanyUpdateFailure
	for _, ch := range plan {
		_, err := tx.ExecContext(ctx,
			`UPDATE companies
			 SET queue_position = ?, last_order_assigned = NULL, updated_at = UTC_TIMESTAMP()
			 WHERE id = ?`,
			ch.NewPosition, ch.ID)
		if err != nil {
			failures = append(failures, CompanyUpdateFailure{
				CompanyID: ch.ID, Name: ch.Name, Reason: err.Error(),
			})
			continue
		}
		updated = append(updated, ch.ID)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	log.Printf("queue: full reset renumbered %d companies (%d failed)", len(updated), len(failures))
	if len(failures) > 0 {
		return len(updated), &PartialUpdateError{Fixed: updated, Failures: failures}
	}
	return len(updated), nil
}

// EnqueueTx appends a company to the back of the rotation inside the
// caller's transaction. It is used when a company transitions to
// active status. The MAX scan and the update share the transaction so
// activation cannot race an allocation into a duplicate position.
func (r *QueueRepo) EnqueueTx(ctx context.Context, tx *sql.Tx, companyID uint64) error {
	var max sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(queue_position) FROM companies
		 WHERE status = 'active' AND queue_position > 0
		 FOR UPDATE`).Scan(&max)
	if err != nil {
		return err
	}
	back := int64(1)
	if max.Valid {
		back = max.Int64 + 1
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE companies SET queue_position = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		back, companyID)
	return err
}

// ClearPositionTx removes a company from the rotation inside the
// caller's transaction, used when it leaves active status. The vacated
// slot becomes a gap; allocation tolerates gaps and the next repair or
// reset closes them.
func (r *QueueRepo) ClearPositionTx(ctx context.Context, tx *sql.Tx, companyID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE companies SET queue_position = NULL, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		companyID)
	return err
}

// Reconcile cross-checks recent bookings against service orders: a
// pending or confirmed booking with no order referencing it counts as
// unprocessed (the hand-off from allocation to fulfilment broke), and a
// recent order with no booking reference counts as unlinked. window
// bounds how many recent rows of each kind are sampled; values below 1
// fall back to 50.
func (r *QueueRepo) Reconcile(ctx context.Context, window int) (ReconciliationReport, error) {
	if window < 1 {
		window = 50
	}
	var rep ReconciliationReport

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
		     SELECT id FROM bookings
		     WHERE status IN ('pending','confirmed')
		     ORDER BY created_at DESC
		     LIMIT ?
		 ) recent`, window).Scan(&rep.SampledBookings)
	if err != nil {
		return ReconciliationReport{}, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
		     SELECT id FROM bookings
		     WHERE status IN ('pending','confirmed')
		     ORDER BY created_at DESC
		     LIMIT ?
		 ) recent
		 WHERE NOT EXISTS (
		     SELECT 1 FROM service_orders o WHERE o.booking_id = recent.id
		 )`, window).Scan(&rep.UnprocessedCount)
	if err != nil {
		return ReconciliationReport{}, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(booking_id IS NULL), 0) FROM (
		     SELECT id, booking_id FROM service_orders
		     ORDER BY created_at DESC
		     LIMIT ?
		 ) recent`, window).Scan(&rep.SampledOrders, &rep.UnlinkedCount)
	if err != nil {
		return ReconciliationReport{}, err
	}

	rep.ProcessingScore = processingScore(rep.SampledBookings, rep.UnprocessedCount)
	return rep, nil
}
