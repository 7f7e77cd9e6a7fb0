package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/transfermar/booking-backend/internal/model"
	"github.com/transfermar/booking-backend/internal/utils"
)

// BookingRepo provides CRUD operations for customer bookings. All
// timestamp fields are assumed to be stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a new booking in pending status with a freshly
// generated reference code and populates the generated ID, code and
// timestamps on the provided record. Reference codes are random, so a
// collision with an existing row is retried a few times before giving
// up.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (reference_code, user_id, pickup_address, dropoff_address, scheduled_at, passengers, status)
	           VALUES (?, ?, ?, ?, ?, ?, 'pending')`
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ref, err := utils.NewReferenceCode()
		if err != nil {
			return err
		}
		res, err := r.db.ExecContext(ctx, q,
			ref, b.UserID, b.PickupAddress, b.DropoffAddress,
			b.ScheduledAt.UTC().Format("2006-01-02 15:04:05"), b.Passengers)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				lastErr = err
				continue
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		b.ID = uint64(id)
		b.ReferenceCode = ref
		b.Status = model.BookingStatusPending
		return nil
	}
	return lastErr
}

// GetByIDForUser returns a single booking restricted to the given
// user to enforce ownership. Returns ErrBookingNotFound when no row
// matches.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	const q = `SELECT id, reference_code, user_id, pickup_address, dropoff_address,
	                  scheduled_at, passengers, status, created_at, updated_at
	           FROM bookings WHERE id = ? AND user_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, bookingID, userID))
}

// GetByReference fetches a booking by its human-readable reference
// code regardless of owner; used by admin tooling.
func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (model.Booking, error) {
	const q = `SELECT id, reference_code, user_id, pickup_address, dropoff_address,
	                  scheduled_at, passengers, status, created_at, updated_at
	           FROM bookings WHERE reference_code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, strings.TrimSpace(ref)))
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, reference_code, user_id, pickup_address, dropoff_address,
	                  scheduled_at, passengers, status, created_at, updated_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListUnassigned returns recent pending bookings that have no service
// order referencing them. These are the bookings the allocator (or its
// caller) failed to convert; they must stay visible to operators for
// manual intervention rather than being silently lost.
func (r *BookingRepo) ListUnassigned(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit < 1 {
		limit = 50
	}
	const q = `SELECT b.id, b.reference_code, b.user_id, b.pickup_address, b.dropoff_address,
	                  b.scheduled_at, b.passengers, b.status, b.created_at, b.updated_at
	           FROM bookings b
	           WHERE b.status = 'pending'
	             AND NOT EXISTS (SELECT 1 FROM service_orders o WHERE o.booking_id = b.id)
	           ORDER BY b.created_at DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// SetStatus updates a booking's status. Returns ErrBookingNotFound
// when no row matches.
func (r *BookingRepo) SetStatus(ctx context.Context, bookingID uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		status, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepo) scanOne(row *sql.Row) (model.Booking, error) {
	var (
		b         model.Booking
		scheduled time.Time
	)
	err := row.Scan(&b.ID, &b.ReferenceCode, &b.UserID, &b.PickupAddress, &b.DropoffAddress,
		&scheduled, &b.Passengers, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	b.ScheduledAt = scheduled.UTC()
	return b, nil
}

func (r *BookingRepo) scanAll(rows *sql.Rows) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for rows.Next() {
		var (
			b         model.Booking
			scheduled time.Time
		)
		if err := rows.Scan(&b.ID, &b.ReferenceCode, &b.UserID, &b.PickupAddress, &b.DropoffAddress,
			&scheduled, &b.Passengers, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.ScheduledAt = scheduled.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
