package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/transfermar/booking-backend/internal/model"
)

// ServiceOrderRepo provides access to the service_orders table, the
// fulfilment records created after a company has been assigned to a
// booking. The booking_id column is the durable back-reference the
// reconciliation check joins on; the notes column carries a
// human-readable line only.
type ServiceOrderRepo struct {
	db *sql.DB
}

// NewServiceOrderRepo returns a new ServiceOrderRepo bound to the given
// database.
func NewServiceOrderRepo(db *sql.DB) *ServiceOrderRepo { return &ServiceOrderRepo{db: db} }

// OrderNotes builds the operator-facing note for an order, embedding
// the booking reference code the way company dispatchers expect to see
// it.
func OrderNotes(referenceCode string) string {
	return fmt.Sprintf("Traslado confirmado - Reserva #%s", referenceCode)
}

// Create inserts a fulfilment order for an assigned booking and
// populates the generated ID on the record.
func (r *ServiceOrderRepo) Create(ctx context.Context, o *model.ServiceOrder) error {
	const q = `INSERT INTO service_orders (booking_id, company_id, status, notes)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, o.BookingID, o.CompanyID, o.Status, o.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByBookingID returns the order created for the given booking, or
// sql.ErrNoRows when the booking was never converted.
func (r *ServiceOrderRepo) GetByBookingID(ctx context.Context, bookingID uint64) (model.ServiceOrder, error) {
	const q = `SELECT id, booking_id, company_id, status, notes, created_at
	           FROM service_orders WHERE booking_id = ?
	           ORDER BY created_at DESC LIMIT 1`
	var (
		o   model.ServiceOrder
		bid sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
		&o.ID, &bid, &o.CompanyID, &o.Status, &o.Notes, &o.CreatedAt)
	if err != nil {
		return model.ServiceOrder{}, err
	}
	if bid.Valid {
		b := uint64(bid.Int64)
		o.BookingID = &b
	}
	return o, nil
}

// OrderDetail is a service order joined with its booking, returned to
// the company portal so dispatchers see pickup details alongside the
// order.
type OrderDetail struct {
	ID             uint64  `json:"id"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes"`
	ReferenceCode  *string `json:"reference_code,omitempty"`
	PickupAddress  *string `json:"pickup_address,omitempty"`
	DropoffAddress *string `json:"dropoff_address,omitempty"`
	ScheduledAt    *string `json:"scheduled_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// ListByCompany returns the orders assigned to a company, newest
// first, with the originating booking's details when the link exists.
func (r *ServiceOrderRepo) ListByCompany(ctx context.Context, companyID uint64, limit int) ([]OrderDetail, error) {
	if limit < 1 {
		limit = 100
	}
	const q = `SELECT o.id, o.status, o.notes, o.created_at,
	                  b.reference_code, b.pickup_address, b.dropoff_address, b.scheduled_at
	           FROM service_orders o
	           LEFT JOIN bookings b ON b.id = o.booking_id
	           WHERE o.company_id = ?
	           ORDER BY o.created_at DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]OrderDetail, 0)
	for rows.Next() {
		var (
			d         OrderDetail
			created   sql.NullTime
			ref       sql.NullString
			pickup    sql.NullString
			dropoff   sql.NullString
			scheduled sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Status, &d.Notes, &created,
			&ref, &pickup, &dropoff, &scheduled); err != nil {
			return nil, err
		}
		if created.Valid {
			d.CreatedAt = created.Time.UTC().Format(time.RFC3339)
		}
		if ref.Valid {
			v := ref.String
			d.ReferenceCode = &v
		}
		if pickup.Valid {
			v := pickup.String
			d.PickupAddress = &v
		}
		if dropoff.Valid {
			v := dropoff.String
			d.DropoffAddress = &v
		}
		if scheduled.Valid {
			v := scheduled.Time.UTC().Format(time.RFC3339)
			d.ScheduledAt = &v
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
