package model

import "time"

// Service order statuses.
const (
	ServiceOrderStatusOpen      = "open"
	ServiceOrderStatusCompleted = "completed"
	ServiceOrderStatusCancelled = "cancelled"
)

// ServiceOrder is the fulfilment record produced after a company has
// been selected for a booking.  The BookingID column is the durable
// back-reference from order to booking; the Notes column additionally
// carries a human-readable line embedding the booking reference (e.g.
// "Traslado confirmado - Reserva #TRF-482913") for operators, but no
// code relies on that text.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – originating booking; nil only for legacy or corrupted
//              rows, which the reconciliation check reports as unlinked.
//  CompanyID – company assigned to service the booking.
//  Status    – one of the ServiceOrderStatus* constants.
//  Notes     – free-text note shown to operators and the company.
//  CreatedAt – creation timestamp.
type ServiceOrder struct {
	ID        uint64    // service_orders.id
	BookingID *uint64   // service_orders.booking_id (nullable)
	CompanyID uint64    // service_orders.company_id
	Status    string    // service_orders.status
	Notes     string    // service_orders.notes
	CreatedAt time.Time // service_orders.created_at
}
