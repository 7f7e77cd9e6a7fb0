package model

import "time"

// Booking statuses.  A booking is created as pending and moves to
// confirmed once a service order has been produced for it.  Bookings
// that could not be assigned stay pending so operators can see them.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking records a customer's transport request.  It is immutable once
// created except for its status.  This struct corresponds to a row in
// the `bookings` table.
//
// Fields:
//  ID              – primary key identifier.
//  ReferenceCode   – human-readable unique code (e.g. "TRF-482913").
//  UserID          – customer who created the booking.
//  PickupAddress   – free-text pickup location.
//  DropoffAddress  – free-text destination.
//  ScheduledAt     – requested pickup time (UTC).
//  Passengers      – number of passengers travelling.
//  Status          – one of the BookingStatus* constants.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID             uint64    // bookings.id
	ReferenceCode  string    // bookings.reference_code
	UserID         uint64    // bookings.user_id
	PickupAddress  string    // bookings.pickup_address
	DropoffAddress string    // bookings.dropoff_address
	ScheduledAt    time.Time // bookings.scheduled_at
	Passengers     uint32    // bookings.passengers
	Status         string    // bookings.status
	CreatedAt      time.Time // bookings.created_at
	UpdatedAt      time.Time // bookings.updated_at
}
