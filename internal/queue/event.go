// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// BookingAssignedEvent is published when the rotation hands a booking
// to a partner company and the service order has been created. It
// contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingAssignedEvent struct {
	BookingID      uint64 `json:"booking_id"`
	ReferenceCode  string `json:"reference_code"`
	CompanyID      uint64 `json:"company_id"`
	CompanyName    string `json:"company_name"`
	QueuePosition  int64  `json:"queue_position"`
	PickupAddress  string `json:"pickup_address"`
	DropoffAddress string `json:"dropoff_address"`
	ScheduledAt    string `json:"scheduled_at"`
	AssignedAt     string `json:"assigned_at"`
}
