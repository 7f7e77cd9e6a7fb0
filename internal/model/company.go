package model

import "time"

// Company statuses.  Only active companies take part in the assignment
// rotation; every other status keeps the company out of the queue.
const (
	CompanyStatusActive    = "active"
	CompanyStatusPending   = "pending"
	CompanyStatusInactive  = "inactive"
	CompanyStatusSuspended = "suspended"
)

// Company represents a partner transport company that services bookings.
// It corresponds to a row in the `companies` table, which doubles as the
// queue store for the fair-assignment rotation.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – unique display name; also the deterministic
//                      ordering key during a full queue reset.
//  Status            – one of the CompanyStatus* constants.
//  QueuePosition     – position in the rotation. While the store is
//                      healthy, active companies hold exactly the values
//                      1..N with no duplicates or gaps. Nil or a
//                      non-positive value means unassigned/invalid.
//  LastOrderAssigned – when this company last received a booking; used
//                      as the secondary ordering key so companies that
//                      have waited longest win ties.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Company struct {
	ID                uint64     // companies.id
	Name              string     // companies.name
	Status            string     // companies.status
	QueuePosition     *int64     // companies.queue_position (nullable)
	LastOrderAssigned *time.Time // companies.last_order_assigned (nullable)
	CreatedAt         time.Time  // companies.created_at
	UpdatedAt         time.Time  // companies.updated_at
}

// IsValidCompanyStatus reports whether s is one of the recognised
// company statuses.
func IsValidCompanyStatus(s string) bool {
	switch s {
	case CompanyStatusActive, CompanyStatusPending, CompanyStatusInactive, CompanyStatusSuspended:
		return true
	}
	return false
}
