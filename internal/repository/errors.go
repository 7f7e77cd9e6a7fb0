// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNoEligibleCompany indicates that the assignment rotation
// has no active company to hand a booking to, while ErrQueueNeedsRepair
// signals that active companies exist but none holds a usable queue
// position, so an operator has to run one of the repair procedures.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as two allocations racing for the same
// rotation slot. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrNoEligibleCompany is returned by the allocator when no company
// with status "active" exists. The booking must stay visible as
// unassigned; the caller must not create a service order.
var ErrNoEligibleCompany = errors.New("no eligible company")

// ErrQueueNeedsRepair is returned by the allocator when active
// companies exist but none of them holds a valid (positive) queue
// position. Allocation cannot proceed until fix-invalid-positions or a
// full reset has run.
var ErrQueueNeedsRepair = errors.New("queue has no valid positions and needs repair")

// ErrCompanyNotFound is returned when a company lookup by ID matches
// no row.
var ErrCompanyNotFound = errors.New("company not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// CompanyUpdateFailure records a single company whose position update
// failed during a repair pass.
type CompanyUpdateFailure struct {
	CompanyID uint64 `json:"company_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// PartialUpdateError is returned by the repair procedures when some
// company updates succeeded and others failed. Updates that already
// went through are kept; the failures are listed so the caller can show
// exactly which companies still need attention instead of a generic
// failure.
type PartialUpdateError struct {
	Fixed    []uint64               // IDs of companies whose position was updated
	Failures []CompanyUpdateFailure // companies whose update failed
}

// Error implements the error interface.
func (e *PartialUpdateError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, fmt.Sprintf("%s(#%d)", f.Name, f.CompanyID))
	}
	return fmt.Sprintf("queue repair updated %d companies but failed for: %s",
		len(e.Fixed), strings.Join(names, ", "))
}
