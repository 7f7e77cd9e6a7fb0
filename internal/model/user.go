package model

import "time"

// User roles.  CUSTOMER creates bookings, ADMIN operates the queue and
// the company roster, COMPANY sees the orders assigned to its company.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
	RoleCompany  = "COMPANY"
)

// User is an account that can authenticate against the API.  COMPANY
// users carry the ID of the partner company they belong to.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, stored lower-cased.
//  PasswordHash – bcrypt hash of the password.
//  Role         – one of the Role* constants.
//  CompanyID    – company this user belongs to; nil for non-company roles.
//  IsActive     – whether the account may log in.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CompanyID    *uint64   // users.company_id (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
