package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/transfermar/booking-backend/internal/model"
)

// CompanyRepo provides CRUD operations for partner companies. Queue
// position changes are never performed here directly; status
// transitions that touch the rotation go through QueueRepo's Tx
// helpers so the rotation has a single owner.
type CompanyRepo struct {
	db *sql.DB
}

// NewCompanyRepo returns a new CompanyRepo bound to the given database.
func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning this repository and QueueRepo.
func (r *CompanyRepo) DB() *sql.DB { return r.db }

// ErrCompanyNameExists is returned when an insert collides with an
// existing company name.
var ErrCompanyNameExists = errors.New("company name already exists")

// Create inserts a new company with the given name and status and
// returns its ID. Companies are created outside the rotation
// (queue_position NULL); activation enqueues them. Duplicate names
// surface as ErrCompanyNameExists.
func (r *CompanyRepo) Create(ctx context.Context, name, status string) (uint64, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (name, status) VALUES (?, ?)`,
		name, status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrCompanyNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single company. Returns ErrCompanyNotFound when no
// row matches.
func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (model.Company, error) {
	const q = `SELECT id, name, status, queue_position, last_order_assigned, created_at, updated_at
	           FROM companies WHERE id = ?`
	var (
		c    model.Company
		pos  sql.NullInt64
		last sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Status, &pos, &last, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Company{}, ErrCompanyNotFound
	}
	if err != nil {
		return model.Company{}, err
	}
	applyNullable(&c, pos, last)
	return c, nil
}

// GetByIDTx is GetByID inside the caller's transaction, locking the row
// with FOR UPDATE so a status transition cannot race another writer.
func (r *CompanyRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Company, error) {
	const q = `SELECT id, name, status, queue_position, last_order_assigned, created_at, updated_at
	           FROM companies WHERE id = ? FOR UPDATE`
	var (
		c    model.Company
		pos  sql.NullInt64
		last sql.NullTime
	)
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Status, &pos, &last, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Company{}, ErrCompanyNotFound
	}
	if err != nil {
		return model.Company{}, err
	}
	applyNullable(&c, pos, last)
	return c, nil
}

// List returns every company ordered by rotation position (valid
// positions first, ascending) and then by name, so the admin dashboard
// shows the queue in service order with unassigned companies at the
// bottom.
func (r *CompanyRepo) List(ctx context.Context) ([]model.Company, error) {
	const q = `SELECT id, name, status, queue_position, last_order_assigned, created_at, updated_at
	           FROM companies
	           ORDER BY (queue_position IS NULL OR queue_position <= 0), queue_position, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Company, 0)
	for rows.Next() {
		var (
			c    model.Company
			pos  sql.NullInt64
			last sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &pos, &last, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		applyNullable(&c, pos, last)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns active companies ordered by name. Used by the
// public listing; queue details are not exposed there.
func (r *CompanyRepo) ListActive(ctx context.Context) ([]model.Company, error) {
	const q = `SELECT id, name, status, queue_position, last_order_assigned, created_at, updated_at
	           FROM companies WHERE status = 'active' ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Company, 0)
	for rows.Next() {
		var (
			c    model.Company
			pos  sql.NullInt64
			last sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &pos, &last, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		applyNullable(&c, pos, last)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatusTx updates a company's status inside the caller's
// transaction. The caller decides whether to enqueue or clear the
// rotation slot via QueueRepo in the same transaction.
func (r *CompanyRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE companies SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func applyNullable(c *model.Company, pos sql.NullInt64, last sql.NullTime) {
	if pos.Valid {
		p := pos.Int64
		c.QueuePosition = &p
	}
	if last.Valid {
		t := last.Time.UTC()
		c.LastOrderAssigned = &t
	}
}
