package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/model"
	"github.com/transfermar/booking-backend/internal/repository"
)

// AdminCompanyHandler manages the partner company roster. Status
// transitions that move a company into or out of the rotation run in
// one transaction with the queue mutation so activation can never race
// an allocation into a duplicate position.
type AdminCompanyHandler struct {
	CompanyRepo *repository.CompanyRepo
	QueueRepo   *repository.QueueRepo
}

// NewAdminCompanyHandler constructs an AdminCompanyHandler. All
// dependencies must be non-nil.
func NewAdminCompanyHandler(companies *repository.CompanyRepo, queue *repository.QueueRepo) *AdminCompanyHandler {
	if companies == nil || queue == nil {
		panic("nil repository passed to NewAdminCompanyHandler")
	}
	return &AdminCompanyHandler{CompanyRepo: companies, QueueRepo: queue}
}

type companyResp struct {
	ID                uint64  `json:"id"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	QueuePosition     *int64  `json:"queue_position"`
	LastOrderAssigned *string `json:"last_order_assigned"`
}

func toCompanyResp(c model.Company) companyResp {
	out := companyResp{
		ID:            c.ID,
		Name:          c.Name,
		Status:        c.Status,
		QueuePosition: c.QueuePosition,
	}
	if c.LastOrderAssigned != nil {
		v := c.LastOrderAssigned.Format(time.RFC3339)
		out.LastOrderAssigned = &v
	}
	return out
}

// ListCompanies handles GET /v1/admin/companies and returns the roster
// in rotation order, unassigned companies last.
func (h *AdminCompanyHandler) ListCompanies(c echo.Context) error {
	companies, err := h.CompanyRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]companyResp, 0, len(companies))
	for _, comp := range companies {
		items = append(items, toCompanyResp(comp))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateCompany handles POST /v1/admin/companies. Companies start in
// pending status outside the rotation; activating them is a separate
// status transition.
func (h *AdminCompanyHandler) CreateCompany(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.CompanyRepo.Create(c.Request().Context(), req.Name, model.CompanyStatusPending)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "company name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create company failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": strings.TrimSpace(req.Name), "status": model.CompanyStatusPending})
}

// SetCompanyStatus handles PATCH /v1/admin/companies/:id/status. A
// company entering active status is appended to the back of the
// rotation; a company leaving active status has its position cleared.
// Both happen in the same transaction as the status change.
func (h *AdminCompanyHandler) SetCompanyStatus(c echo.Context) error {
	companyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || companyID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.IsValidCompanyStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx := c.Request().Context()
	tx, err := h.CompanyRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	current, err := h.CompanyRepo.GetByIDTx(ctx, tx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if current.Status == status {
		return c.JSON(http.StatusOK, toCompanyResp(current))
	}

	if err := h.CompanyRepo.SetStatusTx(ctx, tx, companyID, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	switch {
	case status == model.CompanyStatusActive:
		if err := h.QueueRepo.EnqueueTx(ctx, tx, companyID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enqueue failed"})
		}
	case current.Status == model.CompanyStatusActive:
		if err := h.QueueRepo.ClearPositionTx(ctx, tx, companyID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dequeue failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	updated, err := h.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toCompanyResp(updated))
}
