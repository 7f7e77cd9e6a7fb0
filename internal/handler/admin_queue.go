package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/repository"
)

// AdminQueueHandler exposes the rotation diagnostics and the two
// repair procedures to the admin dashboard, plus the reconciliation
// check and the list of bookings that never reached a company. All
// routes behind this handler require the ADMIN role.
type AdminQueueHandler struct {
	QueueRepo   *repository.QueueRepo
	BookingRepo *repository.BookingRepo
}

// NewAdminQueueHandler constructs an AdminQueueHandler. All
// dependencies must be non-nil.
func NewAdminQueueHandler(queue *repository.QueueRepo, bookings *repository.BookingRepo) *AdminQueueHandler {
	if queue == nil || bookings == nil {
		panic("nil repository passed to NewAdminQueueHandler")
	}
	return &AdminQueueHandler{QueueRepo: queue, BookingRepo: bookings}
}

// Diagnostics handles GET /v1/admin/queue/diagnostics. Data-quality
// findings are part of the report, never an error; only an unreachable
// store yields a 500.
func (h *AdminQueueHandler) Diagnostics(c echo.Context) error {
	report, err := h.QueueRepo.Diagnostics(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, report)
}

// FixPositions handles POST /v1/admin/queue/fix. A partial failure
// returns 207 with the companies that were fixed and the ones that
// still need attention, so the operator never sees a blanket failure
// that hides applied work.
func (h *AdminQueueHandler) FixPositions(c echo.Context) error {
	fixed, err := h.QueueRepo.FixInvalidPositions(c.Request().Context())
	if err != nil {
		var partial *repository.PartialUpdateError
		if errors.As(err, &partial) {
			return c.JSON(http.StatusMultiStatus, echo.Map{
				"fixed_count": fixed,
				"fixed_ids":   partial.Fixed,
				"failures":    partial.Failures,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fixed_count": fixed})
}

// ResetQueue handles POST /v1/admin/queue/reset: full renumbering by
// name with rotation history cleared.
func (h *AdminQueueHandler) ResetQueue(c echo.Context) error {
	updated, err := h.QueueRepo.ResetQueue(c.Request().Context())
	if err != nil {
		var partial *repository.PartialUpdateError
		if errors.As(err, &partial) {
			return c.JSON(http.StatusMultiStatus, echo.Map{
				"updated_count": updated,
				"updated_ids":   partial.Fixed,
				"failures":      partial.Failures,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated_count": updated})
}

// Reconcile handles GET /v1/admin/queue/reconciliation. The optional
// ?window= query bounds how many recent bookings and orders are
// sampled.
func (h *AdminQueueHandler) Reconcile(c echo.Context) error {
	window := 0
	if raw := c.QueryParam("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "window must be a positive integer"})
		}
		window = n
	}
	report, err := h.QueueRepo.Reconcile(c.Request().Context(), window)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, report)
}

// UnassignedBookings handles GET /v1/admin/bookings/unassigned and
// lists pending bookings with no service order, newest first. These
// require manual intervention (or a queue repair followed by a
// re-dispatch).
func (h *AdminQueueHandler) UnassignedBookings(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	bookings, err := h.BookingRepo.ListUnassigned(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]echo.Map, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, echo.Map{
			"id":             b.ID,
			"reference_code": b.ReferenceCode,
			"pickup_address": b.PickupAddress,
			"scheduled_at":   b.ScheduledAt.Format(time.RFC3339),
			"created_at":     b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
