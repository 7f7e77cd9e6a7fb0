package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/model"
	q "github.com/transfermar/booking-backend/internal/queue"
	"github.com/transfermar/booking-backend/internal/repository"
	"github.com/transfermar/booking-backend/internal/service"
)

// CustomerHandler groups the repositories behind the customer booking
// endpoints. Creating a booking is the sole caller of the queue
// allocator: the booking row is written first, then the rotation
// advances, then the service order referencing the booking is created.
// If the rotation cannot produce a company the booking stays pending
// and visible to operators instead of being lost.
type CustomerHandler struct {
	BookingRepo *repository.BookingRepo
	QueueRepo   *repository.QueueRepo
	OrderRepo   *repository.ServiceOrderRepo
}

// NewCustomerHandler constructs a CustomerHandler with the provided
// repositories. All dependencies must be non-nil.
func NewCustomerHandler(bookings *repository.BookingRepo, queue *repository.QueueRepo, orders *repository.ServiceOrderRepo) *CustomerHandler {
	if bookings == nil || queue == nil || orders == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{BookingRepo: bookings, QueueRepo: queue, OrderRepo: orders}
}

type createBookingReq struct {
	PickupAddress  string `json:"pickup_address"`
	DropoffAddress string `json:"dropoff_address"`
	ScheduledAt    string `json:"scheduled_at"` // RFC3339
	Passengers     uint32 `json:"passengers"`
}

type bookingResp struct {
	ID             uint64                 `json:"id"`
	ReferenceCode  string                 `json:"reference_code"`
	PickupAddress  string                 `json:"pickup_address"`
	DropoffAddress string                 `json:"dropoff_address"`
	ScheduledAt    string                 `json:"scheduled_at"`
	Passengers     uint32                 `json:"passengers"`
	Status         string                 `json:"status"`
	Assigned       bool                   `json:"assigned"`
	Assignment     *repository.Assignment `json:"assignment,omitempty"`
}

// CreateBooking handles POST /v1/bookings. It persists the booking,
// asks the rotation for the next company and, on success, creates the
// fulfilment order and publishes a booking.assigned event. When no
// company is eligible the booking is returned with assigned=false and
// remains pending for manual intervention.
func (h *CustomerHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.PickupAddress == "" || req.DropoffAddress == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pickup_address and dropoff_address are required"})
	}
	scheduled, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC3339"})
	}
	if req.Passengers == 0 {
		req.Passengers = 1
	}

	ctx := c.Request().Context()
	b := &model.Booking{
		UserID:         userID,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		ScheduledAt:    scheduled.UTC(),
		Passengers:     req.Passengers,
	}
	if err := h.BookingRepo.Create(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	resp := bookingResp{
		ID:             b.ID,
		ReferenceCode:  b.ReferenceCode,
		PickupAddress:  b.PickupAddress,
		DropoffAddress: b.DropoffAddress,
		ScheduledAt:    b.ScheduledAt.Format(time.RFC3339),
		Passengers:     b.Passengers,
		Status:         b.Status,
	}

	assignment, err := h.QueueRepo.AdvanceNext(ctx, b.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoEligibleCompany):
			log.Printf("booking %s left unassigned: no eligible company", b.ReferenceCode)
		case errors.Is(err, repository.ErrQueueNeedsRepair):
			log.Printf("booking %s left unassigned: %v", b.ReferenceCode, err)
		default:
			log.Printf("booking %s left unassigned: allocation failed: %v", b.ReferenceCode, err)
		}
		// The booking exists and stays pending; operators see it in the
		// unassigned list.
		return c.JSON(http.StatusCreated, resp)
	}

	order := &model.ServiceOrder{
		BookingID: &b.ID,
		CompanyID: assignment.CompanyID,
		Status:    model.ServiceOrderStatusOpen,
		Notes:     repository.OrderNotes(b.ReferenceCode),
	}
	if err := h.OrderRepo.Create(ctx, order); err != nil {
		// The rotation already advanced but the hand-off broke; the
		// reconciliation check reports this booking as unprocessed.
		log.Printf("booking %s: service order creation failed after assignment to company %d: %v",
			b.ReferenceCode, assignment.CompanyID, err)
		return c.JSON(http.StatusCreated, resp)
	}
	if err := h.BookingRepo.SetStatus(ctx, b.ID, model.BookingStatusConfirmed); err != nil {
		log.Printf("booking %s: status update failed: %v", b.ReferenceCode, err)
	} else {
		resp.Status = model.BookingStatusConfirmed
	}

	resp.Assigned = true
	resp.Assignment = &assignment

	// Publishing is best effort; a broker outage must not fail the
	// booking.
	_ = service.PublishBookingAssigned(ctx, q.BookingAssignedEvent{
		BookingID:      b.ID,
		ReferenceCode:  b.ReferenceCode,
		CompanyID:      assignment.CompanyID,
		CompanyName:    assignment.CompanyName,
		QueuePosition:  assignment.Position,
		PickupAddress:  b.PickupAddress,
		DropoffAddress: b.DropoffAddress,
		ScheduledAt:    b.ScheduledAt.Format(time.RFC3339),
		AssignedAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, resp)
}

// ListBookings handles GET /v1/bookings and returns the caller's
// bookings, newest first.
func (h *CustomerHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, bookingResp{
			ID:             b.ID,
			ReferenceCode:  b.ReferenceCode,
			PickupAddress:  b.PickupAddress,
			DropoffAddress: b.DropoffAddress,
			ScheduledAt:    b.ScheduledAt.Format(time.RFC3339),
			Passengers:     b.Passengers,
			Status:         b.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:id. Ownership is enforced by
// querying with the caller's user ID; the assignment details are
// attached when a service order exists for the booking.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	b, err := h.BookingRepo.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := bookingResp{
		ID:             b.ID,
		ReferenceCode:  b.ReferenceCode,
		PickupAddress:  b.PickupAddress,
		DropoffAddress: b.DropoffAddress,
		ScheduledAt:    b.ScheduledAt.Format(time.RFC3339),
		Passengers:     b.Passengers,
		Status:         b.Status,
	}
	if order, err := h.OrderRepo.GetByBookingID(ctx, b.ID); err == nil {
		resp.Assigned = true
		resp.Assignment = &repository.Assignment{CompanyID: order.CompanyID}
	}
	return c.JSON(http.StatusOK, resp)
}
