package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/handler"
	"github.com/transfermar/booking-backend/internal/middleware"
	"github.com/transfermar/booking-backend/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the CUSTOMER role. Creating a booking
// also dispatches it to the next partner company in the rotation.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
}
