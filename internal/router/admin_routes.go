package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/handler"
	"github.com/transfermar/booking-backend/internal/middleware"
	"github.com/transfermar/booking-backend/internal/model"
)

// RegisterAdmin registers the operator dashboard endpoints under
// /v1/admin: queue diagnostics and repair, booking reconciliation, the
// unassigned-bookings listing and partner company management. All
// routes require the ADMIN role.
func RegisterAdmin(e *echo.Echo, q *handler.AdminQueueHandler, comp *handler.AdminCompanyHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/queue/diagnostics", q.Diagnostics)
	g.POST("/queue/fix", q.FixPositions)
	g.POST("/queue/reset", q.ResetQueue)
	g.GET("/queue/reconciliation", q.Reconcile)
	g.GET("/bookings/unassigned", q.UnassignedBookings)

	g.GET("/companies", comp.ListCompanies)
	g.POST("/companies", comp.CreateCompany)
	g.PATCH("/companies/:id/status", comp.SetCompanyStatus)
}
