package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/handler"
	"github.com/transfermar/booking-backend/internal/middleware"
	"github.com/transfermar/booking-backend/internal/model"
)

// RegisterCompanyPortal registers the partner dispatcher endpoints
// under /v1/company. Routes require the COMPANY role; the handler
// resolves the caller's company from the user record so a dispatcher
// can never read another company's orders.
func RegisterCompanyPortal(e *echo.Echo, h *handler.CompanyPortalHandler, jwtSecret string) {
	g := e.Group(
		"/v1/company",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCompany),
	)
	g.GET("/orders", h.ListOrders)
}
