package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/repository"
)

// CompanyPortalHandler serves partner company dispatchers. A COMPANY
// user only ever sees the service orders assigned to its own company;
// the link is the company_id on the user record, resolved per request.
type CompanyPortalHandler struct {
	Users  *repository.UserRepo
	Orders *repository.ServiceOrderRepo
}

// NewCompanyPortalHandler constructs a CompanyPortalHandler. All
// dependencies must be non-nil.
func NewCompanyPortalHandler(users *repository.UserRepo, orders *repository.ServiceOrderRepo) *CompanyPortalHandler {
	if users == nil || orders == nil {
		panic("nil repository passed to NewCompanyPortalHandler")
	}
	return &CompanyPortalHandler{Users: users, Orders: orders}
}

// ListOrders handles GET /v1/company/orders and returns the orders
// assigned to the caller's company, newest first.
func (h *CompanyPortalHandler) ListOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.CompanyID == nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is not linked to a company"})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	orders, err := h.Orders.ListByCompany(ctx, *u.CompanyID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}
