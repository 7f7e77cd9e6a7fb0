// This file defines handlers for the public browsing API. These routes
// let unauthenticated visitors see which partner companies operate
// transfers. Queue positions and rotation history are internal
// dispatching state and are filtered from responses.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated
// browsing. It produces sanitized responses suitable for public
// consumption.
type PublicHandler struct {
	CompanyRepo *repository.CompanyRepo
}

// PublicCompany represents a partner company exposed via the public
// API. It contains only safe fields.
type PublicCompany struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// GetPublicCompanies returns the list of active partner companies.
// Response JSON contains an "items" array of PublicCompany.
func (h *PublicHandler) GetPublicCompanies(c echo.Context) error {
	companies, err := h.CompanyRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicCompany, 0, len(companies))
	for _, comp := range companies {
		out = append(out, PublicCompany{ID: comp.ID, Name: comp.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
