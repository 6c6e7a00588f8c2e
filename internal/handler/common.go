// Package handler contains the HTTP handlers of the POS backend.  This
// file holds the shared error mapping: repository sentinels and the
// typed pricing/state-machine errors translate into the JSON error
// bodies and status codes the clients expect.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/pricing"
	"github.com/tranqv/restaurant-pos/internal/repository"
	"github.com/tranqv/restaurant-pos/internal/service"
)

// writeError maps a domain error onto an HTTP response.  Not-found
// sentinels become 404, validation and consistency failures become
// 400, duplicates become 409, and anything unrecognized is a generic
// 500 so internal details never leak to clients.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTableOccupied),
		errors.Is(err, repository.ErrNotSeated),
		errors.Is(err, model.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var illegal *model.IllegalTransitionError
	var mismatch *pricing.PriceMismatchError
	var quantity *pricing.InvalidQuantityError
	var size *pricing.InvalidSizeError
	var payment *service.InvalidPaymentMethodError
	if errors.As(err, &illegal) || errors.As(err, &mismatch) || errors.As(err, &quantity) || errors.As(err, &size) || errors.As(err, &payment) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
