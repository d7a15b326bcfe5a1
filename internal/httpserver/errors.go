package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_payments/internal/domain"
	"github.com/Skotchmaster/shop_payments/internal/inventory"
	"github.com/Skotchmaster/shop_payments/internal/service"
	"github.com/Skotchmaster/shop_payments/internal/transport"
)

// httpError maps service errors onto status codes and logs the outcome under
// event.
func httpError(l *slog.Logger, event string, err error) error {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", body.Code, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", body.Code, "error", err)
	}
	return echo.NewHTTPError(status, body)
}

func classify(err error) (int, transport.ErrorResponse) {
	var pe *inventory.ProductError
	if errors.As(err, &pe) {
		body := transport.ErrorResponse{Message: pe.Error(), ProductSlug: pe.Slug, Requested: pe.Requested}
		switch {
		case errors.Is(err, inventory.ErrProductNotFound):
			body.Code = "product_not_found"
			body.Message = "Product " + pe.Slug + " not found or inactive."
		case errors.Is(err, inventory.ErrProductInactive):
			body.Code = "product_inactive"
			body.Message = "Product " + pe.Slug + " not found or inactive."
		default:
			body.Code = "insufficient_stock"
			body.Message = "Insufficient stock for " + pe.Slug + "."
			available := pe.Available
			body.Available = &available
		}
		return http.StatusBadRequest, body
	}

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, transport.ErrorResponse{Message: "No items provided.", Code: "empty_cart"}
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, transport.ErrorResponse{Message: err.Error(), Code: "invalid_quantity"}
	case errors.Is(err, service.ErrMissingReference):
		return http.StatusBadRequest, transport.ErrorResponse{Message: "tx_ref is required.", Code: "missing_reference"}
	case errors.Is(err, service.ErrUnknownStatus):
		return http.StatusBadRequest, transport.ErrorResponse{Message: err.Error(), Code: "unknown_status"}
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, transport.ErrorResponse{Message: err.Error(), Code: "validation"}
	case errors.Is(err, service.ErrInvalidCreds):
		return http.StatusUnauthorized, transport.ErrorResponse{Message: "invalid credentials", Code: "invalid_credentials"}
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, transport.ErrorResponse{Message: "Order not found.", Code: "order_not_found"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, transport.ErrorResponse{Message: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, transport.ErrorResponse{Message: err.Error(), Code: "invalid_transition"}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, transport.ErrorResponse{Message: err.Error(), Code: "conflict"}
	case errors.Is(err, service.ErrPaymentGateway):
		return http.StatusBadGateway, transport.ErrorResponse{Message: "Error contacting payment gateway.", Code: "payment_gateway_error"}
	default:
		return http.StatusInternalServerError, transport.ErrorResponse{Message: "internal error", Code: "internal"}
	}
}
