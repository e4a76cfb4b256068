package http

import (
	"errors"
	"net/http"

	"github.com/artpar/plancart/adapters/payment"
	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/domain/cart"
)

// classify maps an error to a status, code and client-facing message.
// This is a PURE function.
func classify(err error) (status int, code, message string) {
	var (
		ve  *cart.ValidationError
		cce *cart.CategoryConflictError
		bad errBadBody
	)

	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, "bad_request", bad.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error", ve.Error()
	case errors.As(err, &cce):
		return http.StatusConflict, "category_conflict", "clear the current selection first"
	case errors.Is(err, cart.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart", err.Error()
	case errors.Is(err, app.ErrNoCatalog):
		return http.StatusConflict, "catalog_not_loaded", err.Error()
	case errors.Is(err, payment.ErrPaymentsDisabled):
		return http.StatusServiceUnavailable, "payments_disabled", err.Error()
	case errors.Is(err, payment.ErrTrialCheckout):
		return http.StatusUnprocessableEntity, "trial_not_payable", err.Error()
	case errors.Is(err, payment.ErrCustomerNotFound):
		return http.StatusNotFound, "customer_not_found", err.Error()
	case app.IsUpstream(err):
		return http.StatusBadGateway, "upstream_error", "the payments backend is unavailable, try again"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}
