package httpx

import (
	"errors"
	"net/http"

	"github.com/otpless/invoice-service/internal/invoice"
)

// Sentinel errors for layers without their own error types.
var (
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// Validation-class failures are client errors and never retryable;
// allocation conflicts are surfaced as 409 so deployments can spot a
// concurrency-control defect, and everything unrecognized becomes an
// opaque 500 so collaborator failures keep their retry semantics with the
// caller.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validationErr *invoice.ValidationError
		currencyErr   *invoice.CurrencyMismatchError
		transitionErr *invoice.InvalidTransitionError
		conflictErr   *invoice.AllocationConflictError
	)
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &validationErr):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErr.Error())
	case errors.As(err, &currencyErr):
		Problem(w, http.StatusBadRequest, "Currency Mismatch", currencyErr.Error())
	case errors.Is(err, invoice.ErrMissingJurisdiction):
		Problem(w, http.StatusBadRequest, "Missing Jurisdiction", err.Error())
	case errors.As(err, &transitionErr):
		Problem(w, http.StatusBadRequest, "Invalid Transition", transitionErr.Error())
	case errors.Is(err, invoice.ErrIncompleteInvoice):
		Problem(w, http.StatusConflict, "Incomplete Invoice", err.Error())
	case errors.As(err, &conflictErr):
		Problem(w, http.StatusConflict, "Allocation Conflict", conflictErr.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
