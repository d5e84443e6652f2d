package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/money"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"

	"go.uber.org/zap"
)

// respondServiceError maps domain and service errors onto the platform's
// error envelope. Validation-style failures are 400, missing entities 404,
// provider lookups 500 with the provider message surfaced.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, repository.ErrOutOfStock),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrMinimumQuantity),
		errors.Is(err, money.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidTransition):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCartLineNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, payment.ErrSessionInvalid):
		logger.Error("Payment session lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())

	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
