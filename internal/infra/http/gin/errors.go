package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/middleware"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/inventory"
	"staybook/internal/domain/specialrates"
	mongostore "staybook/internal/infra/db/mongo"
	"staybook/internal/infra/obs"
)

// statusFor maps application errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domainbooking.ErrQuoteRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inventory.ErrPropertyNotFound),
		errors.Is(err, inventory.ErrRoomTypeNotFound),
		errors.Is(err, specialrates.ErrNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, specialrates.ErrRateInUse),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, middleware.ErrIdempotencyConflict),
		errors.Is(err, middleware.ErrReplayedFailure),
		errors.Is(err, mongostore.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, uow.ErrUnitOfWorkMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"status", status, "path", c.FullPath(), "request_id", obs.RequestIDFromContext(c.Request.Context()), "error", err)
	}
	var rejected *bookingapp.QuoteRejectedError
	if errors.As(err, &rejected) {
		c.JSON(status, gin.H{"error": err.Error(), "quote": rejected.Quote})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
