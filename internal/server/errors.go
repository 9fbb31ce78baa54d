package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farmengine"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	var subErr *farmengine.SubmissionError
	switch {
	case errors.As(err, &subErr):
		return http.StatusBadGateway
	case errors.Is(err, farm.ErrFarmNotFound):
		return http.StatusNotFound
	case errors.Is(err, farm.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.Is(err, farmengine.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, farmengine.ErrActionPaused),
		errors.Is(err, farmengine.ErrPrecondition),
		errors.Is(err, farm.ErrNotLoaded),
		errors.Is(err, farm.ErrQuoteFarmMismatch):
		return http.StatusConflict
	case errors.Is(err, farmengine.ErrStoreDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
