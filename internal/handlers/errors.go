package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/apperr"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// httpError translates service and repository errors into echo HTTP errors. Anything
// unrecognized becomes a 500 whose cause is kept for the server log only.
func httpError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(statusFor(appErr.Kind), appErr.Message)
	}

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Resource not found")
	case errors.Is(err, repositories.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, repositories.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Resource already exists")
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

func statusFor(kind error) int {
	switch kind {
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
