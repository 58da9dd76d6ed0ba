// Package apperr classifies service errors into HTTP responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/db"
)

// ValidationError carries a client-safe message for a rejected input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid returns a ValidationError with msg.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsInvalid reports whether err is, or wraps, a ValidationError.
func IsInvalid(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ToHTTP maps a service error to an echo.HTTPError: validation failures
// become 400 with their message, db.ErrNotFound becomes 404 with
// notFoundMsg. Anything else is returned unchanged and rendered as 500 by
// the central error handler.
func ToHTTP(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	}
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFoundMsg)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return err
}
