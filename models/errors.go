package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors classifying every failure the service reports. Validation
// and limit errors are raised before any work happens; authentication and
// connectivity errors abort a campaign before the first send; delivery errors
// are isolated per contact; fatal errors cover unexpected failures after
// partial progress.
var (
	ErrValidation     = errors.New("validation error")
	ErrLimitExceeded  = errors.New("batch limit exceeded")
	ErrAuthentication = errors.New("authentication error")
	ErrConnectivity   = errors.New("connectivity error")
	ErrDelivery       = errors.New("delivery error")
	ErrFatal          = errors.New("fatal error")
)

// WrapValidation annotates an error as a pre-send validation failure.
func WrapValidation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// WrapLimitExceeded annotates a batch-size rejection.
func WrapLimitExceeded(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLimitExceeded, fmt.Sprintf(format, args...))
}

// WrapAuthentication annotates a credential rejection at transport setup.
func WrapAuthentication(err error) error {
	return fmt.Errorf("%w: %v", ErrAuthentication, err)
}

// WrapConnectivity annotates an unreachable-transport failure.
func WrapConnectivity(err error) error {
	return fmt.Errorf("%w: %v", ErrConnectivity, err)
}

// WrapDelivery annotates a single-recipient send failure.
func WrapDelivery(err error) error {
	return fmt.Errorf("%w: %v", ErrDelivery, err)
}

// WrapFatal annotates an unexpected failure after partial progress.
func WrapFatal(err error) error {
	return fmt.Errorf("%w: %v", ErrFatal, err)
}

// Category returns the machine-checkable error category name.
func Category(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrConnectivity):
		return "connectivity"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrFatal):
		return "fatal"
	default:
		return "internal"
	}
}

// HTTPStatus maps an error to the status code its category is reported with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConnectivity):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
