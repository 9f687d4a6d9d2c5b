package api

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/libkeeper/internal/common"
)

// Error is an upstream API failure carrying the HTTP status the upstream
// (or the transport) produced. Status 0 means the request never reached
// the upstream at all.
type Error struct {
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match the taxonomy sentinels in internal/common.
func (e *Error) Is(target error) bool {
	switch target {
	case common.ErrInvalidCredentials:
		return e.Message == common.ErrInvalidCredentials.Error()
	case common.ErrUnavailable:
		return e.Status == 0
	case common.ErrorNotFound:
		return e.Status == 404
	}
	return false
}

func newError(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

// StatusOf extracts the HTTP status from an API error, or -1 when the error
// is of a different kind.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}

// connectivityError wraps a transport failure as a status-0 API error with
// a user-facing message.
func connectivityError(err error) *Error {
	return newError(fmt.Sprintf("Unable to connect to the server. Please check your internet connection. (%v)", err), 0)
}
