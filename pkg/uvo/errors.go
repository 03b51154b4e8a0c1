package uvo

import (
	"errors"
	"fmt"
	"net/http"
)

// Error exposes methods useful for categorizing errors.
type Error interface {
	error

	// MayHaveSucceeded returns true if the error was triggered by a command that might have been
	// executed. For example, if the client times out waiting for a response, it cannot tell
	// whether the vehicle received the command.
	MayHaveSucceeded() bool

	// Temporary returns true if the error might be the result of a transient condition. Vehicles
	// that are waking from deep sleep commonly reject the first command they receive.
	Temporary() bool
}

var (
	// ErrVehicleAsleep indicates the vehicle's telematics unit is offline or in deep sleep and
	// did not receive the command.
	ErrVehicleAsleep = NewError("vehicle unavailable: vehicle is offline or asleep", false, true)
	// ErrAuthenticationFailed indicates the service rejected the account credentials.
	ErrAuthenticationFailed = NewError("authentication rejected by the owner API", false, false)
	// ErrTokenExpired indicates the session's access token lapsed and could not be refreshed.
	ErrTokenExpired = NewError("session token expired", false, true)
)

func errUnknownRegion(code int) error {
	return fmt.Errorf("unrecognized region code %d", code)
}

// CommandError wraps an error with metadata about whether the underlying command may have been
// executed and whether retrying might help.
type CommandError struct {
	Err               error
	PossibleSuccess   bool
	PossibleTemporary bool
}

func NewError(message string, mayHaveSucceeded bool, temporary bool) error {
	return &CommandError{Err: errors.New(message), PossibleSuccess: mayHaveSucceeded, PossibleTemporary: temporary}
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) MayHaveSucceeded() bool {
	return e.PossibleSuccess
}

func (e *CommandError) Temporary() bool {
	return e.PossibleTemporary
}

// HTTPError represents a non-200 response from the owner API that does not map to a more
// specific error.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HTTPError) MayHaveSucceeded() bool {
	if e.Code >= 400 && e.Code < 500 {
		return false
	}
	return e.Code != http.StatusServiceUnavailable
}

func (e *HTTPError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout
}

// MayHaveSucceeded returns true if err indicates a command that may have been executed even
// though the client did not receive a confirmation. Wrapped errors are inspected.
func MayHaveSucceeded(err error) bool {
	var cerr Error
	return errors.As(err, &cerr) && cerr.MayHaveSucceeded()
}

// Temporary returns true if err indicates a failure due to possibly transient conditions that do
// not require user action to resolve. Wrapped errors are inspected.
func Temporary(err error) bool {
	var cerr Error
	return errors.As(err, &cerr) && cerr.Temporary()
}
