package transport

import (
	"errors"
	"fmt"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

var (
	// ErrTransport indicates the reliable exchange failed at the socket level
	// (dial, write, read, timeout, or an unparseable response).
	ErrTransport = errors.New("transport failure")

	// ErrAuthRejected indicates the host could not authenticate the envelope.
	ErrAuthRejected = errors.New("authentication rejected by host")

	// ErrCommandFailed indicates the host answered with a non-success status
	// other than AUTH_REJECTED.
	ErrCommandFailed = errors.New("command failed")

	// ErrServerRunning is returned by Start on a running server.
	ErrServerRunning = errors.New("server already running")
)

// StatusError carries a non-success reliable response. It matches
// ErrAuthRejected or ErrCommandFailed under errors.Is.
type StatusError struct {
	Status  wire.Status
	Message string

	// Name is the status as sent when the host used one this build does not
	// know. Status is then FAILED.
	Name string
}

func (e *StatusError) Error() string {
	name := e.Status.String()
	if e.Name != "" {
		name = e.Name
	}
	if e.Message == "" {
		return fmt.Sprintf("host replied %s", name)
	}
	return fmt.Sprintf("host replied %s: %s", name, e.Message)
}

// Is reports whether target is the sentinel for this status.
func (e *StatusError) Is(target error) bool {
	if e.Status == wire.StatusAuthRejected {
		return target == ErrAuthRejected
	}
	return target == ErrCommandFailed
}

// responseError maps a decoded response to an error, or nil on success.
func responseError(resp *wire.Response) error {
	if resp.Status.IsSuccess() {
		return nil
	}
	return &StatusError{Status: resp.Status, Message: resp.Error}
}

// decodeResponse parses a reply frame. Unknown status names are command
// failures, not transport failures; the frame itself arrived intact.
func decodeResponse(frame []byte) (*wire.Response, error) {
	resp, err := wire.DecodeResponse(frame)
	var unknown *wire.UnknownStatusError
	if errors.As(err, &unknown) {
		return resp, &StatusError{Status: resp.Status, Message: resp.Error, Name: unknown.Name}
	}
	if err != nil {
		return nil, err
	}
	return resp, responseError(resp)
}
