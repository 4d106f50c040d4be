package wire

import (
	"fmt"
)

// Status represents a reliable-channel response code.
type Status uint8

const (
	// StatusSuccess indicates the command was accepted and executed.
	StatusSuccess Status = 0

	// StatusAuthRejected indicates the envelope MAC did not verify under the host's key.
	StatusAuthRejected Status = 1

	// StatusMalformed indicates the envelope or its plaintext could not be parsed.
	StatusMalformed Status = 2

	// StatusStale indicates the message failed the host's freshness check.
	StatusStale Status = 3

	// StatusUnknownCommand indicates the host does not recognize the command.
	StatusUnknownCommand Status = 4

	// StatusFailed indicates the host could not execute the command.
	StatusFailed Status = 5
)

var statusNames = map[Status]string{
	StatusSuccess:        "SUCCESS",
	StatusAuthRejected:   "AUTH_REJECTED",
	StatusMalformed:      "MALFORMED",
	StatusStale:          "STALE",
	StatusUnknownCommand: "UNKNOWN_COMMAND",
	StatusFailed:         "FAILED",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
