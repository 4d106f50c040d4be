package wire

import (
	"encoding/json"
	"fmt"
)

// Response answers one envelope on the reliable channel.
type Response struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// UnknownStatusError reports a well-formed response frame whose status name
// this build does not recognize.
type UnknownStatusError struct {
	Name string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status %q", e.Name)
}

// NewErrorResponse builds a non-success response from an error.
func NewErrorResponse(status Status, err error) *Response {
	r := &Response{Status: status}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// EncodeResponse serializes a response frame.
func EncodeResponse(r *Response) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse parses a response frame.
//
// A frame that is valid JSON but names an unknown status yields a FAILED
// response together with an *UnknownStatusError.
func DecodeResponse(data []byte) (*Response, error) {
	var raw struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	r := &Response{Error: raw.Error}
	if err := r.Status.UnmarshalText([]byte(raw.Status)); err != nil {
		r.Status = StatusFailed
		return r, &UnknownStatusError{Name: raw.Status}
	}
	return r, nil
}
