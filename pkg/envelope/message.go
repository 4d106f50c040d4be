package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Message is the plaintext carried inside an envelope.
type Message struct {
	// Command names the action for the host (e.g. "click").
	Command string `json:"command"`

	// Data is the command payload, a JSON object.
	Data json.RawMessage `json:"data"`

	// Timestamp is the send time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Nonce is a short random string.
	Nonce string `json:"nonce"`
}

// Unmarshal decodes the payload into v.
func (m *Message) Unmarshal(v any) error {
	if len(m.Data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Data, v)
}

// marshal produces the canonical plaintext serialization. Data is written
// verbatim so the receiver sees exactly the bytes the sender supplied.
func (m *Message) marshal() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrSerialization)
	}
	if m.Command == "" {
		return nil, fmt.Errorf("%w: empty command", ErrSerialization)
	}
	if m.Timestamp <= 0 || m.Nonce == "" {
		return nil, fmt.Errorf("%w: timestamp and nonce are required", ErrSerialization)
	}
	data := []byte(m.Data)
	if len(data) == 0 {
		data = []byte("{}")
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: data is not valid JSON", ErrSerialization)
	}
	if !isObject(data) {
		return nil, fmt.Errorf("%w: data must be a JSON object", ErrSerialization)
	}

	command, err := json.Marshal(m.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	nonce, err := json.Marshal(m.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(command) + len(data) + len(nonce) + 64)
	buf.WriteString(`{"command":`)
	buf.Write(command)
	buf.WriteString(`,"data":`)
	buf.Write(data)
	buf.WriteString(`,"timestamp":`)
	buf.WriteString(strconv.FormatInt(m.Timestamp, 10))
	buf.WriteString(`,"nonce":`)
	buf.Write(nonce)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isObject reports whether valid JSON data holds an object.
func isObject(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// wireMessage distinguishes absent fields from zero values.
type wireMessage struct {
	Command   *string         `json:"command"`
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"timestamp"`
	Nonce     *string         `json:"nonce"`
}

func parseMessage(plaintext []byte) (*Message, error) {
	var w wireMessage
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlaintext, err)
	}
	if w.Command == nil || *w.Command == "" {
		return nil, fmt.Errorf("%w: missing command", ErrMalformedPlaintext)
	}
	if w.Timestamp == nil || w.Nonce == nil || *w.Nonce == "" {
		return nil, fmt.Errorf("%w: missing timestamp or nonce", ErrMalformedPlaintext)
	}
	if len(w.Data) == 0 || bytes.Equal(w.Data, []byte("null")) {
		w.Data = json.RawMessage("{}")
	}
	if !isObject(w.Data) {
		return nil, fmt.Errorf("%w: data must be a JSON object", ErrMalformedPlaintext)
	}
	return &Message{
		Command:   *w.Command,
		Data:      w.Data,
		Timestamp: *w.Timestamp,
		Nonce:     *w.Nonce,
	}, nil
}
