package envelope

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// NonceSize is the number of random bytes in a nonce (hex encoded on the wire).
const NonceSize = 6

// Stamper issues timestamp/nonce pairs for outgoing messages.
// Timestamps from one Stamper are strictly increasing, so no two messages it
// stamps can share a plaintext. Safe for concurrent use.
type Stamper struct {
	mu   sync.Mutex
	now  func() time.Time
	rand io.Reader
	last int64
}

// NewStamper creates a Stamper using the wall clock and crypto/rand.
func NewStamper() *Stamper {
	return &Stamper{
		now:  time.Now,
		rand: rand.Reader,
	}
}

// newStamperWithClock is used by tests to pin the clock.
func newStamperWithClock(now func() time.Time) *Stamper {
	return &Stamper{now: now, rand: rand.Reader}
}

// Stamp returns the next timestamp (Unix ms) and a fresh nonce.
func (s *Stamper) Stamp() (int64, string, error) {
	var buf [NonceSize]byte
	if _, err := io.ReadFull(s.rand, buf[:]); err != nil {
		return 0, "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	s.mu.Lock()
	ts := s.now().UnixMilli()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	s.mu.Unlock()

	return ts, hex.EncodeToString(buf[:]), nil
}

// NewMessage builds a stamped message. data is marshalled to JSON and must
// produce an object; nil (or a nil map) becomes an empty object.
func (s *Stamper) NewMessage(command string, data any) (*Message, error) {
	raw := json.RawMessage("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if bytes.Equal(b, []byte("null")) {
			b = []byte("{}")
		}
		if !isObject(b) {
			return nil, fmt.Errorf("%w: data must marshal to a JSON object", ErrSerialization)
		}
		raw = b
	}
	ts, nonce, err := s.Stamp()
	if err != nil {
		return nil, err
	}
	return &Message{
		Command:   command,
		Data:      raw,
		Timestamp: ts,
		Nonce:     nonce,
	}, nil
}

var defaultStamper = NewStamper()

// NewMessage builds a stamped message using the package-level Stamper.
func NewMessage(command string, data any) (*Message, error) {
	return defaultStamper.NewMessage(command, data)
}
