package envelope

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStamperMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	s := newStamperWithClock(func() time.Time { return fixed })

	var last int64
	for i := 0; i < 100; i++ {
		ts, nonce, err := s.Stamp()
		if err != nil {
			t.Fatalf("Stamp() error = %v", err)
		}
		if ts <= last {
			t.Fatalf("timestamp %d not after %d", ts, last)
		}
		if len(nonce) != NonceSize*2 {
			t.Fatalf("nonce length = %d, want %d", len(nonce), NonceSize*2)
		}
		last = ts
	}
}

func TestStamperConcurrentUnique(t *testing.T) {
	s := NewStamper()

	const n = 200
	var mu sync.Mutex
	seen := make(map[int64]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts, _, err := s.Stamp()
			if err != nil {
				t.Errorf("Stamp() error = %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[ts] {
				t.Errorf("duplicate timestamp %d", ts)
			}
			seen[ts] = true
		}()
	}
	wg.Wait()
}

func TestNewMessage(t *testing.T) {
	t.Run("WithPayload", func(t *testing.T) {
		msg, err := NewMessage("click", map[string]string{"button": "left"})
		if err != nil {
			t.Fatalf("NewMessage() error = %v", err)
		}
		if msg.Command != "click" {
			t.Errorf("Command = %q", msg.Command)
		}
		if string(msg.Data) != `{"button":"left"}` {
			t.Errorf("Data = %s", msg.Data)
		}
		if msg.Timestamp == 0 || msg.Nonce == "" {
			t.Error("message must be stamped")
		}
	})

	t.Run("NilPayload", func(t *testing.T) {
		msg, err := NewMessage("ping", nil)
		if err != nil {
			t.Fatalf("NewMessage() error = %v", err)
		}
		if string(msg.Data) != "{}" {
			t.Errorf("Data = %s, want {}", msg.Data)
		}
	})

	t.Run("Unserializable", func(t *testing.T) {
		_, err := NewMessage("bad", map[string]any{"ch": make(chan int)})
		if err == nil {
			t.Fatal("expected serialization error")
		}
	})

	t.Run("NonObjectPayload", func(t *testing.T) {
		_, err := NewMessage("click", []int{1, 2})
		if !errors.Is(err, ErrSerialization) {
			t.Errorf("NewMessage([]int) error = %v, want ErrSerialization", err)
		}
	})

	t.Run("NilMapPayload", func(t *testing.T) {
		var data map[string]any
		msg, err := NewMessage("ping", data)
		if err != nil {
			t.Fatalf("NewMessage() error = %v", err)
		}
		if string(msg.Data) != "{}" {
			t.Errorf("Data = %s, want {}", msg.Data)
		}
	})

	t.Run("TwoMessagesDiffer", func(t *testing.T) {
		a, _ := NewMessage("click", nil)
		b, _ := NewMessage("click", nil)
		ab, _ := json.Marshal(a)
		bb, _ := json.Marshal(b)
		if string(ab) == string(bb) {
			t.Error("two plaintexts must never be identical")
		}
	})
}

func TestMessageUnmarshal(t *testing.T) {
	msg := &Message{Data: json.RawMessage(`{"button":"right"}`)}
	var v struct {
		Button string `json:"button"`
	}
	if err := msg.Unmarshal(&v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.Button != "right" {
		t.Errorf("Button = %q", v.Button)
	}

	empty := &Message{}
	if err := empty.Unmarshal(&v); err != nil {
		t.Errorf("Unmarshal(empty) error = %v", err)
	}
}
