package log

import (
	"testing"
	"time"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	status := wire.StatusAuthRejected
	latency := 3 * time.Millisecond
	original := Event{
		Timestamp:      ts,
		ConnectionID:   "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Direction:      DirectionOut,
		Layer:          LayerWire,
		Category:       CategoryMessage,
		LocalRole:      RoleClient,
		RemoteAddr:     "192.168.1.20:5000",
		KeyFingerprint: "a1b2c3d4e5f60718",
		Envelope: &EnvelopeEvent{
			Class:   "reliable",
			Size:    142,
			Command: "click",
			Status:  &status,
			Latency: &latency,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != DirectionOut || decoded.Layer != LayerWire || decoded.LocalRole != RoleClient {
		t.Errorf("enums not preserved: %+v", decoded)
	}
	if decoded.KeyFingerprint != original.KeyFingerprint {
		t.Errorf("KeyFingerprint: got %q", decoded.KeyFingerprint)
	}
	if decoded.Envelope == nil {
		t.Fatal("Envelope is nil")
	}
	if decoded.Envelope.Command != "click" || decoded.Envelope.Size != 142 {
		t.Errorf("Envelope: got %+v", decoded.Envelope)
	}
	if decoded.Envelope.Status == nil || *decoded.Envelope.Status != wire.StatusAuthRejected {
		t.Errorf("Envelope.Status: got %v", decoded.Envelope.Status)
	}
	if decoded.Envelope.Latency == nil || *decoded.Envelope.Latency != latency {
		t.Errorf("Envelope.Latency: got %v", decoded.Envelope.Latency)
	}
}

func TestEventCBORPayloads(t *testing.T) {
	code := 7
	tests := []struct {
		name  string
		event Event
		check func(t *testing.T, e Event)
	}{
		{
			name: "discovery",
			event: Event{
				Layer:    LayerDiscovery,
				Category: CategoryDiscovery,
				Discovery: &DiscoveryEvent{
					Type: "OFFER", IP: "10.0.0.7", Port: 5000, Hostname: "den-pc", Adopted: true,
				},
			},
			check: func(t *testing.T, e Event) {
				if e.Discovery == nil || e.Discovery.Hostname != "den-pc" || !e.Discovery.Adopted {
					t.Errorf("Discovery: got %+v", e.Discovery)
				}
			},
		},
		{
			name: "state change",
			event: Event{
				Layer:    LayerSession,
				Category: CategoryState,
				StateChange: &StateChangeEvent{
					Entity: StateEntitySession, OldState: "CONNECTED", NewState: "DISCONNECTED", Reason: "auth rejected",
				},
			},
			check: func(t *testing.T, e Event) {
				if e.StateChange == nil || e.StateChange.NewState != "DISCONNECTED" || e.StateChange.Reason != "auth rejected" {
					t.Errorf("StateChange: got %+v", e.StateChange)
				}
			},
		},
		{
			name: "error",
			event: Event{
				Category: CategoryError,
				Error:    &ErrorEventData{Layer: LayerTransport, Message: "connection refused", Code: &code, Context: "dial"},
			},
			check: func(t *testing.T, e Event) {
				if e.Error == nil || e.Error.Code == nil || *e.Error.Code != 7 || e.Error.Context != "dial" {
					t.Errorf("Error: got %+v", e.Error)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			tt.check(t, decoded)
		})
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("expected error decoding garbage")
	}
}
