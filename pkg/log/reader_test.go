package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeCapture(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.rlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, ConnectionID: "a", Direction: DirectionOut, Layer: LayerWire, Category: CategoryMessage,
			RemoteAddr: "10.0.0.2:5000", Envelope: &EnvelopeEvent{Class: "reliable", Command: "click"}},
		{Timestamp: base.Add(time.Second), ConnectionID: "a", Direction: DirectionOut, Layer: LayerWire, Category: CategoryMessage,
			RemoteAddr: "10.0.0.2:5000", Envelope: &EnvelopeEvent{Class: "low-latency", Command: "mouse_move_relative"}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "b", Direction: DirectionIn, Layer: LayerDiscovery, Category: CategoryDiscovery,
			RemoteAddr: "10.0.0.3:5001", Discovery: &DiscoveryEvent{Type: "OFFER"}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "b", Layer: LayerSession, Category: CategoryState,
			StateChange: &StateChangeEvent{NewState: "DISCOVERED"}},
	}
	path := writeCapture(t, events...)

	dirIn := DirectionIn
	layerWire := LayerWire
	catState := CategoryState
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"none", Filter{}, 4},
		{"connection", Filter{ConnectionID: "a"}, 2},
		{"direction", Filter{Direction: &dirIn}, 1},
		{"layer", Filter{Layer: &layerWire}, 2},
		{"category", Filter{Category: &catState}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"remote", Filter{RemoteAddr: "10.0.0.3:5001"}, 1},
		{"command", Filter{Command: "click"}, 1},
		{"combined", Filter{ConnectionID: "a", Command: "mouse_move_relative"}, 1},
		{"no match", Filter{ConnectionID: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()
			got, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestReaderNextEOF(t *testing.T) {
	path := writeCapture(t, Event{ConnectionID: "only"})
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("second Next: got %v, want io.EOF", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.rlog")); err == nil {
		t.Error("expected error for missing file")
	}
}
