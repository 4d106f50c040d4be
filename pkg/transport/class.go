package transport

import (
	"fmt"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Class selects how an envelope is delivered.
type Class uint8

const (
	// ClassReliable is request/response over framed TCP.
	ClassReliable Class = iota
	// ClassLowLatency is a single fire-and-forget UDP datagram.
	ClassLowLatency
)

// String returns the class name used in logs and metrics.
func (c Class) String() string {
	switch c {
	case ClassReliable:
		return "reliable"
	case ClassLowLatency:
		return "low-latency"
	default:
		return "unknown"
	}
}

// ParseClass parses a class name as produced by String.
func ParseClass(s string) (Class, error) {
	switch s {
	case "reliable":
		return ClassReliable, nil
	case "low-latency":
		return ClassLowLatency, nil
	}
	return 0, fmt.Errorf("unknown transport class %q", s)
}

// ClassFor returns the default class for a command: pointer motion and
// scrolling go low-latency, everything else reliable.
func ClassFor(command string) Class {
	switch command {
	case wire.CommandMoveRelative, wire.CommandScroll:
		return ClassLowLatency
	}
	return ClassReliable
}
