package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanremote/lanremote-go/pkg/log"
)

func viewCmd() *cobra.Command {
	var opts FilterOptions
	cmd := &cobra.Command{
		Use:   "view [flags] <file.rlog>",
		Short: "View a capture in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunView(args[0], opts, cmd.OutOrStdout())
		},
	}
	opts.register(cmd)
	return cmd
}

// RunView prints every selected event.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	sel, err := opts.build()
	if err != nil {
		return err
	}
	return sel.each(path, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}

// eventLabel names the payload an event carries.
func eventLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Envelope != nil:
		if event.Envelope.Command != "" {
			return "Envelope " + event.Envelope.Command
		}
		return "Envelope"
	case event.StateChange != nil:
		return "State"
	case event.Discovery != nil:
		return event.Discovery.Type
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Label
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction, event.LocalRole, event.Layer, eventLabel(event))

	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}
	if event.KeyFingerprint != "" {
		fmt.Fprintf(w, "  Key: %s\n", event.KeyFingerprint)
	}

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Envelope != nil:
		formatEnvelopeDetails(w, event.Envelope)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Discovery != nil:
		formatDiscoveryDetails(w, event.Discovery)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatEnvelopeDetails(w io.Writer, env *log.EnvelopeEvent) {
	fmt.Fprintf(w, "  Class: %s\n", env.Class)
	if env.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", env.Size)
	}
	if env.Status != nil {
		fmt.Fprintf(w, "  Status: %s\n", env.Status)
	}
	if env.Latency != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*env.Latency))
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatDiscoveryDetails(w io.Writer, d *log.DiscoveryEvent) {
	if d.IP != "" {
		fmt.Fprintf(w, "  Host: %s:%d", d.IP, d.Port)
		if d.Hostname != "" {
			fmt.Fprintf(w, " %q", d.Hostname)
		}
		fmt.Fprintln(w)
	}
	if d.Adopted {
		fmt.Fprintln(w, "  Adopted")
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
