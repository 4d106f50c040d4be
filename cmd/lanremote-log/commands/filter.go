package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanremote/lanremote-go/pkg/log"
	"github.com/lanremote/lanremote-go/pkg/wire"
)

// FilterOptions holds the event selection flags shared by the commands.
type FilterOptions struct {
	ConnID    string
	Remote    string
	Command   string
	Status    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
}

func (o *FilterOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.ConnID, "conn-id", "", "Filter by connection or session ID")
	f.StringVar(&o.Remote, "remote", "", "Filter by peer address (ip:port)")
	f.StringVar(&o.Command, "command", "", "Filter by envelope command")
	f.StringVar(&o.Status, "status", "", "Filter by reliable response status (e.g. AUTH_REJECTED)")
	f.StringVar(&o.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	f.StringVar(&o.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	f.StringVar(&o.Layer, "layer", "", "Filter by layer (transport, wire, session, discovery)")
	f.StringVar(&o.Direction, "direction", "", "Filter by direction (in, out)")
	f.StringVar(&o.Category, "category", "", "Filter by category (message, discovery, state, error)")
}

// selection is a log.Filter plus criteria the reader does not know about.
type selection struct {
	filter log.Filter
	status *wire.Status
}

func (s *selection) matches(event log.Event) bool {
	if s.status == nil {
		return true
	}
	return event.Envelope != nil && event.Envelope.Status != nil && *event.Envelope.Status == *s.status
}

// build converts the flag values.
func (o *FilterOptions) build() (*selection, error) {
	sel := &selection{filter: log.Filter{
		ConnectionID: o.ConnID,
		RemoteAddr:   o.Remote,
		Command:      o.Command,
	}}

	if o.Status != "" {
		var st wire.Status
		if err := st.UnmarshalText([]byte(strings.ToUpper(o.Status))); err != nil {
			return nil, fmt.Errorf("invalid status: %s", o.Status)
		}
		sel.status = &st
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return nil, fmt.Errorf("invalid time-start format: %w", err)
		}
		sel.filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid time-end format: %w", err)
		}
		sel.filter.TimeEnd = &t
	}

	if o.Layer != "" {
		l, err := parseLayer(o.Layer)
		if err != nil {
			return nil, err
		}
		sel.filter.Layer = &l
	}

	if o.Direction != "" {
		d, err := parseDirection(o.Direction)
		if err != nil {
			return nil, err
		}
		sel.filter.Direction = &d
	}

	if o.Category != "" {
		c, err := parseCategory(o.Category)
		if err != nil {
			return nil, err
		}
		sel.filter.Category = &c
	}
	return sel, nil
}

// each calls fn for every selected event in path.
func (s *selection) each(path string, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, s.filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !s.matches(event) {
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "session":
		return log.LayerSession, nil
	case "discovery":
		return log.LayerDiscovery, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, session, or discovery)", s)
	}
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "discovery":
		return log.CategoryDiscovery, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, discovery, state, or error)", s)
	}
}

func filterCmd() *cobra.Command {
	var (
		opts   FilterOptions
		output string
	)
	cmd := &cobra.Command{
		Use:   "filter [flags] <file.rlog>",
		Short: "Write matching events to a new capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := RunFilter(args[0], output, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Filtered %d events to %s\n", n, output)
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	cmd.MarkFlagRequired("output")
	return cmd
}

// RunFilter copies matching events from path to output and returns how
// many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	sel, err := opts.build()
	if err != nil {
		return 0, err
	}

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	err = sel.each(path, func(event log.Event) error {
		logger.Log(event)
		count++
		return nil
	})
	return count, err
}
