package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lanremote/lanremote-go/pkg/log"
)

func exportCmd() *cobra.Command {
	var (
		opts   FilterOptions
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export [flags] <file.rlog>",
		Short: "Export a capture to JSONL or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return RunExport(args[0], format, opts, w)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&format, "format", "jsonl", "Output format (jsonl, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// RunExport writes the selected events of path to w in format.
func RunExport(path, format string, opts FilterOptions, w io.Writer) error {
	sel, err := opts.build()
	if err != nil {
		return err
	}
	switch format {
	case "jsonl":
		return exportJSONL(sel, path, w)
	case "csv":
		return exportCSV(sel, path, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(sel *selection, path string, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return sel.each(path, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

var csvHeader = []string{
	"timestamp", "connection_id", "direction", "role", "layer", "category",
	"remote", "key", "type", "class", "command", "status", "latency_us",
}

func exportCSV(sel *selection, path string, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := sel.each(path, func(event log.Event) error {
		var class, command, status, latency string
		if env := event.Envelope; env != nil {
			class, command = env.Class, env.Command
			if env.Status != nil {
				status = env.Status.String()
			}
			if env.Latency != nil {
				latency = strconv.FormatInt(env.Latency.Microseconds(), 10)
			}
		}
		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.Direction.String(),
			event.LocalRole.String(),
			event.Layer.String(),
			event.Category.String(),
			event.RemoteAddr,
			event.KeyFingerprint,
			eventLabel(event),
			class,
			command,
			status,
			latency,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	cw.Flush()
	if err != nil {
		return err
	}
	return cw.Error()
}
