// Command lanremote-log views and analyzes lanremote protocol captures.
//
// Capture files are written by lanremote and lanremote-host when run with
// the -protocol-log flag.
//
// Usage:
//
//	lanremote-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View a capture in human-readable format
//	export   Export a capture to JSONL or CSV
//	filter   Write matching events to a new capture
//	stats    Show statistics about a capture
//
// Examples:
//
//	# View all events
//	lanremote-log view client.rlog
//
//	# View only rejected envelopes on the host
//	lanremote-log view --layer wire --status AUTH_REJECTED host.rlog
//
//	# Export to CSV
//	lanremote-log export --format csv -o client.csv client.rlog
//
//	# Show statistics
//	lanremote-log stats host.rlog
package main

import (
	"os"

	"github.com/lanremote/lanremote-go/cmd/lanremote-log/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
