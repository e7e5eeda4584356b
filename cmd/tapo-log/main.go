// Command tapo-log views protocol capture files.
//
// Capture files are written by tapo when logging.protocol_log is set or the
// -protocol-log flag is given.
//
// Usage:
//
//	tapo-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View events in human-readable format
//	stats    Show statistics about the capture
//
// Examples:
//
//	# View only requests and replies
//	tapo-log view -category message capture.cbor
//
//	# View everything sent to one device
//	tapo-log view -address 192.168.1.20 -direction out capture.cbor
//
//	# Show statistics
//	tapo-log stats capture.cbor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tapo-protocol/tapo-go/cmd/tapo-log/commands"
	"github.com/tapo-protocol/tapo-go/pkg/log"
)

const usage = `tapo-log - protocol capture viewer

Usage:
  tapo-log <command> [flags] <file.cbor>

Commands:
  view     View events in human-readable format
  stats    Show statistics about the capture

Use "tapo-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tapo-log view - View events in human-readable format

Usage:
  tapo-log view [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, envelope, session)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	session := fs.String("session", "", "Filter by session ID")
	address := fs.String("address", "", "Filter by device address")
	deviceID := fs.String("device-id", "", "Filter by child device ID")
	method := fs.String("method", "", "Filter by method name")
	since := fs.String("since", "", "Only events at or after this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{
		SessionID: *session,
		Address:   *address,
		DeviceID:  *deviceID,
		Method:    *method,
	}
	if *layer != "" {
		l, err := commands.ParseLayer(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
	}
	if *direction != "" {
		d, err := commands.ParseDirection(*direction)
		if err != nil {
			fail(err)
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategory(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fail(fmt.Errorf("invalid -since: %w", err))
		}
		filter.TimeStart = &t
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tapo-log stats - Show statistics about the capture

Usage:
  tapo-log stats <file.cbor>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fail(err)
	}
}
