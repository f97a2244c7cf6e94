// Command mainsail-log views and analyzes protocol capture files.
//
// Capture files are written by mainsail-sync when it runs with the
// -capture flag. Each file holds the websocket frames, decoded JSON-RPC
// messages and state changes of one or more connections.
//
// Usage:
//
//	mainsail-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     Print events in human-readable form
//	export   Export events as JSON lines or CSV
//	filter   Copy matching events to a new capture file
//	stats    Summarize events, methods and connections
//
// Examples:
//
//	# View everything
//	mainsail-log view printer.clog
//
//	# View only status subscriptions
//	mainsail-log view -method get_printer_objects_status printer.clog
//
//	# View only notifications
//	mainsail-log view -type notification printer.clog
//
//	# Export to CSV
//	mainsail-log export -format csv -o printer.csv printer.clog
//
//	# Keep one connection
//	mainsail-log filter -conn-id abc12345 -o one.clog printer.clog
//
//	# Show statistics
//	mainsail-log stats printer.clog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Steam-Park/mainsail/cmd/mainsail-log/commands"
)

const usage = `mainsail-log - Protocol Capture Analyzer

Usage:
  mainsail-log <command> [flags] <file.clog>

Commands:
  view     Print events in human-readable form
  export   Export events as JSON lines or CSV
  filter   Copy matching events to a new capture file
  stats    Summarize events, methods and connections

Use "mainsail-log <command> -help" for more information about a command.
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
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
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

// newFlagSet creates a subcommand flag set with a usage header.
func newFlagSet(name, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "mainsail-log %s - %s\n\nUsage:\n  mainsail-log %s [flags] <file.clog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

// parsePath parses args and returns the single capture file argument.
func parsePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "Print events in human-readable form")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	msgType := fs.String("type", "", "Filter by message type (request, response, notification)")
	method := fs.String("method", "", "Filter by JSON-RPC method")
	path := parsePath(fs, args)

	filter := commands.ViewFilter{Method: *method}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fail(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if *msgType != "" {
		m, err := commands.ParseMessageTypeFlag(*msgType)
		if err != nil {
			fail(err)
		}
		filter.MessageType = &m
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export events as JSON lines or CSV")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parsePath(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Copy matching events to a new capture file")
	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	method := fs.String("method", "", "Filter by JSON-RPC method")
	msgType := fs.String("type", "", "Filter by message type (request, response, notification)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	path := parsePath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	count, err := commands.RunFilter(path, commands.FilterOptions{
		Output:      *output,
		ConnID:      *connID,
		Method:      *method,
		MessageType: *msgType,
		TimeStart:   *timeStart,
		TimeEnd:     *timeEnd,
		Layer:       *layer,
		Direction:   *direction,
		Category:    *category,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "mainsail-log stats - Summarize events, methods and connections\n\nUsage:\n  mainsail-log stats <file.clog>\n\n")
	}
	path := parsePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
