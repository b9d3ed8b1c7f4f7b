// Command zonehub-log views and analyzes zonehub protocol captures.
//
// Captures are written by zonehub when run with the -protocol-log flag.
//
// Usage:
//
//	zonehub-log <command> [flags] <file.zlog|->
//
// Commands:
//
//	view     View a capture in human-readable format
//	export   Export a capture to JSON lines or CSV
//	filter   Filter a capture and write the result to a new file
//	stats    Show statistics about a capture
//
// Examples:
//
//	# View all events
//	zonehub-log view hub.zlog
//
//	# View only pushes for zone 3
//	zonehub-log view -service ZonePropertiesChanged -zone-id 3 hub.zlog
//
//	# View only incoming wire messages
//	zonehub-log view -layer wire -direction in hub.zlog
//
//	# Export to CSV
//	zonehub-log export -format csv -o hub.csv hub.zlog
//
//	# Keep one session
//	zonehub-log filter -conn-id 5f1c2e7a-... -o session.zlog hub.zlog
//
//	# Show statistics of a capture piped from another host
//	ssh hub-gw cat /var/log/hub.zlog | zonehub-log stats -
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zonehub/zonehub-go/cmd/zonehub-log/commands"
	"github.com/zonehub/zonehub-go/pkg/version"
)

const usage = `zonehub-log - Zonehub Protocol Capture Analyzer

Usage:
  zonehub-log <command> [flags] <file.zlog|->

Commands:
  view     View a capture in human-readable format
  export   Export a capture to JSON lines or CSV
  filter   Filter a capture and write the result to a new file
  stats    Show statistics about a capture
  version  Print the version

Use "zonehub-log <command> -help" for more information about a command.
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
	case "version", "-version", "--version":
		fmt.Println(version.Info("zonehub-log"))
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// newFlagSet creates a flag set with the shared usage header.
func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "zonehub-log %s - %s\n\nUsage:\n  zonehub-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// addFilterFlags registers the event filter flags on fs.
func addFilterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	var opts commands.FilterOptions
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by session ID")
	fs.StringVar(&opts.ZoneID, "zone-id", "", "Filter by zone ID")
	fs.StringVar(&opts.Service, "service", "", "Filter by message service (e.g. ListZones)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, controller)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, heartbeat, state, error)")
	return &opts
}

// inputPath returns the single positional argument or exits.
func inputPath(fs *flag.FlagSet) string {
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
	fs := newFlagSet("view", "View a capture in human-readable format", "view [flags] <file.zlog|->")
	opts := addFilterFlags(fs)
	fs.Parse(args)

	if err := commands.RunView(inputPath(fs), *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export a capture to JSON lines or CSV", "export [flags] <file.zlog|->")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := addFilterFlags(fs)
	fs.Parse(args)

	if err := commands.RunExport(inputPath(fs), *format, *output, *opts); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter a capture and write the result to a new file", "filter [flags] -o <out.zlog> <file.zlog|->")
	output := fs.String("o", "", "Output file (required)")
	opts := addFilterFlags(fs)
	fs.Parse(args)

	path := inputPath(fs)
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(path, *output, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about a capture", "stats <file.zlog|->")
	fs.Parse(args)

	if err := commands.RunStats(inputPath(fs), os.Stdout); err != nil {
		fail(err)
	}
}
