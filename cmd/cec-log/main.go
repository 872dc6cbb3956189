// Command cec-log is a tool for viewing and analyzing CEC capture files.
//
// Capture files are created by configuring a file logger on a
// connection, or via the capture section of the cec-ctl/cec-console
// YAML configuration.
//
// Usage:
//
//	cec-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	cec-log view bus.clog
//
//	# View only transmitted frames
//	cec-log view -direction tx bus.clog
//
//	# View only traffic from the TV
//	cec-log view -initiator 0 bus.clog
//
//	# Export to JSONL
//	cec-log export bus.clog
//
//	# Keep only key presses in a new file
//	cec-log filter -category key -o keys.clog bus.clog
//
//	# Show statistics
//	cec-log stats bus.clog
package main

import (
	"fmt"
	"os"

	"github.com/cec-project/cec-go/cmd/cec-log/commands"
)

const usage = `cec-log - CEC Capture Analyzer

Usage:
  cec-log <command> [flags] <file.clog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "cec-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = commands.View(args, os.Stdout)
	case "export":
		err = commands.Export(args, os.Stdout)
	case "filter":
		err = commands.FilterFile(args)
	case "stats":
		err = commands.Stats(args, os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
