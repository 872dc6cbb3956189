package commands

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/cec-project/cec-go/pkg/log"
)

// FilterFile filters a capture file and writes matching events to a
// new capture file.
func FilterFile(args []string) error {
	var output, timeStart, timeEnd string
	filter, rest, err := parseArgs("filter", args, func(fs *flag.FlagSet) {
		fs.StringVar(&output, "o", "", "Output file path (required)")
		fs.StringVar(&timeStart, "time-start", "", "Keep events after this time (RFC3339)")
		fs.StringVar(&timeEnd, "time-end", "", "Keep events before this time (RFC3339)")
	})
	if err != nil {
		return err
	}
	if output == "" {
		return fmt.Errorf("output file required (-o)")
	}

	if timeStart != "" {
		t, err := time.Parse(time.RFC3339, timeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if timeEnd != "" {
		t, err := time.Parse(time.RFC3339, timeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	reader, err := log.NewFilteredReader(rest[0], filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, output)
	return nil
}
