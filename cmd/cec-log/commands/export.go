package commands

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/cec-project/cec-go/pkg/log"
)

// Export converts a capture file to JSONL or CSV.
func Export(args []string, w io.Writer) error {
	var format string
	filter, rest, err := parseArgs("export", args, func(fs *flag.FlagSet) {
		fs.StringVar(&format, "format", "jsonl", "Output format (jsonl, csv)")
	})
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(rest[0], filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "connection_id", "direction", "layer", "category", "adapter_port", "initiator", "destination", "opcode", "parameters"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var initiator, destination, opcode, params string
		if t := event.Traffic; t != nil {
			initiator = fmt.Sprintf("%d", t.Initiator)
			destination = fmt.Sprintf("%d", t.Destination)
			if t.Opcode != nil {
				opcode = fmt.Sprintf("%02x", byte(*t.Opcode))
			}
			params = hex.EncodeToString(t.Parameters)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.AdapterPort,
			initiator,
			destination,
			opcode,
			params,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
