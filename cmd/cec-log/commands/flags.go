// Package commands implements the cec-log CLI commands.
package commands

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/log"
)

// filterFlags are the filtering flags shared by view, export and
// filter.
type filterFlags struct {
	direction string
	layer     string
	category  string
	connID    string
	initiator string
	opcode    string
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.direction, "direction", "", "Filter by direction (tx, rx)")
	fs.StringVar(&f.layer, "layer", "", "Filter by layer (driver, bridge, command)")
	fs.StringVar(&f.category, "category", "", "Filter by category (traffic, key, state, driver, error)")
	fs.StringVar(&f.connID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&f.initiator, "initiator", "", "Filter traffic by initiator address (0-15)")
	fs.StringVar(&f.opcode, "opcode", "", "Filter traffic by opcode (hex)")
}

func (f *filterFlags) build() (log.Filter, error) {
	var filter log.Filter
	filter.ConnectionID = f.connID

	if f.direction != "" {
		var d log.Direction
		switch f.direction {
		case "tx", "out":
			d = log.DirectionOut
		case "rx", "in":
			d = log.DirectionIn
		default:
			return filter, fmt.Errorf("unknown direction %q (want tx or rx)", f.direction)
		}
		filter.Direction = &d
	}

	if f.layer != "" {
		var l log.Layer
		switch f.layer {
		case "driver":
			l = log.LayerDriver
		case "bridge":
			l = log.LayerBridge
		case "command":
			l = log.LayerCommand
		default:
			return filter, fmt.Errorf("unknown layer %q", f.layer)
		}
		filter.Layer = &l
	}

	if f.category != "" {
		var c log.Category
		switch f.category {
		case "traffic":
			c = log.CategoryTraffic
		case "key":
			c = log.CategoryKey
		case "state":
			c = log.CategoryState
		case "driver":
			c = log.CategoryDriver
		case "error":
			c = log.CategoryError
		default:
			return filter, fmt.Errorf("unknown category %q", f.category)
		}
		filter.Category = &c
	}

	if f.initiator != "" {
		n, err := strconv.ParseInt(f.initiator, 10, 8)
		if err != nil || n < 0 || n > 15 {
			return filter, fmt.Errorf("initiator %q: want 0-15", f.initiator)
		}
		addr := cec.LogicalAddress(n)
		filter.Initiator = &addr
	}

	if f.opcode != "" {
		n, err := strconv.ParseUint(f.opcode, 16, 8)
		if err != nil {
			return filter, fmt.Errorf("opcode %q: want hex byte", f.opcode)
		}
		op := cec.Opcode(n)
		filter.Opcode = &op
	}

	return filter, nil
}

// parseArgs parses common flags plus the trailing capture file path.
func parseArgs(name string, args []string, extra func(*flag.FlagSet)) (log.Filter, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var ff filterFlags
	ff.register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return log.Filter{}, nil, err
	}
	if fs.NArg() < 1 {
		return log.Filter{}, nil, fmt.Errorf("capture file path required")
	}
	filter, err := ff.build()
	if err != nil {
		return log.Filter{}, nil, err
	}
	return filter, fs.Args(), nil
}
