package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cec-project/cec-go/pkg/cec"
	"github.com/cec-project/cec-go/pkg/log"
)

// StatsData holds aggregate statistics about a capture file.
type StatsData struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	FramesByOpcode    map[cec.Opcode]int
	FramesByInitiator map[cec.LogicalAddress]int
	Polls             int
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	AdapterPort string
}

// Stats analyzes the capture file and prints statistics.
func Stats(args []string, w io.Writer) error {
	filter, rest, err := parseArgs("stats", args, nil)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(rest[0], filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &StatsData{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		FramesByOpcode:    make(map[cec.Opcode]int),
		FramesByInitiator: make(map[cec.LogicalAddress]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.observe(event)
	}

	printStats(w, stats)
	return nil
}

func (s *StatsData) observe(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Connections[event.ConnectionID] = conn
	}
	conn.Events++
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if event.AdapterPort != "" && conn.AdapterPort == "" {
		conn.AdapterPort = event.AdapterPort
	}

	if t := event.Traffic; t != nil {
		s.FramesByInitiator[t.Initiator]++
		if t.Opcode != nil {
			s.FramesByOpcode[*t.Opcode]++
		} else {
			s.Polls++
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

func printStats(w io.Writer, stats *StatsData) {
	fmt.Fprintln(w, "=== CEC Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerDriver, log.LayerBridge, log.LayerCommand} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryTraffic, log.CategoryKey, log.CategoryState, log.CategoryDriver, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.FramesByInitiator) > 0 {
		fmt.Fprintln(w, "Frames by Initiator:")
		addrs := make([]cec.LogicalAddress, 0, len(stats.FramesByInitiator))
		for addr := range stats.FramesByInitiator {
			addrs = append(addrs, addr)
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
		for _, addr := range addrs {
			fmt.Fprintf(w, "  %-20s %d\n", addr.String()+":", stats.FramesByInitiator[addr])
		}
		fmt.Fprintln(w)
	}

	if len(stats.FramesByOpcode) > 0 {
		fmt.Fprintln(w, "Frames by Opcode:")
		ops := make([]cec.Opcode, 0, len(stats.FramesByOpcode))
		for op := range stats.FramesByOpcode {
			ops = append(ops, op)
		}
		// Most frequent first, opcode value as tiebreak.
		sort.Slice(ops, func(i, j int) bool {
			ci, cj := stats.FramesByOpcode[ops[i]], stats.FramesByOpcode[ops[j]]
			if ci != cj {
				return ci > cj
			}
			return ops[i] < ops[j]
		})
		for _, op := range ops {
			fmt.Fprintf(w, "  %-24s %d\n", op.String()+":", stats.FramesByOpcode[op])
		}
		if stats.Polls > 0 {
			fmt.Fprintf(w, "  %-24s %d\n", "<poll>:", stats.Polls)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.AdapterPort != "" {
				fmt.Fprintf(w, "           Port: %s\n", c.stats.AdapterPort)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
