package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Steam-Park/mainsail/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Methods           map[string]*MethodStats
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// MethodStats holds per-method message counts and response latency.
type MethodStats struct {
	Requests      int
	Responses     int
	Notifications int
	Failures      int
	TotalLatency  time.Duration
	MaxLatency    time.Duration
}

// AvgLatency returns the mean response latency.
func (m *MethodStats) AvgLatency() time.Duration {
	if m.Responses == 0 {
		return 0
	}
	return m.TotalLatency / time.Duration(m.Responses)
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Host      string
	States    []string
}

// newStats creates empty statistics.
func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Methods:           make(map[string]*MethodStats),
		Connections:       make(map[string]*ConnectionStats),
	}
}

// add folds one event into the statistics.
func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	// Track time range
	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	// Track connection stats
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
	if event.Host != "" && conn.Host == "" {
		conn.Host = event.Host
	}
	if sc := event.StateChange; sc != nil && sc.Entity == log.StateEntityConnection {
		conn.States = append(conn.States, sc.NewState)
	}

	if m := event.Message; m != nil && m.Method != "" {
		ms, ok := s.Methods[m.Method]
		if !ok {
			ms = &MethodStats{}
			s.Methods[m.Method] = ms
		}
		switch m.Type {
		case log.MessageTypeRequest:
			ms.Requests++
		case log.MessageTypeResponse:
			ms.Responses++
			if m.ErrorMessage != "" {
				ms.Failures++
			}
			if m.Latency != nil {
				ms.TotalLatency += *m.Latency
				if *m.Latency > ms.MaxLatency {
					ms.MaxLatency = *m.Latency
				}
			}
		case log.MessageTypeNotification:
			ms.Notifications++
		}
	}

	// Count errors
	if event.Error != nil {
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Protocol Capture Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by layer
	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerService} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by category
	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by direction
	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Methods
	if len(stats.Methods) > 0 {
		methods := make([]string, 0, len(stats.Methods))
		for m := range stats.Methods {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		fmt.Fprintln(w, "Methods:")
		for _, name := range methods {
			ms := stats.Methods[name]
			fmt.Fprintf(w, "  %-28s req=%d resp=%d notify=%d", name, ms.Requests, ms.Responses, ms.Notifications)
			if ms.Failures > 0 {
				fmt.Fprintf(w, " failed=%d", ms.Failures)
			}
			if ms.MaxLatency > 0 {
				fmt.Fprintf(w, " avg=%s max=%s", formatDuration(ms.AvgLatency()), formatDuration(ms.MaxLatency))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	// Connections
	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		// Sort by first seen time
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

		fmt.Fprintln(w, "")
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.Host != "" {
				fmt.Fprintf(w, "           Host: %s\n", c.stats.Host)
			}
			if len(c.stats.States) > 0 {
				fmt.Fprintf(w, "           States: %v\n", c.stats.States)
			}
		}
	}

	// Errors
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
