package log

// MultiLogger fans each event out to every attached Logger, in order.
// A connection typically wires one up to capture to disk with a
// FileLogger while mirroring the bus traffic to a SlogAdapter.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger wraps the given loggers. A nil or empty list yields a
// logger that discards everything.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log hands the event to each wrapped logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
