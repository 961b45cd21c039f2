// Package diagnostics supplies a diagnostic sink passed by reference
// into the equilibrator and assignment façade, rather than relying on a
// process-wide logger singleton.
package diagnostics

import "fmt"

// Sink receives structured diagnostic records from the equilibrator and
// assignment façade. Infof is used for per-iteration progress, Warnf
// for recoverable anomalies (e.g. the line-search fallback firing),
// Errorf for fatal conditions recorded immediately before Execute
// aborts.
type Sink interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Record is one captured diagnostic entry.
type Record struct {
	Level   string // "info", "warn", or "error"
	Message string
}

// Slice is an in-memory Sink that appends every record, so a caller that
// installs one (assignment.SetDiagnosticSink, or equilibrator.New's sink
// argument) can read the run's log afterwards without any external
// logging dependency.
type Slice struct {
	Records []Record
}

var _ Sink = (*Slice)(nil)

func (s *Slice) Infof(format string, args ...interface{}) {
	s.Records = append(s.Records, Record{Level: "info", Message: fmt.Sprintf(format, args...)})
}

func (s *Slice) Warnf(format string, args ...interface{}) {
	s.Records = append(s.Records, Record{Level: "warn", Message: fmt.Sprintf(format, args...)})
}

func (s *Slice) Errorf(format string, args ...interface{}) {
	s.Records = append(s.Records, Record{Level: "error", Message: fmt.Sprintf(format, args...)})
}

// Discard is a Sink that drops every record; the zero value is usable.
type Discard struct{}

var _ Sink = Discard{}

func (Discard) Infof(string, ...interface{})  {}
func (Discard) Warnf(string, ...interface{})  {}
func (Discard) Errorf(string, ...interface{}) {}
