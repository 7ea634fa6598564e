package importer

// Event is one import decision, matching import_audit.csv's column set
// (§4.10): insert, skip, skip-no-table, default-row-insert, file-summary.
type Event struct {
	File        string
	EventKind   string
	Element     string
	Table       string
	NewID       *int64
	ParentTable string
	ParentID    *int64
	FKColumn    string
	Reason      string
	Params      string
}

// Recorder is the injected sink the importer reports decisions to.
// Concrete sinks (internal/observability) write it as a CSV row or
// pretty-print it to stdout; a nil Recorder is valid and simply discards events,
// matching §7's "logging/audit/observability failures are swallowed"
// policy at the call site rather than inside the importer.
type Recorder interface {
	Record(Event)
}

// discard is used whenever ImportFile is called with a nil Recorder.
type discard struct{}

func (discard) Record(Event) {}
