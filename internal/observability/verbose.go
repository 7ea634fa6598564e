package observability

import (
	"github.com/k0kubun/pp/v3"

	"github.com/dbioutprop/xsdimport/internal/importer"
)

// VerboseRecorder pretty-prints every import decision to stdout via
// k0kubun/pp, the same library the teacher's database package reaches for
// whenever it needs readable struct dumps during manual debugging runs.
type VerboseRecorder struct{}

func (VerboseRecorder) Record(ev importer.Event) {
	pp.Println(ev)
}

// MultiRecorder fans one Event out to every wrapped Recorder, so the audit
// CSV writer and the verbose console printer can both observe the same
// import run without the importer knowing either exists.
type MultiRecorder struct {
	Recorders []importer.Recorder
}

func (m MultiRecorder) Record(ev importer.Event) {
	for _, r := range m.Recorders {
		if r != nil {
			r.Record(ev)
		}
	}
}
