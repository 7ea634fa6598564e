package observability

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dbioutprop/xsdimport/internal/importer"
)

const previewMaxLen = 64

// AuditWriter implements importer.Recorder, appending one CSV row per
// decision to import_audit.csv, per §4.10's header and masking rules.
type AuditWriter struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewAuditWriter(path string) (*AuditWriter, error) {
	w := &AuditWriter{path: path, now: time.Now}
	if err := w.ensureHeader(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *AuditWriter) ensureHeader() error {
	if _, err := os.Stat(w.path); err == nil {
		return nil
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("observability: create audit file: %w", err)
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	defer cw.Flush()
	return cw.Write([]string{
		"Timestamp", "File", "Event", "Element", "Table", "NewId",
		"ParentTable", "ParentId", "FkColumn", "Reason", "Params",
	})
}

// Record appends one row. Open and write failures are swallowed here (§7
// rule 6); Record reports no error to its caller.
func (w *AuditWriter) Record(ev importer.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	_ = cw.Write([]string{
		w.now().Format(time.RFC3339Nano),
		ev.File,
		ev.EventKind,
		ev.Element,
		ev.Table,
		int64PtrString(ev.NewID),
		ev.ParentTable,
		int64PtrString(ev.ParentID),
		ev.FKColumn,
		ev.Reason,
		maskAndTruncateParams(ev.Params),
	})
}

func int64PtrString(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

// maskAndTruncateParams applies both §4.10 rules to a "name=value; ..."
// preview string: CPR-named fields are masked to their last two
// characters, and any field value over previewMaxLen is truncated.
func maskAndTruncateParams(params string) string {
	if params == "" {
		return ""
	}
	parts := strings.Split(params, "; ")
	for i, p := range parts {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		if strings.Contains(strings.ToUpper(name), "CPR") {
			value = maskToLastTwo(value)
		}
		if len(value) > previewMaxLen {
			value = value[:previewMaxLen]
		}
		parts[i] = name + "=" + value
	}
	return strings.Join(parts, "; ")
}

func maskToLastTwo(value string) string {
	r := []rune(value)
	if len(r) <= 2 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-2) + string(r[len(r)-2:])
}
