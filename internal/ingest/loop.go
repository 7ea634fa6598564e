package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dbioutprop/xsdimport/internal/importer"
	"github.com/dbioutprop/xsdimport/internal/observability"
)

// ImportFunc performs one file's transactional import. The loop is
// decoupled from internal/importer's exact signature so it can be driven
// by a fake in tests; internal/daemon wires importer.ImportFile in.
type ImportFunc func(ctx context.Context, path string) (importer.Result, error)

// Loop is the §4.8 ingest loop: a reentrancy-guarded batch runner driven by
// both a startup pass and a debounced filesystem watcher.
type Loop struct {
	Dir              string
	ImportedDir      string
	ErrorDir         string
	ReadyWait        time.Duration
	DebounceInterval time.Duration
	Import           ImportFunc
	Events           *observability.EventLog
	Stats            *observability.StatsFile
	Logger           *slog.Logger

	importing atomic.Bool

	timerMu sync.Mutex
	timer   *time.Timer
}

// New builds a Loop with imported/ and error/ created as siblings of dir.
func New(dir string, importFn ImportFunc, events *observability.EventLog, stats *observability.StatsFile, logger *slog.Logger) (*Loop, error) {
	imported := filepath.Join(filepath.Dir(dir), "imported")
	errDir := filepath.Join(filepath.Dir(dir), "error")
	for _, d := range []string{dir, imported, errDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("ingest: mkdir %s: %w", d, err)
		}
	}
	return &Loop{
		Dir: dir, ImportedDir: imported, ErrorDir: errDir,
		ReadyWait: 2 * time.Second, DebounceInterval: 200 * time.Millisecond,
		Import: importFn, Events: events, Stats: stats, Logger: logger,
	}, nil
}

// Run starts the watcher and blocks until ctx is canceled. It performs one
// batch immediately before watching, per §4.8's "Startup" rule.
func (l *Loop) Run(ctx context.Context) error {
	l.runBatch(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ingest: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.Dir); err != nil {
		return fmt.Errorf("ingest: watch %s: %w", l.Dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isXMLFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
				l.scheduleBatch(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if l.Logger != nil {
				l.Logger.Warn("ingest watcher error", "error", err)
			}
		}
	}
}

// scheduleBatch (re)starts the debounce timer; only the timer that
// survives DebounceInterval without being reset fires a batch, per §4.8.
func (l *Loop) scheduleBatch(ctx context.Context) {
	l.timerMu.Lock()
	defer l.timerMu.Unlock()

	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.DebounceInterval, func() {
		l.runBatch(ctx)
	})
}

// TriggerBatch starts a batch asynchronously, relying on runBatch's own
// reentrancy guard. Used by internal/mirror to trigger an ingest pass
// after copying new files in, per §4.9 step 5.
func (l *Loop) TriggerBatch(ctx context.Context) {
	go l.runBatch(ctx)
}

// runBatch enumerates *.xml in Dir and processes each in name order,
// guarded by a single-owner flag: a contending call returns immediately,
// relying on the event that triggered it to be covered by the batch
// already running, per §4.8/§5.
func (l *Loop) runBatch(ctx context.Context) {
	if !l.importing.CompareAndSwap(false, true) {
		return
	}
	defer l.importing.Store(false)

	names, err := l.listXMLFiles()
	if err != nil {
		if l.Logger != nil {
			l.Logger.Warn("ingest list failed", "dir", l.Dir, "error", err)
		}
		return
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		l.processOne(ctx, filepath.Join(l.Dir, name))
	}
}

func (l *Loop) processOne(ctx context.Context, path string) {
	WaitUntilReady(path, l.ReadyWait)

	start := time.Now()
	res, err := l.Import(ctx, path)
	duration := time.Since(start)
	now := time.Now()

	if err != nil {
		l.moveTo(path, l.ErrorDir)
		if l.Events != nil {
			_ = l.Events.Append(observability.FileEvent{
				Timestamp: now, Type: "file-failure", File: filepath.Base(path), Error: err.Error(),
			})
		}
		if l.Stats != nil {
			_ = l.Stats.RecordFailure(now)
		}
		if l.Logger != nil {
			l.Logger.Error("import failed", "file", path, "error", err)
		}
		return
	}

	l.moveTo(path, l.ImportedDir)
	if l.Events != nil {
		_ = l.Events.Append(observability.FileEvent{
			Timestamp: now, Type: "file-success", File: filepath.Base(path),
			TotalRows: res.Total, DurationMs: duration.Milliseconds(), PerTable: res.PerTable,
		})
	}
	if l.Stats != nil {
		_ = l.Stats.RecordSuccess(res.Total, res.PerTable, now)
	}
	if l.Logger != nil {
		l.Logger.Info("import succeeded", "file", path, "rows", res.Total, "durationMs", duration.Milliseconds())
	}
}

func (l *Loop) moveTo(path, dir string) {
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil && l.Logger != nil {
		l.Logger.Warn("ingest move failed", "file", path, "dest", dest, "error", err)
	}
}

func (l *Loop) listXMLFiles() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isXMLFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func isXMLFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}
