// Package daemon wires the ingest loop and the remote mirror into one
// cancelable run, the shape cmd/xsdwatch and cmd/xsdsvcd both drive.
package daemon

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dbioutprop/xsdimport/internal/config"
	"github.com/dbioutprop/xsdimport/internal/importer"
	"github.com/dbioutprop/xsdimport/internal/ingest"
	"github.com/dbioutprop/xsdimport/internal/mirror"
	"github.com/dbioutprop/xsdimport/internal/model"
	"github.com/dbioutprop/xsdimport/internal/observability"
	"github.com/dbioutprop/xsdimport/internal/resolve"
)

// Daemon holds everything Run needs: an open DB connection, the built
// model, and the resolved configuration.
type Daemon struct {
	DB       *sql.DB
	Model    *model.Model
	Config   config.Config
	Logger   *slog.Logger
	Events   *observability.EventLog
	Stats    *observability.StatsFile
	Audit    importer.Recorder

	ingestLoop *ingest.Loop
	mirrorLoop *mirror.Mirror
}

// New builds the ingest loop and, if RemoteSourceDir is configured, the
// mirror loop, wiring the importer through both.
func New(d Daemon) (*Daemon, error) {
	resolver := resolve.New(d.Model)

	opts := importer.DefaultOptions()
	opts.Idempotent = !d.Config.NoIdempotency

	importFn := func(ctx context.Context, path string) (importer.Result, error) {
		return importer.ImportFile(ctx, d.DB, resolver, d.Model, path, d.Audit, opts)
	}

	loop, err := ingest.New(d.Config.ImportDir, importFn, d.Events, d.Stats, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("daemon: build ingest loop: %w", err)
	}
	loop.ReadyWait = time.Duration(d.Config.ReadyWaitMs) * time.Millisecond
	loop.DebounceInterval = time.Duration(d.Config.DebounceMs) * time.Millisecond
	d.ingestLoop = loop

	if d.Config.RemoteSourceDir != "" {
		historyPath := filepath.Join(d.Config.Out, d.Config.RemoteHistoryFile)
		m, err := mirror.New(
			d.Config.RemoteSourceDir, d.Config.ImportDir, historyPath,
			time.Duration(d.Config.RemotePollSeconds)*time.Second,
			func() { loop.TriggerBatch(context.Background()) },
			d.Logger,
		)
		if err != nil {
			return nil, fmt.Errorf("daemon: build mirror: %w", err)
		}
		d.mirrorLoop = m
	}

	return &d, nil
}

// Run blocks until ctx is canceled, running the ingest watch loop and, if
// configured, the remote mirror poll loop concurrently.
func (d *Daemon) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- d.ingestLoop.Run(ctx)
	}()

	if d.mirrorLoop != nil {
		stop := make(chan struct{})
		go func() {
			<-ctx.Done()
			close(stop)
		}()
		go d.mirrorLoop.Run(stop)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
