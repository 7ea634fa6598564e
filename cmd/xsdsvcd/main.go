// Command xsdsvcd is xsdwatch's counterpart for platform service hosting:
// same ingest/mirror daemon, started non-interactively and stopped by
// SIGTERM from the service manager rather than an interactive Ctrl-C.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/dbioutprop/xsdimport/internal/config"
	"github.com/dbioutprop/xsdimport/internal/daemon"
	"github.com/dbioutprop/xsdimport/internal/importer"
	"github.com/dbioutprop/xsdimport/internal/model"
	"github.com/dbioutprop/xsdimport/internal/observability"
	"github.com/dbioutprop/xsdimport/internal/sqlserver"
	"github.com/dbioutprop/xsdimport/internal/xsd"
)

func main() {
	var f config.Flags
	parser := flags.NewParser(&f, flags.Default)
	parser.Usage = "--config /etc/xsdimport/config.yaml"
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Resolve(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.XSD == "" || cfg.Connection == "" {
		fmt.Fprintln(os.Stderr, "xsdsvcd: xsd and connection must be set (flag, env, or config file)")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	schema, err := xsd.Parse(cfg.XSD)
	if err != nil {
		return fmt.Errorf("xsdsvcd: parse %s: %w", cfg.XSD, err)
	}
	m := model.Build(schema, cfg.Schema)

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("xsdsvcd: mkdir %s: %w", cfg.Out, err)
	}

	logger, rw, err := observability.NewLogger(filepath.Join(cfg.Out, "import.log"))
	if err != nil {
		return err
	}
	defer rw.Close()

	db, err := sqlserver.Open(cfg.Connection)
	if err != nil {
		return err
	}
	defer db.Close()

	var audit importer.Recorder
	if cfg.Audit {
		w, err := observability.NewAuditWriter(filepath.Join(cfg.Out, "import_audit.csv"))
		if err != nil {
			return err
		}
		audit = w
	}

	d, err := daemon.New(daemon.Daemon{
		DB:     db,
		Model:  m,
		Config: cfg,
		Logger: logger,
		Events: observability.NewEventLog(filepath.Join(cfg.Out, "observability.jsonl")),
		Stats:  observability.NewStatsFile(filepath.Join(cfg.Out, "observability.stats.json")),
		Audit:  audit,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	logger.Info("xsdsvcd starting", "importDir", cfg.ImportDir, "remote", cfg.RemoteSourceDir)
	return d.Run(ctx)
}
