// Command xsdwatch parses an XSD, opens a SQL Server connection, and runs
// the ingest loop plus the optional remote mirror until canceled by
// SIGINT/SIGTERM.
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
	"golang.org/x/term"

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
	parser.Usage = "--xsd schema.xsd --import-dir in --connection dsn [options]"
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Resolve(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.XSD == "" || cfg.Connection == "" {
		fmt.Fprintln(os.Stderr, "xsdwatch: --xsd and --connection are required")
		os.Exit(1)
	}
	if f.PasswordPrompt {
		fmt.Fprint(os.Stderr, "Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg.Connection = config.WithPassword(cfg.Connection, string(pass))
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	schema, err := xsd.Parse(cfg.XSD)
	if err != nil {
		return fmt.Errorf("xsdwatch: parse %s: %w", cfg.XSD, err)
	}
	m := model.Build(schema, cfg.Schema)

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("xsdwatch: mkdir %s: %w", cfg.Out, err)
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
	var recorders []importer.Recorder
	if cfg.VerboseImport {
		recorders = append(recorders, observability.VerboseRecorder{})
	}
	if cfg.Audit {
		w, err := observability.NewAuditWriter(filepath.Join(cfg.Out, "import_audit.csv"))
		if err != nil {
			return err
		}
		recorders = append(recorders, w)
	}
	if len(recorders) > 0 {
		audit = observability.MultiRecorder{Recorders: recorders}
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("xsdwatch starting", "importDir", cfg.ImportDir, "remote", cfg.RemoteSourceDir)
	return d.Run(ctx)
}
