// Command xsdgen analyzes an XSD file, derives its relational model, and
// writes the generated DDL files to the output directory. It can
// optionally also run one ingest pass over a single example XML file,
// mirroring the teacher's mssqldef entry point's shape: parse flags,
// resolve a database.Config-equivalent, then do the one thing the command
// exists to do.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/dbioutprop/xsdimport/internal/config"
	"github.com/dbioutprop/xsdimport/internal/ddl"
	"github.com/dbioutprop/xsdimport/internal/importer"
	"github.com/dbioutprop/xsdimport/internal/model"
	"github.com/dbioutprop/xsdimport/internal/observability"
	"github.com/dbioutprop/xsdimport/internal/resolve"
	"github.com/dbioutprop/xsdimport/internal/sqlserver"
	"github.com/dbioutprop/xsdimport/internal/xsd"
)

func main() {
	var f config.Flags
	parser := flags.NewParser(&f, flags.Default)
	parser.Usage = "--xsd schema.xsd --out outdir [options]"
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Resolve(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.XSD == "" {
		fmt.Fprintln(os.Stderr, "xsdgen: --xsd is required")
		os.Exit(1)
	}
	if f.PasswordPrompt && cfg.Connection != "" {
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
		return fmt.Errorf("xsdgen: parse %s: %w", cfg.XSD, err)
	}

	m := model.Build(schema, cfg.Schema)

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("xsdgen: mkdir %s: %w", cfg.Out, err)
	}

	files := map[string]string{
		"schema.sql":        ddl.Schema(m, ddl.Options{}),
		"schema.views.sql":  ddl.ViewsScript(m),
		"schema.samples.sql": ddl.SamplesScript(m),
		"schema.drop.sql":   ddl.DropScript(m),
		"schema.clear.sql":  ddl.ClearScript(m),
		"seed.sql":          ddl.SeedScript(m, nil),
	}
	for name, content := range files {
		path := filepath.Join(cfg.Out, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("xsdgen: write %s: %w", path, err)
		}
	}

	if cfg.ApplyDrop || cfg.ApplyClear {
		if err := applyDropOrClear(cfg, m); err != nil {
			return err
		}
	}

	if cfg.XML == "" {
		return nil
	}
	return ingestOne(cfg, m)
}

// applyDropOrClear executes schema.drop.sql/schema.clear.sql against
// --connection directly, rather than leaving them as files for an operator
// to run by hand, checking each object's existence first so a rerun against
// a partially-cleaned database does not fail partway through.
func applyDropOrClear(cfg config.Config, m *model.Model) error {
	if cfg.Connection == "" {
		return fmt.Errorf("xsdgen: --connection is required for --apply-drop/--apply-clear")
	}
	db, err := sqlserver.Open(cfg.Connection)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.ApplyDrop {
		if err := ddl.ApplyDrop(db, m); err != nil {
			return fmt.Errorf("xsdgen: apply drop: %w", err)
		}
		fmt.Println("applied schema.drop.sql")
	}
	if cfg.ApplyClear {
		if err := ddl.ApplyClear(db, m); err != nil {
			return fmt.Errorf("xsdgen: apply clear: %w", err)
		}
		fmt.Println("applied schema.clear.sql")
	}
	return nil
}

func ingestOne(cfg config.Config, m *model.Model) error {
	if cfg.Connection == "" {
		return fmt.Errorf("xsdgen: --connection is required to ingest --xml")
	}

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

	opts := importer.DefaultOptions()
	opts.Idempotent = !cfg.NoIdempotency

	resolver := resolve.New(m)
	result, err := importer.ImportFile(context.Background(), db, resolver, m, cfg.XML, audit, opts)
	if err != nil {
		return fmt.Errorf("xsdgen: import %s: %w", cfg.XML, err)
	}
	fmt.Printf("imported %s: %d rows\n", cfg.XML, result.Total)
	return nil
}
