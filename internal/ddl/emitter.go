// Package ddl renders a model.Model into SQL Server DDL text: table
// creation, foreign keys, supporting indexes, unique constraints and
// CHECK constraints, in the fixed emission order §4.4 specifies. Rendering
// is pure string assembly over the model — the model itself is read-only
// here, matching the "emitter reads it once" lifecycle rule in §3.
package ddl

import (
	"fmt"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/model"
)

// Options gates the project-specific overlays the generic emitter does not
// otherwise know about.
type Options struct {
	// DomainOverlay selects an optional per-project computed-column
	// extension. The only recognized value today is "dsetrekv" (§9's
	// DSETREKV/*DATO note); any other value, including "", disables it.
	DomainOverlay string
}

// Schema renders schema.sql: CREATE TABLE for every table, then foreign
// keys, FK-column indexes, unique constraints, multi-column unique lookup
// indexes, and CHECK constraints, in that fixed order so that two builds
// of the same model byte-for-byte agree (property 1, schema determinism).
func Schema(m *model.Model, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "IF NOT EXISTS (SELECT 1 FROM sys.schemas WHERE name = N'%s')\n", m.Schema)
	fmt.Fprintf(&b, "EXEC('CREATE SCHEMA %s');\nGO\n\n", ident.Bracket(m.Schema))

	for _, t := range m.Tables {
		b.WriteString(createTable(t))
		b.WriteString("\nGO\n\n")
		if opts.DomainOverlay == "dsetrekv" {
			if overlay := dsetrekvOverlay(t); overlay != "" {
				b.WriteString(overlay)
				b.WriteString("\nGO\n\n")
			}
		}
	}

	for _, t := range m.Tables {
		for _, fk := range t.ForeignKeys {
			b.WriteString(addForeignKey(t, fk))
			b.WriteString("\nGO\n\n")
		}
	}

	for _, t := range m.Tables {
		for _, fk := range t.ForeignKeys {
			b.WriteString(fkIndex(t, fk))
			b.WriteString("\nGO\n\n")
		}
	}

	for _, t := range m.Tables {
		for _, u := range t.Uniques {
			b.WriteString(addUnique(t, u))
			b.WriteString("\nGO\n\n")
		}
	}

	for _, t := range m.Tables {
		for _, u := range t.Uniques {
			if len(u.Columns) > 1 {
				b.WriteString(uniqueLookupIndex(t, u))
				b.WriteString("\nGO\n\n")
			}
		}
	}

	for _, t := range m.Tables {
		for _, c := range t.Checks {
			b.WriteString(addCheck(t, c))
			b.WriteString("\nGO\n\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func createTable(t *model.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", ident.Qualify(t.Schema, t.Name))
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    ")
		b.WriteString(columnDef(c))
	}
	b.WriteString(fmt.Sprintf(",\n    CONSTRAINT %s PRIMARY KEY (%s)\n",
		ident.Bracket("PK_"+t.Name), ident.Bracket(t.PrimaryKeyColumn())))
	b.WriteString(");")
	return b.String()
}

func columnDef(c *model.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ident.Bracket(c.Name), c.SQLType)
	if c.Identity {
		b.WriteString(" IDENTITY(1,1)")
	}
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

func addForeignKey(t *model.Table, fk model.ForeignKey) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
		ident.Qualify(t.Schema, t.Name), ident.Bracket(fk.Name), ident.Bracket(fk.ColumnName),
		ident.Qualify(fk.RefSchema, fk.RefTable), ident.Bracket(fk.RefColumn))
}

func fkIndex(t *model.Table, fk model.ForeignKey) string {
	name := "IX_" + t.Name + "_" + fk.ColumnName
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s);",
		ident.Bracket(name), ident.Qualify(t.Schema, t.Name), ident.Bracket(fk.ColumnName))
}

func addUnique(t *model.Table, u model.UniqueConstraint) string {
	cols := bracketJoin(u.Columns)
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
		ident.Qualify(t.Schema, t.Name), ident.Bracket(u.Name), cols)
}

func uniqueLookupIndex(t *model.Table, u model.UniqueConstraint) string {
	name := "IX_" + t.Name + "_" + strings.Join(u.Columns, "_") + "_Lookup"
	return fmt.Sprintf("CREATE NONCLUSTERED INDEX %s ON %s (%s) INCLUDE (%s);",
		ident.Bracket(name), ident.Qualify(t.Schema, t.Name), bracketJoin(u.Columns),
		ident.Bracket(t.PrimaryKeyColumn()))
}

func addCheck(t *model.Table, c model.CheckConstraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);",
		ident.Qualify(t.Schema, t.Name), ident.Bracket(c.Name), c.Expression)
}

func bracketJoin(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = ident.Bracket(n)
	}
	return strings.Join(parts, ", ")
}
