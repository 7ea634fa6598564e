package ddl

import (
	"fmt"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/model"
)

// ViewsScript renders schema.views.sql. This is an "external collaborator"
// per spec §1 — deliberately thin: one convenience view per table that is
// itself a foreign-key target (a root or intermediate parent), listing its
// own columns next to a row count of its immediate children.
func ViewsScript(m *model.Model) string {
	var b strings.Builder
	b.WriteString("-- Convenience views: one per table that has children.\n")
	children := childrenByParent(m)
	for _, t := range m.Tables {
		kids := children[t.Name]
		if len(kids) == 0 {
			continue
		}
		viewName := "vw_" + t.Name + "Summary"
		fmt.Fprintf(&b, "CREATE OR ALTER VIEW %s AS\nSELECT p.*", ident.Qualify(t.Schema, viewName))
		for _, child := range kids {
			fmt.Fprintf(&b, ",\n    (SELECT COUNT(*) FROM %s c WHERE c.%s = p.%s) AS %s",
				ident.Qualify(child.Schema, child.Name),
				ident.Bracket(t.PrimaryKeyColumn()), ident.Bracket(t.PrimaryKeyColumn()),
				ident.Bracket(child.Name+"Count"))
		}
		fmt.Fprintf(&b, "\nFROM %s p;\nGO\n\n", ident.Qualify(t.Schema, t.Name))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func childrenByParent(m *model.Model) map[string][]*model.Table {
	out := make(map[string][]*model.Table)
	for _, t := range m.Tables {
		for _, fk := range t.ForeignKeys {
			out[fk.RefTable] = append(out[fk.RefTable], t)
		}
	}
	return out
}

// SamplesScript renders schema.samples.sql: a SELECT TOP 10 against every
// table, for quick post-import sanity checks.
func SamplesScript(m *model.Model) string {
	var b strings.Builder
	b.WriteString("-- Sample rows from every table.\n")
	for _, t := range m.Tables {
		fmt.Fprintf(&b, "SELECT TOP 10 * FROM %s;\n", ident.Qualify(t.Schema, t.Name))
	}
	return b.String()
}

// SeedScript renders seed.sql. Per SPEC_FULL.md this is intentionally
// minimal unless a seed table list is configured: the spec only marks the
// output as optional, it does not describe a seeding DSL to implement.
func SeedScript(m *model.Model, seedTables []string) string {
	if len(seedTables) == 0 {
		return "-- no seed data configured\n"
	}
	var b strings.Builder
	for _, name := range seedTables {
		t := m.TableByName(name)
		if t == nil {
			continue
		}
		fmt.Fprintf(&b, "-- seed: %s (no rows configured, placeholder for %s)\n",
			t.Name, ident.Qualify(t.Schema, t.Name))
	}
	return b.String()
}
