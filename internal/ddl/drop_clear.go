package ddl

import (
	"fmt"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/model"
)

// childBeforeParent orders tables so that every child appears before its
// parent, the ordering DROP and DELETE both need. This mirrors the
// teacher's own topological-ordering concern for DDL sequencing
// (schema/tsort.go, schema/ddl_ordering.go), specialized here to the
// single-parent-FK shape this model always produces.
func childBeforeParent(m *model.Model) []*model.Table {
	depth := make(map[string]int, len(m.Tables))
	var depthOf func(t *model.Table) int
	depthOf = func(t *model.Table) int {
		if d, ok := depth[t.Name]; ok {
			return d
		}
		d := 0
		if len(t.ForeignKeys) > 0 {
			if parent := m.TableByName(t.ForeignKeys[0].RefTable); parent != nil {
				d = depthOf(parent) + 1
			}
		}
		depth[t.Name] = d
		return d
	}
	ordered := append([]*model.Table{}, m.Tables...)
	for _, t := range ordered {
		depthOf(t)
	}
	// Stable sort by descending depth (children first), ties keep original order.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && depth[ordered[j-1].Name] < depth[ordered[j].Name]; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
	return ordered
}

// DropScript renders schema.drop.sql: every table's foreign keys dropped,
// then every table dropped child-before-parent.
func DropScript(m *model.Model) string {
	var b strings.Builder
	b.WriteString("-- Drops every table and foreign key this schema owns.\n")
	for _, t := range m.Tables {
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(&b, "ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;\n",
				ident.Qualify(t.Schema, t.Name), ident.Bracket(fk.Name))
		}
	}
	b.WriteString("\n")
	for _, t := range childBeforeParent(m) {
		fmt.Fprintf(&b, "DROP TABLE IF EXISTS %s;\n", ident.Qualify(t.Schema, t.Name))
	}
	return b.String()
}

// ClearScript renders schema.clear.sql: DELETE every row, child-before-
// parent, without touching the schema objects themselves.
func ClearScript(m *model.Model) string {
	var b strings.Builder
	b.WriteString("-- Deletes every row from every table, respecting foreign keys.\n")
	for _, t := range childBeforeParent(m) {
		fmt.Fprintf(&b, "DELETE FROM %s;\n", ident.Qualify(t.Schema, t.Name))
	}
	return b.String()
}
