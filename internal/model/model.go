// Package model builds the normalized table graph (§3 of the design) from
// a parsed XSD and holds it immutably once built, the way the teacher's
// schema.Generator holds desiredTables/currentTables as a stable,
// string-keyed collection (schema/generator.go).
package model

import (
	"strconv"
	"strings"
)

// Column is one column of a Table.
type Column struct {
	Name         string
	SQLType      string
	Nullable     bool
	Identity     bool
	IsPrimaryKey bool
}

// ForeignKey references a parent table's surrogate primary key.
type ForeignKey struct {
	Name       string
	ColumnName string
	RefSchema  string
	RefTable   string
	RefColumn  string
}

// UniqueConstraint is a single- or multi-column UNIQUE constraint, with
// column order preserved as encountered.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// CheckConstraint is a single-column CHECK predicate. Expression is the
// full predicate text, already wrapped with "IS NULL OR (...)" when the
// owning column is nullable.
type CheckConstraint struct {
	Name       string
	ColumnName string
	Expression string
}

// Table is one node of the derived relational graph.
type Table struct {
	Schema      string
	Name        string
	Columns     []*Column
	ForeignKeys []ForeignKey
	Uniques     []UniqueConstraint
	Checks      []CheckConstraint

	checkSeen map[string]bool // expression text -> already added, for dedupe
}

// PrimaryKeyColumn returns the table's identity PK column name.
func (t *Table) PrimaryKeyColumn() string {
	return t.Name + "Id"
}

// Column looks up a column by name, case-insensitively, per invariant 3.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// HasColumn reports whether the table already carries the named column.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// ElementBinding maps a namespace-qualified global element name to the
// table that holds its rows.
type ElementBinding struct {
	Namespace string
	LocalName string
	Table     string
}

// Model is the complete derived schema: every table, plus the element
// bindings the table resolver consults first.
type Model struct {
	Schema   string
	Tables   []*Table
	Bindings []ElementBinding

	byName map[string]*Table // lookup-or-insert map, case-sensitive on the derived PascalCase name
}

// New creates an empty model rooted at the given SQL schema name.
func New(sqlSchema string) *Model {
	return &Model{
		Schema: sqlSchema,
		byName: make(map[string]*Table),
	}
}

// TableByName returns the table with the exact derived name, or nil.
func (m *Model) TableByName(name string) *Table {
	return m.byName[name]
}

// EnsureTable looks up a table by name, inserting a new one (with its
// surrogate PK column already present, per invariant 1) if absent. This is
// the "cyclic lookup" pattern DESIGN NOTES calls for: a stable string-keyed
// map mutated during model build, no back-edges required at runtime.
func (m *Model) EnsureTable(name string) *Table {
	if t, ok := m.byName[name]; ok {
		return t
	}
	t := &Table{
		Schema:    m.Schema,
		Name:      name,
		checkSeen: make(map[string]bool),
	}
	t.Columns = append(t.Columns, &Column{
		Name:         name + "Id",
		SQLType:      "INT",
		Nullable:     false,
		Identity:     true,
		IsPrimaryKey: true,
	})
	m.byName[name] = t
	m.Tables = append(m.Tables, t)
	return t
}

// AddBinding records a global-element-to-table mapping.
func (m *Model) AddBinding(namespace, localName, table string) {
	m.Bindings = append(m.Bindings, ElementBinding{Namespace: namespace, LocalName: localName, Table: table})
}

// isWideString reports whether a SQL type name is one of the NVARCHAR
// family, used by AddColumn's widening rule.
func isWideString(sqlType string) bool {
	return strings.HasPrefix(sqlType, "NVARCHAR")
}

// AddColumn inserts a column, or merges into an existing one of the same
// name (case-insensitive) per the model-builder's column-merging rule:
// nullability becomes old&&new, and NVARCHAR widens to NVARCHAR(MAX) when
// either side is a string type and the two lengths disagree.
func (t *Table) AddColumn(name, sqlType string, nullable bool) *Column {
	if existing := t.Column(name); existing != nil {
		existing.Nullable = existing.Nullable && nullable
		if (isWideString(existing.SQLType) || isWideString(sqlType)) && existing.SQLType != sqlType {
			existing.SQLType = "NVARCHAR(MAX)"
		}
		return existing
	}
	c := &Column{Name: name, SQLType: sqlType, Nullable: nullable}
	t.Columns = append(t.Columns, c)
	return c
}

// AddForeignKeyColumn adds the NOT NULL "<Parent>Id" column (second column
// of a non-root table per invariant 2) and the owning ForeignKey record.
func (child *Table) AddForeignKeyColumn(parent *Table) {
	colName := parent.Name + "Id"
	if child.HasColumn(colName) {
		return
	}
	child.Columns = append(child.Columns, &Column{Name: colName, SQLType: "INT", Nullable: false})
	child.ForeignKeys = append(child.ForeignKeys, ForeignKey{
		Name:       "FK_" + child.Name + "_" + parent.Name,
		ColumnName: colName,
		RefSchema:  parent.Schema,
		RefTable:   parent.Name,
		RefColumn:  parent.PrimaryKeyColumn(),
	})
}

// AddUnique appends a unique constraint unless one with the same name is
// already present; the column sets are not compared.
func (t *Table) AddUnique(name string, columns []string) {
	for _, u := range t.Uniques {
		if u.Name == name {
			return
		}
	}
	t.Uniques = append(t.Uniques, UniqueConstraint{Name: name, Columns: columns})
}

// AddCheck renders a CHECK predicate for one column, wrapping it with
// "IS NULL OR (...)" when nullable, naming it CK_<Table>_<Col>_<n> with a
// per-table counter, and skipping it if an identical expression already
// exists on the table (duplicates are not added twice, per §4.2).
func (t *Table) AddCheck(columnName, predicate string, nullable bool) {
	expr := predicate
	if nullable {
		expr = "[" + columnName + "] IS NULL OR (" + predicate + ")"
	}
	if t.checkSeen[expr] {
		return
	}
	t.checkSeen[expr] = true
	n := len(t.Checks) + 1
	name := "CK_" + t.Name + "_" + columnName + "_" + strconv.Itoa(n)
	t.Checks = append(t.Checks, CheckConstraint{Name: name, ColumnName: columnName, Expression: expr})
}
