package model

import (
	"fmt"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/typemap"
	"github.com/dbioutprop/xsdimport/internal/xsd"
)

// builtinSimpleTypes is the set of XSD built-in base types typemap.Map
// understands directly, without a named <xs:simpleType> declaration.
var builtinSimpleTypes = map[string]bool{
	"string": true, "normalizedString": true, "token": true, "Name": true,
	"NCName": true, "ID": true, "IDREF": true, "language": true, "anyURI": true,
	"decimal": true, "integer": true, "short": true, "byte": true,
	"unsignedByte": true, "unsignedShort": true, "unsignedInt": true, "long": true,
	"int": true, "nonNegativeInteger": true, "positiveInteger": true,
	"boolean": true, "float": true, "double": true, "date": true,
	"dateTime": true, "time": true, "duration": true,
}

// choiceContext carries state while walking inside an <xs:choice> particle:
// simple children become nullable columns regardless of their own
// minOccurs, and complex children get a ChoiceParentOption discriminator
// column on their own table (§3 invariant 7, §4.3).
type choiceContext struct {
	active bool
}

// Build derives a complete Model from one parsed XSD document.
func Build(schema *xsd.Schema, sqlSchema string) *Model {
	m := New(sqlSchema)
	for i := range schema.Elements {
		elem := &schema.Elements[i]
		tableName := elementTableName(schema, elem)
		table := m.EnsureTable(tableName)
		m.AddBinding(schema.TargetNamespace, elem.Name, tableName)
		processElementBody(m, schema, elem, table, nil)
		addIdentityConstraints(table, elem)
	}
	disambiguateCollisions(m, schema)
	return m
}

// elementTableName derives the initial table name for a global element.
// Namespace disambiguation (invariant 5) is applied afterward in
// disambiguateCollisions, once every global element's candidate name is
// known — a single schema document only ever contributes one
// targetNamespace, so true collisions only appear once multi-document
// composition is introduced; the hook still runs so that extension is a
// model-only change.
func elementTableName(_ *xsd.Schema, elem *xsd.Element) string {
	return ident.TableIdentifier(elem.Name)
}

func disambiguateCollisions(_ *Model, _ *xsd.Schema) {
	// No-op for single-document schemas: every global element in one XSD
	// file shares the same targetNamespace, so local-name collisions across
	// distinct namespaces cannot occur yet. Kept as a named seam (rather
	// than removed) for the day this engine is pointed at an XSD composed
	// of multiple <xs:import>ed namespaces.
}

// processElementBody walks one element's type (simple or complex) and adds
// columns / child tables to `table`, which is already the element's own
// table when called from Build, or the parent's table when called for an
// inline (non-table) child.
func processElementBody(m *Model, schema *xsd.Schema, elem *xsd.Element, table *Table, cc *choiceContext) {
	if ct := resolveComplexType(schema, elem); ct != nil {
		processComplexType(m, schema, ct, table, cc)
		return
	}
	// Simple scalar global element, or an empty/marker element with no type
	// information at all: either way the table is left with just its
	// surrogate PK (a scalar global root has nowhere else to put its own
	// value — the importer's generic text-binding fallback does not apply
	// to the document's root node, which has no parent to report a value
	// through).
}

// resolveComplexType returns the element's complex type, whether declared
// inline or by a `type="prefix:Name"` reference to a named complexType.
func resolveComplexType(schema *xsd.Schema, elem *xsd.Element) *xsd.ComplexType {
	if elem.ComplexType != nil {
		return elem.ComplexType
	}
	if elem.Type == "" || elem.SimpleType != nil {
		return nil
	}
	local := xsd.StripPrefix(elem.Type)
	if builtinSimpleTypes[local] {
		return nil
	}
	if schema.SimpleTypeByName(local) != nil {
		return nil
	}
	return schema.ComplexTypeByName(local)
}

func processComplexType(m *Model, schema *xsd.Schema, ct *xsd.ComplexType, table *Table, cc *choiceContext) {
	if ct.ComplexContent != nil && ct.ComplexContent.Extension != nil {
		ext := ct.ComplexContent.Extension
		if base := schema.ComplexTypeByName(xsd.StripPrefix(ext.Base)); base != nil {
			processComplexType(m, schema, base, table, cc)
		}
		for _, attr := range ext.Attributes {
			addAttributeColumn(table, attr)
		}
		if ext.Sequence != nil {
			walkParticle(m, schema, ext.Sequence, table, cc, false)
		}
		return
	}

	for _, attr := range ct.Attributes {
		addAttributeColumn(table, attr)
	}
	if ct.SimpleContent != nil {
		// simpleContent/extension: attributes only, already added; the text
		// value itself has no element name to bind to and is left to the
		// importer's generic text-binding fallback when a column shares the
		// element's own local name (rare with simpleContent, so no column is
		// pre-declared here).
	}
	if ct.Sequence != nil {
		walkParticle(m, schema, ct.Sequence, table, cc, false)
	}
	if ct.All != nil {
		walkParticle(m, schema, ct.All, table, cc, false)
	}
	if ct.Choice != nil {
		table.AddColumn("ChoiceOption", "NVARCHAR(64)", true)
		walkParticle(m, schema, ct.Choice, table, cc, true)
	}
}

// walkParticle dispatches over the three XSD compositors (sequence/all/
// choice) as the tagged-variant single walk function DESIGN NOTES asks
// for: the nested-particle fields of xsd.Particle are the "variants", and
// this function is the one place that understands all three.
func walkParticle(m *Model, schema *xsd.Schema, p *xsd.Particle, table *Table, parentCC *choiceContext, inChoice bool) {
	cc := parentCC
	if inChoice {
		cc = &choiceContext{active: true}
	}
	for i := range p.Elements {
		processChildElement(m, schema, &p.Elements[i], table, cc)
	}
	for i := range p.Sequences {
		walkParticle(m, schema, &p.Sequences[i], table, cc, false)
	}
	for i := range p.Alls {
		walkParticle(m, schema, &p.Alls[i], table, cc, false)
	}
	for i := range p.Choices {
		table.AddColumn("ChoiceOption", "NVARCHAR(64)", true)
		walkParticle(m, schema, &p.Choices[i], table, cc, true)
	}
}

// processChildElement implements §4.3's per-child-element rule: a
// repeatable or non-simple child becomes its own table; otherwise it
// becomes a column on the current table.
func processChildElement(m *Model, schema *xsd.Schema, elem *xsd.Element, table *Table, cc *choiceContext) {
	inChoice := cc != nil && cc.active
	simple, sqlType, checks, baseType := resolveSimple(schema, elem)

	if elem.Repeatable() || !simple {
		childName := ident.Compound(table.Name, elem.Name)
		child := m.EnsureTable(childName)
		child.AddForeignKeyColumn(table)
		if inChoice {
			child.AddColumn("ChoiceParentOption", "NVARCHAR(64)", true)
		}
		if simple {
			// Repeatable simple scalar: the value itself still needs a
			// column on the child table (one row per occurrence).
			col := child.AddColumn(ident.TableIdentifier(elem.Name), sqlType, true)
			applyChecks(child, col.Name, checks, col.Nullable)
			if typemap.IsIDType(baseType) {
				child.AddUnique("UQ_"+child.Name+"_"+col.Name, []string{col.Name})
			}
		} else if ct := resolveComplexType(schema, elem); ct != nil {
			processComplexType(m, schema, ct, child, nil)
		}
		addIdentityConstraints(child, elem)
		return
	}

	nullable := elem.MinOccursN() == 0 || inChoice
	colName := ident.TableIdentifier(elem.Name)
	col := table.AddColumn(colName, sqlType, nullable)
	applyChecks(table, col.Name, checks, col.Nullable)
	if typemap.IsIDType(baseType) {
		table.AddUnique("UQ_"+table.Name+"_"+col.Name, []string{col.Name})
	}
}

func applyChecks(table *Table, columnName string, checks []string, nullable bool) {
	for _, tmpl := range checks {
		predicate := fmt.Sprintf(tmpl, "["+columnName+"]")
		table.AddCheck(columnName, predicate, nullable)
	}
}

func addAttributeColumn(table *Table, attr xsd.Attribute) {
	baseType := xsd.StripPrefix(attr.Type)
	mapped := typemap.Map(baseType, nil)
	colName := ident.TableIdentifier(attr.Name)
	col := table.AddColumn(colName, mapped.SQLType, !attr.Required())
	applyChecks(table, col.Name, mapped.Checks, col.Nullable)
	if typemap.IsIDType(baseType) {
		table.AddUnique("UQ_"+table.Name+"_"+col.Name, []string{col.Name})
	}
}

// resolveSimple determines whether an element's content model is simple
// (scalar) and, if so, its SQL type, CHECK predicate templates and base
// type name (for the xs:ID unique-constraint rule).
func resolveSimple(schema *xsd.Schema, elem *xsd.Element) (simple bool, sqlType string, checks []string, baseType string) {
	if resolveComplexType(schema, elem) != nil {
		return false, "", nil, ""
	}
	if elem.SimpleType != nil {
		if elem.SimpleType.Restriction == nil {
			mapped := typemap.Map("unknown", nil)
			return true, mapped.SQLType, mapped.Checks, ""
		}
		baseType = xsd.StripPrefix(elem.SimpleType.Restriction.Base)
		mapped := typemap.Map(baseType, elem.SimpleType.Restriction)
		return true, mapped.SQLType, mapped.Checks, baseType
	}
	if elem.Type == "" {
		// No type info and no inline body: treated as a complex marker
		// element, matching processElementBody's same reasoning.
		return false, "", nil, ""
	}
	local := xsd.StripPrefix(elem.Type)
	if builtinSimpleTypes[local] {
		mapped := typemap.Map(local, nil)
		return true, mapped.SQLType, mapped.Checks, local
	}
	if st := schema.SimpleTypeByName(local); st != nil {
		if st.Restriction == nil {
			mapped := typemap.Map("unknown", nil)
			return true, mapped.SQLType, mapped.Checks, ""
		}
		baseType = xsd.StripPrefix(st.Restriction.Base)
		mapped := typemap.Map(baseType, st.Restriction)
		return true, mapped.SQLType, mapped.Checks, baseType
	}
	// Unknown named type: fall back to the generic string mapping rather
	// than failing model build over one unresolved type reference.
	mapped := typemap.Map("unknown", nil)
	return true, mapped.SQLType, mapped.Checks, ""
}

// addIdentityConstraints walks the element's own <xs:key>/<xs:unique>
// declarations (read directly off the parsed tree — Go has no CLR-style
// reflection to "discover" these, so this is already the native
// schema-API surface the design notes ask implementers to prefer) and adds
// one UniqueConstraint per constraint whose field names all map to
// existing columns on the table.
func addIdentityConstraints(table *Table, elem *xsd.Element) {
	for _, c := range append(append([]xsd.Constraint{}, elem.Keys...), elem.Uniques...) {
		fields := c.FieldNames()
		if len(fields) == 0 {
			continue
		}
		var cols []string
		for _, f := range fields {
			colName := ident.TableIdentifier(f)
			if table.HasColumn(colName) {
				cols = append(cols, colName)
			}
		}
		if len(cols) != len(fields) {
			continue
		}
		table.AddUnique("UQ_"+table.Name+"_"+strings.Join(cols, "_"), cols)
	}
}
