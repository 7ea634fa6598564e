// Package xsd holds the XSD parse-tree types decoded via encoding/xml, and
// the small set of accessors the model builder needs: global elements,
// complex/simple type lookups by QName, and identity-constraint fields.
package xsd

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Schema is the root <xs:schema> element of one XSD document.
type Schema struct {
	XMLName         xml.Name      `xml:"schema"`
	TargetNamespace string        `xml:"targetNamespace,attr"`
	Elements        []Element     `xml:"element"`
	ComplexTypes    []ComplexType `xml:"complexType"`
	SimpleTypes     []SimpleType  `xml:"simpleType"`
	Imports         []Import      `xml:"import"`
	Includes        []Include     `xml:"include"`
}

type Import struct {
	Namespace      string `xml:"namespace,attr"`
	SchemaLocation string `xml:"schemaLocation,attr"`
}

type Include struct {
	SchemaLocation string `xml:"schemaLocation,attr"`
}

// Element is an <xs:element>, either global (has Name) or a particle member
// (has Ref) inside a sequence/choice/all.
type Element struct {
	Name        string       `xml:"name,attr"`
	Ref         string       `xml:"ref,attr"`
	Type        string       `xml:"type,attr"`
	MinOccurs   string       `xml:"minOccurs,attr"`
	MaxOccurs   string       `xml:"maxOccurs,attr"`
	ComplexType *ComplexType `xml:"complexType"`
	SimpleType  *SimpleType  `xml:"simpleType"`
	Keys        []Constraint `xml:"key"`
	Uniques     []Constraint `xml:"unique"`
}

// MinOccursN returns the numeric minOccurs, defaulting to 1 per the XSD spec.
func (e Element) MinOccursN() int {
	if e.MinOccurs == "" {
		return 1
	}
	n, err := strconv.Atoi(e.MinOccurs)
	if err != nil {
		return 1
	}
	return n
}

// MaxOccursN returns the numeric maxOccurs; "unbounded" becomes -1.
func (e Element) MaxOccursN() int {
	switch e.MaxOccurs {
	case "":
		return 1
	case "unbounded":
		return -1
	}
	n, err := strconv.Atoi(e.MaxOccurs)
	if err != nil {
		return 1
	}
	return n
}

// Repeatable reports whether the element can occur more than once.
func (e Element) Repeatable() bool {
	m := e.MaxOccursN()
	return m == -1 || m > 1
}

type ComplexType struct {
	Name          string         `xml:"name,attr"`
	Sequence      *Particle      `xml:"sequence"`
	All           *Particle      `xml:"all"`
	Choice        *Particle      `xml:"choice"`
	SimpleContent *SimpleContent `xml:"simpleContent"`
	ComplexContent *ComplexContent `xml:"complexContent"`
	Attributes    []Attribute    `xml:"attribute"`
}

// ComplexContent handles <xs:extension base="..."> re-basing; fields are
// merged onto the base type's fields by the model builder.
type ComplexContent struct {
	Extension *Extension `xml:"extension"`
}

type Extension struct {
	Base       string      `xml:"base,attr"`
	Sequence   *Particle   `xml:"sequence"`
	Attributes []Attribute `xml:"attribute"`
}

// Particle represents a <sequence>, <all> or <choice> compositor: its
// member elements plus any nested compositors. The model builder walks
// every populated list of a Particle in one function (a tagged-variant
// walk, per DESIGN NOTES "dynamic dispatch on XSD particle kinds").
type Particle struct {
	Elements  []Element  `xml:"element"`
	Sequences []Particle `xml:"sequence"`
	Choices   []Particle `xml:"choice"`
	Alls      []Particle `xml:"all"`
}

type SimpleContent struct {
	Extension   *SCExtension `xml:"extension"`
	Restriction *Restriction `xml:"restriction"`
}

type SCExtension struct {
	Base       string      `xml:"base,attr"`
	Attributes []Attribute `xml:"attribute"`
}

type Attribute struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	Use  string `xml:"use,attr"`
}

func (a Attribute) Required() bool {
	return a.Use == "required"
}

type SimpleType struct {
	Name        string       `xml:"name,attr"`
	Restriction *Restriction `xml:"restriction"`
}

type Restriction struct {
	Base           string        `xml:"base,attr"`
	Length         *FacetValue   `xml:"length"`
	MinLength      *FacetValue   `xml:"minLength"`
	MaxLength      *FacetValue   `xml:"maxLength"`
	TotalDigits    *FacetValue   `xml:"totalDigits"`
	FractionDigits *FacetValue   `xml:"fractionDigits"`
	MinInclusive   *FacetValue   `xml:"minInclusive"`
	MaxInclusive   *FacetValue   `xml:"maxInclusive"`
	MinExclusive   *FacetValue   `xml:"minExclusive"`
	MaxExclusive   *FacetValue   `xml:"maxExclusive"`
	Enumerations   []FacetValue  `xml:"enumeration"`
}

type FacetValue struct {
	Value string `xml:"value,attr"`
}

// Constraint is an <xs:key> or <xs:unique> identity constraint.
type Constraint struct {
	Name     string `xml:"name,attr"`
	Selector struct {
		XPath string `xml:"xpath,attr"`
	} `xml:"selector"`
	Fields []struct {
		XPath string `xml:"xpath,attr"`
	} `xml:"field"`
}

// FieldNames returns the last path step of every <field> XPath, with any
// namespace prefix removed, which is the only part the model builder needs
// to map onto a column name.
func (c Constraint) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		step := f.XPath
		if i := strings.LastIndexAny(step, "/@"); i >= 0 {
			step = step[i+1:]
		}
		step = StripPrefix(strings.TrimPrefix(step, "@"))
		if step != "" {
			names = append(names, step)
		}
	}
	return names
}

// Parse decodes one XSD document from disk.
func Parse(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xsd: open %s: %w", path, err)
	}
	defer f.Close()

	var s Schema
	dec := xml.NewDecoder(f)
	dec.Strict = false
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("xsd: decode %s: %w", path, err)
	}
	return &s, nil
}

// QName is a namespace-qualified local name, used as a map key for type and
// element lookups.
type QName struct {
	Namespace string
	Local     string
}

func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return q.Namespace + "#" + q.Local
}

// StripPrefix removes a leading "ns:" prefix from an XSD QName-like
// attribute value (e.g. type="xs:string" -> "string"). The prefix-to-
// namespace binding itself is not resolved here; callers that need the
// true namespace use ComplexTypeByName/SimpleTypeByName against the local
// part only, which is sufficient for the single-schema-file model this
// engine targets.
func StripPrefix(qn string) string {
	if i := strings.IndexByte(qn, ':'); i >= 0 {
		return qn[i+1:]
	}
	return qn
}

// ComplexTypeByName looks up a named complex type declared at schema level.
func (s *Schema) ComplexTypeByName(name string) *ComplexType {
	for i := range s.ComplexTypes {
		if s.ComplexTypes[i].Name == name {
			return &s.ComplexTypes[i]
		}
	}
	return nil
}

// SimpleTypeByName looks up a named simple type declared at schema level.
func (s *Schema) SimpleTypeByName(name string) *SimpleType {
	for i := range s.SimpleTypes {
		if s.SimpleTypes[i].Name == name {
			return &s.SimpleTypes[i]
		}
	}
	return nil
}
