package xsd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const s1XSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:test">
  <xs:element name="Root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="Item" minOccurs="0" maxOccurs="unbounded">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="Code" type="xs:string"/>
              <xs:element name="Amount" type="xs:decimal"/>
            </xs:sequence>
            <xs:attribute name="id" type="xs:ID" use="required"/>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func writeXSD(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.xsd")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParse_S1MinimalSchema(t *testing.T) {
	path := writeXSD(t, s1XSD)
	schema, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, "urn:test", schema.TargetNamespace)
	require.Len(t, schema.Elements, 1)

	root := schema.Elements[0]
	require.Equal(t, "Root", root.Name)
	require.NotNil(t, root.ComplexType)

	item := root.ComplexType.Sequence.Elements[0]
	require.Equal(t, "Item", item.Name)
	require.True(t, item.Repeatable())
	require.Equal(t, 0, item.MinOccursN())
	require.Len(t, item.ComplexType.Attributes, 1)
	require.Equal(t, "id", item.ComplexType.Attributes[0].Name)
	require.True(t, item.ComplexType.Attributes[0].Required())
}

func TestElement_MaxOccursUnboundedIsMinusOne(t *testing.T) {
	e := Element{MaxOccurs: "unbounded"}
	require.Equal(t, -1, e.MaxOccursN())
	require.True(t, e.Repeatable())
}

func TestStripPrefix(t *testing.T) {
	require.Equal(t, "string", StripPrefix("xs:string"))
	require.Equal(t, "string", StripPrefix("string"))
}

func TestConstraint_FieldNames(t *testing.T) {
	c := Constraint{}
	c.Fields = append(c.Fields, struct {
		XPath string `xml:"xpath,attr"`
	}{XPath: "@id"})
	c.Fields = append(c.Fields, struct {
		XPath string `xml:"xpath,attr"`
	}{XPath: "ns:Code"})
	require.Equal(t, []string{"id", "Code"}, c.FieldNames())
}
