package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbioutprop/xsdimport/internal/xsd"
)

func buildFromXSD(t *testing.T, body string) *Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.xsd")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	schema, err := xsd.Parse(path)
	require.NoError(t, err)
	return Build(schema, "xsd")
}

// S1 — Minimal schema.
func TestBuild_S1MinimalSchema(t *testing.T) {
	m := buildFromXSD(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
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
</xs:schema>`)

	root := m.TableByName("Root")
	require.NotNil(t, root)
	require.Equal(t, "RootId", root.PrimaryKeyColumn())

	item := m.TableByName("RootItem")
	require.NotNil(t, item)
	require.True(t, item.HasColumn("RootId"))
	require.True(t, item.HasColumn("Code"))
	require.True(t, item.HasColumn("Amount"))
	require.True(t, item.HasColumn("Id"))

	require.Len(t, item.ForeignKeys, 1)
	require.Equal(t, "FK_RootItem_Root", item.ForeignKeys[0].Name)

	var idUnique *UniqueConstraint
	for i := range item.Uniques {
		if item.Uniques[i].Columns[0] == "Id" {
			idUnique = &item.Uniques[i]
		}
	}
	require.NotNil(t, idUnique, "expected a UNIQUE constraint on RootItem.Id")
}

// S4 — Choice.
func TestBuild_S4Choice(t *testing.T) {
	m := buildFromXSD(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Root">
    <xs:complexType>
      <xs:choice>
        <xs:element name="A">
          <xs:complexType><xs:sequence><xs:element name="Val" type="xs:string"/></xs:sequence></xs:complexType>
        </xs:element>
        <xs:element name="B">
          <xs:complexType><xs:sequence><xs:element name="Val" type="xs:string"/></xs:sequence></xs:complexType>
        </xs:element>
      </xs:choice>
    </xs:complexType>
  </xs:element>
</xs:schema>`)

	root := m.TableByName("Root")
	require.NotNil(t, root)
	choiceCol := root.Column("ChoiceOption")
	require.NotNil(t, choiceCol)
	require.Equal(t, "NVARCHAR(64)", choiceCol.SQLType)
	require.True(t, choiceCol.Nullable)

	for _, name := range []string{"RootA", "RootB"} {
		child := m.TableByName(name)
		require.NotNil(t, child, "expected table %s", name)
		parentOpt := child.Column("ChoiceParentOption")
		require.NotNil(t, parentOpt)
		require.True(t, parentOpt.Nullable)
		require.True(t, child.HasColumn("Val"))
	}
}

// S5 — Facet to CHECK.
func TestBuild_S5FacetToCheck(t *testing.T) {
	m := buildFromXSD(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="K" minOccurs="0">
          <xs:simpleType>
            <xs:restriction base="xs:string"><xs:length value="8"/></xs:restriction>
          </xs:simpleType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`)

	root := m.TableByName("Root")
	require.NotNil(t, root)
	require.Len(t, root.Checks, 1)
	require.Equal(t, "K", root.Checks[0].ColumnName)
	require.Equal(t, "[K] IS NULL OR (LEN([K]) = 8)", root.Checks[0].Expression)
}
