package typemap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbioutprop/xsdimport/internal/xsd"
)

func TestMap_StringWithLength(t *testing.T) {
	r := &xsd.Restriction{Length: &xsd.FacetValue{Value: "8"}}
	m := Map("string", r)
	require.Equal(t, "NVARCHAR(8)", m.SQLType)
	require.Len(t, m.Checks, 1)
	require.Equal(t, "LEN(%s) = 8", m.Checks[0])
}

func TestMap_StringNoFacetsDefaultsTo255(t *testing.T) {
	m := Map("string", nil)
	require.Equal(t, "NVARCHAR(255)", m.SQLType)
	require.Empty(t, m.Checks)
}

func TestMap_StringOverMaxLengthWidensToMax(t *testing.T) {
	r := &xsd.Restriction{MaxLength: &xsd.FacetValue{Value: "5000"}}
	m := Map("string", r)
	require.Equal(t, "NVARCHAR(MAX)", m.SQLType)
	require.Contains(t, m.Checks, "LEN(%s) <= 5000")
}

func TestMap_Decimal(t *testing.T) {
	r := &xsd.Restriction{TotalDigits: &xsd.FacetValue{Value: "10"}, FractionDigits: &xsd.FacetValue{Value: "2"}}
	m := Map("decimal", r)
	require.Equal(t, "DECIMAL(10,2)", m.SQLType)
}

func TestMap_IntegerBounds(t *testing.T) {
	r := &xsd.Restriction{MinInclusive: &xsd.FacetValue{Value: "0"}, MaxInclusive: &xsd.FacetValue{Value: "100"}}
	m := Map("int", r)
	require.Equal(t, "INT", m.SQLType)
	require.Equal(t, []string{"%s >= 0", "%s <= 100"}, m.Checks)
}

func TestMap_Boolean(t *testing.T) {
	m := Map("boolean", nil)
	require.Equal(t, "BIT", m.SQLType)
}

func TestMap_UnknownFallsBackToString(t *testing.T) {
	m := Map("someUnknownType", nil)
	require.Equal(t, "NVARCHAR(255)", m.SQLType)
}

func TestIsIDType(t *testing.T) {
	require.True(t, IsIDType("ID"))
	require.False(t, IsIDType("string"))
}
