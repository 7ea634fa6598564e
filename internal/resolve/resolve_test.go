package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbioutprop/xsdimport/internal/model"
)

func TestResolve_DirectNameMatch(t *testing.T) {
	m := model.New("xsd")
	root := m.EnsureTable("Root")
	_ = root

	r := New(m)
	table, ok := r.Resolve("", "Root", "")
	require.True(t, ok)
	require.Equal(t, "Root", table.Name)
}

func TestResolve_CompoundNameMatch(t *testing.T) {
	m := model.New("xsd")
	root := m.EnsureTable("Root")
	item := m.EnsureTable("RootItem")
	item.AddForeignKeyColumn(root)

	r := New(m)
	table, ok := r.Resolve("", "Item", "Root")
	require.True(t, ok)
	require.Equal(t, "RootItem", table.Name)
}

func TestResolve_PrefersCompoundOverDirectWhenBothExistAndOwnParent(t *testing.T) {
	m := model.New("xsd")
	root := m.EnsureTable("Root")
	other := m.EnsureTable("Other")
	// A table legitimately named "Item" exists on its own...
	m.EnsureTable("Item")
	// ...and a compound "OtherItem" exists too, owned by Other.
	compound := m.EnsureTable("OtherItem")
	compound.AddForeignKeyColumn(other)
	_ = root

	r := New(m)
	table, ok := r.Resolve("", "Item", "Other")
	require.True(t, ok)
	require.Equal(t, "OtherItem", table.Name)
}

func TestResolve_FallsBackToDirectWhenCompoundLacksParentFK(t *testing.T) {
	m := model.New("xsd")
	m.EnsureTable("Root")
	m.EnsureTable("Item")
	// "RootItem" exists but does not carry a RootId FK column.
	m.EnsureTable("RootItem")

	r := New(m)
	table, ok := r.Resolve("", "Item", "Root")
	require.True(t, ok)
	require.Equal(t, "Item", table.Name)
}

func TestResolve_BindingTakesPriority(t *testing.T) {
	m := model.New("xsd")
	m.EnsureTable("Root")
	m.EnsureTable("SomethingElse")
	m.AddBinding("urn:test", "Root", "SomethingElse")

	r := New(m)
	table, ok := r.Resolve("urn:test", "Root", "")
	require.True(t, ok)
	require.Equal(t, "SomethingElse", table.Name)
}

func TestResolve_UnknownElementNotFound(t *testing.T) {
	m := model.New("xsd")
	m.EnsureTable("Root")

	r := New(m)
	_, ok := r.Resolve("", "Nonexistent", "")
	require.False(t, ok)
}
