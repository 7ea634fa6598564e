// Package resolve implements the §4.5 table resolver: mapping an XML
// element's (namespace, localName, parent-table-context) to the model
// table that should hold its row.
package resolve

import (
	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/model"
)

// Resolver answers table-lookup questions against one immutable Model. It
// holds no state of its own beyond a namespace-aware index built once at
// construction, so it is safe for any number of importer goroutines to
// share (§3's "the importer reads it concurrently from any number of
// workers").
type Resolver struct {
	m        *model.Model
	bindings map[bindingKey]string
}

type bindingKey struct {
	namespace string
	local     string
}

// New builds a Resolver over a built Model.
func New(m *model.Model) *Resolver {
	r := &Resolver{m: m, bindings: make(map[bindingKey]string, len(m.Bindings))}
	for _, b := range m.Bindings {
		r.bindings[bindingKey{b.Namespace, b.LocalName}] = b.Table
	}
	return r
}

// Resolve implements the four-step lookup in §4.5, including the
// direct-name-vs-compound-name preference rule: when both exist, the one
// carrying a "<parentTable>Id" column wins, disambiguating elements that
// legitimately appear under more than one parent.
func (r *Resolver) Resolve(namespace, localName, parentTable string) (*model.Table, bool) {
	if tableName, ok := r.bindings[bindingKey{namespace, localName}]; ok {
		if t := r.m.TableByName(tableName); t != nil {
			return t, true
		}
	}

	direct := r.m.TableByName(ident.TableIdentifier(localName))
	var compound *model.Table
	if parentTable != "" {
		compound = r.m.TableByName(ident.Compound(parentTable, localName))
	}

	switch {
	case direct != nil && compound != nil:
		if parentTable != "" && compound.HasColumn(parentTable+"Id") {
			return compound, true
		}
		return direct, true
	case direct != nil:
		return direct, true
	case compound != nil:
		return compound, true
	default:
		return nil, false
	}
}
