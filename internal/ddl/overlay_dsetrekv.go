package ddl

import (
	"fmt"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/model"
)

// dsetrekvOverlay implements the domain overlay described in §9's Open
// Questions: on the table named DSETREKV, every NVARCHAR column whose name
// ends in "DATO" is assumed to hold a fixed yyyyMMdd date string, and gets
// a computed, persisted DATE column alongside it. This is gated behind
// Options.DomainOverlay so the generic emitter carries no DSETREKV-
// specific knowledge by default.
func dsetrekvOverlay(t *model.Table) string {
	if t.Name != "DSETREKV" {
		return ""
	}
	var stmts []string
	for _, c := range t.Columns {
		if !strings.HasSuffix(c.Name, "DATO") || !strings.HasPrefix(c.SQLType, "NVARCHAR") {
			continue
		}
		computedName := c.Name + "_DATE"
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE %s ADD %s AS TRY_CONVERT(DATE, %s, 112) PERSISTED;",
			ident.Qualify(t.Schema, t.Name), ident.Bracket(computedName), ident.Bracket(c.Name)))
	}
	return strings.Join(stmts, "\n")
}
