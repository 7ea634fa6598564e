// Package ident sanitizes XSD names into SQL Server identifiers.
package ident

import (
	"fmt"
	"strings"
	"unicode"
)

// Sanitize replaces every non-alphanumeric rune with an underscore, trims
// leading/trailing underscores, and guarantees the result is non-empty and
// does not start with a digit.
func Sanitize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "Id"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "N_" + s
	}
	return s
}

// Pascal splits on '_', '-' and space, and upper-cases the first letter of
// each resulting part before concatenating them.
func Pascal(s string) string {
	parts := splitOnAny(s, "_- ")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		if len(r) > 1 {
			b.WriteString(string(r[1:]))
		}
	}
	if b.Len() == 0 {
		return "Id"
	}
	return b.String()
}

func splitOnAny(s, cutset string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(cutset, r)
	})
}

// Qualify renders a bracket-quoted two-part SQL Server name: [schema].[name].
func Qualify(schema, name string) string {
	return fmt.Sprintf("[%s].[%s]", schema, name)
}

// Bracket quotes a single identifier: [name].
func Bracket(name string) string {
	return fmt.Sprintf("[%s]", name)
}

// TableIdentifier derives the PascalCase table identifier for a local XSD
// name, combining Sanitize and Pascal the way the model builder expects
// table names to be produced.
func TableIdentifier(localName string) string {
	return Pascal(Sanitize(localName))
}

// Compound joins a parent and child local name before Pascal-casing, used to
// derive compound child-table names such as Root_Item -> RootItem.
func Compound(parent, child string) string {
	return TableIdentifier(parent + "_" + child)
}
