// Package typemap maps XSD simple types and facets to SQL Server column
// types and CHECK-constraint predicates.
package typemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/xsd"
)

var stringBaseTypes = map[string]bool{
	"string": true, "normalizedString": true, "token": true,
	"Name": true, "NCName": true, "ID": true, "IDREF": true,
	"language": true, "anyURI": true,
}

var integerBaseTypes = map[string]string{
	"integer":        "BIGINT",
	"short":          "SMALLINT",
	"byte":           "TINYINT",
	"unsignedByte":   "TINYINT",
	"unsignedShort":  "INT",
	"unsignedInt":    "INT",
	"long":           "BIGINT",
	"int":            "INT",
	"nonNegativeInteger": "BIGINT",
	"positiveInteger":    "BIGINT",
}

// Mapped is the result of mapping one XSD simple type (with its facets) to
// a SQL column type and the facet-derived CHECK predicates. Predicates are
// unwrapped — the model builder wraps them with "IS NULL OR (...)" once it
// knows whether the owning column is nullable.
type Mapped struct {
	SQLType string
	Checks  []string
}

// Map resolves one base type name (already stripped of its namespace
// prefix, e.g. "string" not "xs:string") plus an optional facet restriction
// into a SQL Server type and its CHECK predicates.
func Map(baseType string, r *xsd.Restriction) Mapped {
	switch {
	case stringBaseTypes[baseType]:
		return mapString(baseType, r)
	case baseType == "decimal":
		return mapDecimal(r)
	case integerBaseTypes[baseType] != "":
		return Mapped{SQLType: integerBaseTypes[baseType], Checks: numericChecks("", r)}
	case baseType == "boolean":
		return Mapped{SQLType: "BIT"}
	case baseType == "float":
		return Mapped{SQLType: "REAL", Checks: numericChecks("", r)}
	case baseType == "double":
		return Mapped{SQLType: "FLOAT", Checks: numericChecks("", r)}
	case baseType == "date":
		return Mapped{SQLType: "DATE", Checks: numericChecks("", r)}
	case baseType == "dateTime":
		return Mapped{SQLType: "DATETIME2", Checks: numericChecks("", r)}
	case baseType == "time":
		return Mapped{SQLType: "TIME", Checks: numericChecks("", r)}
	case baseType == "duration":
		return Mapped{SQLType: "NVARCHAR(64)"}
	default:
		return Mapped{SQLType: "NVARCHAR(255)"}
	}
}

func mapString(baseType string, r *xsd.Restriction) Mapped {
	length := 0
	switch {
	case r != nil && r.Length != nil:
		length = atoiDefault(r.Length.Value, 0)
	case r != nil && r.MaxLength != nil:
		length = atoiDefault(r.MaxLength.Value, 0)
	}

	var sqlType string
	switch {
	case baseType == "anyURI" && length == 0:
		sqlType = "NVARCHAR(512)"
	case length == 0:
		sqlType = "NVARCHAR(255)"
	case length > 4000:
		sqlType = "NVARCHAR(MAX)"
	default:
		sqlType = fmt.Sprintf("NVARCHAR(%d)", length)
	}

	var checks []string
	if r != nil {
		if r.Length != nil {
			checks = append(checks, fmt.Sprintf("LEN(%%s) = %s", r.Length.Value))
		}
		if r.MinLength != nil {
			checks = append(checks, fmt.Sprintf("LEN(%%s) >= %s", r.MinLength.Value))
		}
		if r.MaxLength != nil && sqlType == "NVARCHAR(MAX)" {
			checks = append(checks, fmt.Sprintf("LEN(%%s) <= %s", r.MaxLength.Value))
		}
	}
	return Mapped{SQLType: sqlType, Checks: checks}
}

func mapDecimal(r *xsd.Restriction) Mapped {
	precision, scale := 18, 6
	haveScale, haveTotal := false, false
	if r != nil {
		if r.FractionDigits != nil {
			scale = atoiDefault(r.FractionDigits.Value, scale)
			haveScale = true
		}
		if r.TotalDigits != nil {
			precision = atoiDefault(r.TotalDigits.Value, precision)
			haveTotal = true
		}
	}
	if haveScale && !haveTotal {
		precision = clamp(scale+10, 1, 38)
	}
	precision = clamp(precision, 1, 38)
	scale = clamp(scale, 0, precision)

	return Mapped{
		SQLType: fmt.Sprintf("DECIMAL(%d,%d)", precision, scale),
		Checks:  numericChecks("", r),
	}
}

// numericChecks renders min/maxInclusive|Exclusive bounds. placeholder is
// left as "%s" for the caller (model builder) to substitute the bracketed
// column reference, matching the string-facet checks' convention above.
func numericChecks(_ string, r *xsd.Restriction) []string {
	if r == nil {
		return nil
	}
	var checks []string
	if r.MinInclusive != nil {
		checks = append(checks, fmt.Sprintf("%%s >= %s", r.MinInclusive.Value))
	}
	if r.MinExclusive != nil {
		checks = append(checks, fmt.Sprintf("%%s > %s", r.MinExclusive.Value))
	}
	if r.MaxInclusive != nil {
		checks = append(checks, fmt.Sprintf("%%s <= %s", r.MaxInclusive.Value))
	}
	if r.MaxExclusive != nil {
		checks = append(checks, fmt.Sprintf("%%s < %s", r.MaxExclusive.Value))
	}
	return checks
}

func atoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// IsIDType reports whether the base type is xs:ID, which drives the
// single-column UNIQUE constraint rule in the model builder.
func IsIDType(baseType string) bool {
	return baseType == "ID"
}
