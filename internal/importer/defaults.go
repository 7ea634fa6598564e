package importer

import "strings"

// defaultForType returns the type-appropriate backfill default for a
// NOT NULL column missing a bound value, per §4.6 step 6.
func defaultForType(sqlType string) string {
	switch {
	case strings.HasPrefix(sqlType, "NVARCHAR"):
		return ""
	case sqlType == "BIT":
		return "0"
	case sqlType == "DATE":
		return "1900-01-01"
	case sqlType == "DATETIME2":
		return "1900-01-01T00:00:00"
	case sqlType == "TIME":
		return "00:00:00"
	case strings.HasPrefix(sqlType, "DECIMAL"):
		return "0"
	case sqlType == "FLOAT", sqlType == "REAL":
		return "0"
	case sqlType == "INT", sqlType == "BIGINT", sqlType == "SMALLINT", sqlType == "TINYINT":
		return "0"
	default:
		return ""
	}
}
