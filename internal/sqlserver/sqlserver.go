// Package sqlserver opens the one database/sql connection this engine
// needs and exposes the administrative queries the DDL adjuncts use. It
// mirrors database/mssql/database.go's sql.Open("sqlserver", dsn) shape,
// scaled down to this engine's single-dialect scope.
package sqlserver

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
)

// Open connects to SQL Server using a connection string already in the
// driver's expected form (either an ADO-style key=value string or a
// sqlserver:// URL); this engine does not assemble the DSN itself, since
// §6 names a single `connection` flag rather than decomposed host/user/
// password flags.
func Open(connection string) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connection)
	if err != nil {
		return nil, fmt.Errorf("sqlserver: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlserver: ping: %w", err)
	}
	return db, nil
}

// TableExists reports whether schema.table is a user table, per sys.tables
// — the same administrative catalog the teacher's dumpTableDDL path reads.
func TableExists(db *sql.DB, schema, table string) (bool, error) {
	row := db.QueryRow(
		`SELECT COUNT(1) FROM sys.tables t
		 JOIN sys.schemas s ON s.schema_id = t.schema_id
		 WHERE s.name = @p1 AND t.name = @p2`, schema, table)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("sqlserver: TableExists: %w", err)
	}
	return n > 0, nil
}

// ForeignKeyExists reports whether a named foreign key constraint already
// exists, consulting sys.foreign_keys as named in §6's SQL dialect note.
func ForeignKeyExists(db *sql.DB, name string) (bool, error) {
	row := db.QueryRow(`SELECT COUNT(1) FROM sys.foreign_keys WHERE name = @p1`, name)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("sqlserver: ForeignKeyExists: %w", err)
	}
	return n > 0, nil
}
