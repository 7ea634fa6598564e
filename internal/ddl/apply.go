package ddl

import (
	"database/sql"
	"fmt"

	"github.com/dbioutprop/xsdimport/internal/ident"
	"github.com/dbioutprop/xsdimport/internal/model"
	"github.com/dbioutprop/xsdimport/internal/sqlserver"
)

// ApplyClear executes schema.clear.sql's DELETE statements directly against
// db, skipping any table sqlserver.TableExists reports as absent. Unlike
// DROP TABLE IF EXISTS, DELETE FROM has no existence guard of its own, so a
// clear run against a partially-provisioned database would otherwise fail
// outright on the first missing table rather than clearing what is there.
func ApplyClear(db *sql.DB, m *model.Model) error {
	for _, t := range childBeforeParent(m) {
		exists, err := sqlserver.TableExists(db, t.Schema, t.Name)
		if err != nil {
			return fmt.Errorf("ddl: check %s: %w", t.Name, err)
		}
		if !exists {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s;", ident.Qualify(t.Schema, t.Name))); err != nil {
			return fmt.Errorf("ddl: clear %s: %w", t.Name, err)
		}
	}
	return nil
}

// ApplyDrop executes schema.drop.sql's statements directly against db,
// skipping foreign keys sqlserver.ForeignKeyExists and tables
// sqlserver.TableExists report as already gone, so a repeated run against a
// partially-cleaned database does not fail partway through.
func ApplyDrop(db *sql.DB, m *model.Model) error {
	for _, t := range m.Tables {
		for _, fk := range t.ForeignKeys {
			exists, err := sqlserver.ForeignKeyExists(db, fk.Name)
			if err != nil {
				return fmt.Errorf("ddl: check %s: %w", fk.Name, err)
			}
			if !exists {
				continue
			}
			query := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
				ident.Qualify(t.Schema, t.Name), ident.Bracket(fk.Name))
			if _, err := db.Exec(query); err != nil {
				return fmt.Errorf("ddl: drop fk %s: %w", fk.Name, err)
			}
		}
	}
	for _, t := range childBeforeParent(m) {
		exists, err := sqlserver.TableExists(db, t.Schema, t.Name)
		if err != nil {
			return fmt.Errorf("ddl: check %s: %w", t.Name, err)
		}
		if !exists {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE %s;", ident.Qualify(t.Schema, t.Name))); err != nil {
			return fmt.Errorf("ddl: drop %s: %w", t.Name, err)
		}
	}
	return nil
}
