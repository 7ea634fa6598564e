package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dbioutprop/xsdimport/internal/model"
)

// probeColumns runs the NULL-safe equality probe used by both the unique-
// constraint probes and the full-row duplicate probe (§4.6 step 7): same
// predicate shape, just a different column set.
func (w *walker) probeColumns(table *model.Table, values map[string]*string, columns []string) (int64, bool, error) {
	if len(columns) == 0 {
		return 0, false, nil
	}

	var preds []string
	var args []interface{}
	for _, c := range columns {
		v := values[c]
		if v == nil {
			preds = append(preds, fmt.Sprintf("[%s] IS NULL", c))
			continue
		}
		param := fmt.Sprintf("@p%d", len(args)+1)
		preds = append(preds, fmt.Sprintf("([%s] = %s OR ([%s] IS NULL AND %s IS NULL))", c, param, c, param))
		args = append(args, *v)
	}

	query := fmt.Sprintf("SELECT TOP 1 [%s] FROM [%s].[%s] WHERE %s",
		table.PrimaryKeyColumn(), table.Schema, table.Name, strings.Join(preds, " AND "))

	row := w.tx.QueryRowContext(w.ctx, query, args...)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("importer: probe %s: %w", table.Name, err)
	}
	return id, true, nil
}

// insertRow builds and executes a parameterized INSERT over every bound
// column, NULL-valued columns included, then reads back the generated
// identity via SCOPE_IDENTITY(), per §4.6 step 8.
func (w *walker) insertRow(table *model.Table, values map[string]*string) (int64, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}

	if len(cols) == 0 {
		return w.insertDefaultRow(table)
	}

	var colList, paramList []string
	var args []interface{}
	for i, c := range cols {
		param := fmt.Sprintf("@p%d", i+1)
		colList = append(colList, "["+c+"]")
		paramList = append(paramList, param)
		if v := values[c]; v != nil {
			args = append(args, *v)
		} else {
			args = append(args, nil)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO [%s].[%s] (%s) VALUES (%s); SELECT CAST(SCOPE_IDENTITY() AS INT);",
		table.Schema, table.Name, strings.Join(colList, ", "), strings.Join(paramList, ", "))

	row := w.tx.QueryRowContext(w.ctx, query, args...)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("importer: insert %s: %w", table.Name, err)
	}
	return id, nil
}

// insertDefaultRow handles §4.6 step 9's default-row special case: nothing
// bound, no parent, every non-identity column nullable or identity.
func (w *walker) insertDefaultRow(table *model.Table) (int64, error) {
	query := fmt.Sprintf(
		"INSERT INTO [%s].[%s] DEFAULT VALUES; SELECT CAST(SCOPE_IDENTITY() AS INT);",
		table.Schema, table.Name)

	row := w.tx.QueryRowContext(w.ctx, query)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("importer: default-row insert %s: %w", table.Name, err)
	}
	return id, nil
}

// updateChoiceOption implements §4.6 step 10: right before recursing into a
// child of a choice-bearing table, set that table's ChoiceOption column to
// the child's local name. Last-child-wins when a table has more than one
// eligible child, since each recursion issues its own UPDATE.
func (w *walker) updateChoiceOption(table *model.Table, id int64, childLocal string) error {
	query := fmt.Sprintf("UPDATE [%s].[%s] SET [ChoiceOption] = @p1 WHERE [%s] = @p2",
		table.Schema, table.Name, table.PrimaryKeyColumn())
	_, err := w.tx.ExecContext(w.ctx, query, childLocal, id)
	if err != nil {
		return fmt.Errorf("importer: update ChoiceOption on %s: %w", table.Name, err)
	}
	return nil
}
