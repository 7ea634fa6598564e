package ddl

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestApplyClear_SkipsTablesThatDoNotExist(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := s1Model(t)

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.tables`).
		WithArgs("xsd", "RootItem").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))
	mock.ExpectExec(`DELETE FROM \[xsd\]\.\[RootItem\];`).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.tables`).
		WithArgs("xsd", "Root").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(0))

	require.NoError(t, ApplyClear(db, m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDrop_SkipsForeignKeysAndTablesThatDoNotExist(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := s1Model(t)

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.foreign_keys`).
		WithArgs("FK_RootItem_Root").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(0))

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.tables`).
		WithArgs("xsd", "RootItem").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))
	mock.ExpectExec(`DROP TABLE \[xsd\]\.\[RootItem\];`).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.tables`).
		WithArgs("xsd", "Root").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))
	mock.ExpectExec(`DROP TABLE \[xsd\]\.\[Root\];`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ApplyDrop(db, m))
	require.NoError(t, mock.ExpectationsWereMet())
}
