package sqlserver

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTableExists_ReturnsTrueWhenCountPositive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.tables`).
		WithArgs("xsd", "Root").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))

	ok, err := TableExists(db, "xsd", "Root")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableExists_ReturnsFalseWhenCountZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.tables`).
		WithArgs("xsd", "Missing").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(0))

	ok, err := TableExists(db, "xsd", "Missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestForeignKeyExists_ReturnsTrueWhenPresent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.foreign_keys`).
		WithArgs("FK_RootItem_Root").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))

	ok, err := ForeignKeyExists(db, "FK_RootItem_Root")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestForeignKeyExists_PropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM sys\.foreign_keys`).
		WithArgs("FK_Missing").
		WillReturnError(sqlErr)

	_, err = ForeignKeyExists(db, "FK_Missing")
	require.Error(t, err)
}

var sqlErr = &mockDriverError{"connection reset"}

type mockDriverError struct{ msg string }

func (e *mockDriverError) Error() string { return e.msg }
