package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dbioutprop/xsdimport/internal/model"
	"github.com/dbioutprop/xsdimport/internal/resolve"
)

func buildTestModel() *model.Model {
	m := model.New("dbo")

	root := m.EnsureTable("Root")
	root.AddColumn("Name", "NVARCHAR(100)", false)

	item := m.EnsureTable("RootItem")
	item.AddForeignKeyColumn(root)
	item.AddColumn("Value", "NVARCHAR(50)", false)

	return m
}

func writeTempXML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.xml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportFile_InsertsRootAndRepeatedChildren(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := buildTestModel()
	resolver := resolve.New(m)

	xml := `<Root><Name>Foo</Name><Item><Value>A</Value></Item><Item><Value>B</Value></Item></Root>`
	path := writeTempXML(t, xml)

	mock.ExpectBegin()

	mock.ExpectQuery(`SELECT TOP 1 \[RootId\] FROM \[dbo\]\.\[Root\]`).
		WillReturnRows(sqlmock.NewRows([]string{"RootId"}))
	mock.ExpectQuery(`INSERT INTO \[dbo\]\.\[Root\].*SCOPE_IDENTITY`).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))

	mock.ExpectQuery(`SELECT TOP 1 \[RootItemId\] FROM \[dbo\]\.\[RootItem\]`).
		WillReturnRows(sqlmock.NewRows([]string{"RootItemId"}))
	mock.ExpectQuery(`INSERT INTO \[dbo\]\.\[RootItem\].*SCOPE_IDENTITY`).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(10))

	mock.ExpectQuery(`SELECT TOP 1 \[RootItemId\] FROM \[dbo\]\.\[RootItem\]`).
		WillReturnRows(sqlmock.NewRows([]string{"RootItemId"}))
	mock.ExpectQuery(`INSERT INTO \[dbo\]\.\[RootItem\].*SCOPE_IDENTITY`).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(11))

	mock.ExpectCommit()

	result, err := ImportFile(context.Background(), db, resolver, m, path, nil, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 1, result.PerTable["Root"])
	require.Equal(t, 2, result.PerTable["RootItem"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportFile_IdempotentReimportSkipsDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := buildTestModel()
	resolver := resolve.New(m)

	xml := `<Root><Name>Foo</Name></Root>`
	path := writeTempXML(t, xml)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT TOP 1 \[RootId\] FROM \[dbo\]\.\[Root\]`).
		WillReturnRows(sqlmock.NewRows([]string{"RootId"}).AddRow(7))
	mock.ExpectCommit()

	result, err := ImportFile(context.Background(), db, resolver, m, path, nil, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 0, result.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

// fakeRecorder captures every Event recorded during an ImportFile call so
// tests can assert on Params without a live database to read back.
type fakeRecorder struct {
	events []Event
}

func (r *fakeRecorder) Record(ev Event) { r.events = append(r.events, ev) }

func TestImportFile_RecordsParamsPreviewOnInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := buildTestModel()
	resolver := resolve.New(m)

	xml := `<Root><Name>Foo</Name></Root>`
	path := writeTempXML(t, xml)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT TOP 1 \[RootId\] FROM \[dbo\]\.\[Root\]`).
		WillReturnRows(sqlmock.NewRows([]string{"RootId"}))
	mock.ExpectQuery(`INSERT INTO \[dbo\]\.\[Root\].*SCOPE_IDENTITY`).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))
	mock.ExpectCommit()

	rec := &fakeRecorder{}
	_, err = ImportFile(context.Background(), db, resolver, m, path, rec, DefaultOptions())
	require.NoError(t, err)

	var insertEvent *Event
	for i := range rec.events {
		if rec.events[i].EventKind == "insert" {
			insertEvent = &rec.events[i]
		}
	}
	require.NotNil(t, insertEvent, "expected an insert event")
	require.Contains(t, insertEvent.Params, "Name=Foo")
}

// Guards against the idempotency probe naming its placeholders something
// other than go-mssqldb's positional @p1, @p2, ... convention: sqlmock's
// WillReturnRows matches on the query regex alone, so a wrong parameter
// name in the query text would otherwise pass silently; asserting the exact
// regex (including "@p1") and WithArgs together catches it.
func TestProbeColumns_UsesPositionalParamPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := buildTestModel()
	table := m.TableByName("Root")
	values := map[string]*string{}
	name := "Foo"
	values["Name"] = &name

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT TOP 1 \[RootId\] FROM \[dbo\]\.\[Root\] WHERE \(\[Name\] = @p1 OR \(\[Name\] IS NULL AND @p1 IS NULL\)\)`).
		WithArgs("Foo").
		WillReturnRows(sqlmock.NewRows([]string{"RootId"}))

	tx, err := db.Begin()
	require.NoError(t, err)
	w := &walker{ctx: context.Background(), tx: tx, model: m, opts: DefaultOptions()}

	_, found, err := w.probeColumns(table, values, []string{"Name"})
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsLeafColumnMatch(t *testing.T) {
	m := buildTestModel()
	root := m.TableByName("Root")

	leaf := &Node{Local: "Name", Text: "Foo"}
	require.True(t, isLeafColumnMatch(leaf, root))

	empty := &Node{Local: "Name", Text: "   "}
	require.False(t, isLeafColumnMatch(empty, root))

	withChildren := &Node{Local: "Name", Text: "Foo", Children: []*Node{{Local: "X"}}}
	require.False(t, isLeafColumnMatch(withChildren, root))

	unknownCol := &Node{Local: "Unknown", Text: "Foo"}
	require.False(t, isLeafColumnMatch(unknownCol, root))
}

func TestAllNullableOrIdentity(t *testing.T) {
	m := model.New("dbo")
	t1 := m.EnsureTable("Empty")
	require.True(t, allNullableOrIdentity(t1))

	t2 := m.EnsureTable("WithRequired")
	t2.AddColumn("Name", "NVARCHAR(50)", false)
	require.False(t, allNullableOrIdentity(t2))
}

func TestDefaultForType(t *testing.T) {
	require.Equal(t, "", defaultForType("NVARCHAR(100)"))
	require.Equal(t, "0", defaultForType("BIT"))
	require.Equal(t, "1900-01-01", defaultForType("DATE"))
	require.Equal(t, "0", defaultForType("INT"))
	require.Equal(t, "0", defaultForType("DECIMAL(18,2)"))
}
