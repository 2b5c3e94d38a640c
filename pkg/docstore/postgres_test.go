package docstore

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewPostgres(sqlxDB), mock, func() { db.Close() }
}

func TestPostgresGet(t *testing.T) {
	store, mock, cleanup := newMockPostgres(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "data"}).AddRow("c1", []byte(`{"grado":"1ro básica","paralelo":"A"}`))
	mock.ExpectQuery("SELECT id, data FROM documents WHERE collection = \\$1 AND id = \\$2").
		WithArgs("Cursos", "c1").
		WillReturnRows(rows)

	doc, err := store.Get(context.Background(), "Cursos", "c1")
	require.NoError(t, err)
	assert.Equal(t, "A", doc.Data["paralelo"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	store, mock, cleanup := newMockPostgres(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, data FROM documents").WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "Cursos", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresSetMergeUsesJSONBConcat(t *testing.T) {
	store, mock, cleanup := newMockPostgres(t)
	defer cleanup()

	mock.ExpectExec("ON CONFLICT \\(collection, id\\) DO UPDATE SET data = documents.data \\|\\| EXCLUDED.data").
		WithArgs("Cursos/c1/Tareas/t1/Estados", "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Set(context.Background(), "Cursos/c1/Tareas/t1/Estados", "s1", Data{"estudianteNombre": "Ana"}, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingRow(t *testing.T) {
	store, mock, cleanup := newMockPostgres(t)
	defer cleanup()

	mock.ExpectExec("UPDATE documents SET data = data \\|\\| \\$3::jsonb").
		WithArgs("Asignaturas", "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), "Asignaturas", "a1", Data{"nombre": "Física"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresAddGeneratesID(t *testing.T) {
	store, mock, cleanup := newMockPostgres(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO documents \\(collection, id, data\\)").
		WithArgs("Padres", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Add(context.Background(), "Padres", Data{"nombre": "Rosa"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestPostgresQueryBuildsFilters(t *testing.T) {
	store, mock, cleanup := newMockPostgres(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow("p1", []byte(`{"nombre":"Maria"}`)).
		AddRow("p2", []byte(`{"nombre":"Mario"}`))
	mock.ExpectQuery(`WHERE collection = \$1 AND data @> \$2::jsonb AND \(data->>\$3\) COLLATE "C" >= \$4 AND \(data->>\$5\) COLLATE "C" < \$6 ORDER BY \(data->>\$7\) COLLATE "C", id LIMIT \$8`).
		WithArgs("Padres", `{"activo":true}`, "nombre", "Mar", "nombre", PrefixUpper("Mar"), "nombre", 10).
		WillReturnRows(rows)

	q := Collection("Padres").Where("activo", true).Range("nombre", "Mar", PrefixUpper("Mar")).Ordered("nombre").Take(10)
	docs, err := store.Query(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "p2", docs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRangeRequiresString(t *testing.T) {
	_, _, err := buildSelect(Query{Collection: "x", Filters: []Filter{{Field: "n", Op: OpGTE, Value: 3}}})
	assert.Error(t, err)
}
