package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/site-inspection-api/internal/model"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var categoryCols = []string{"id", "created_at", "updated_at", "deleted_at", "is_deleted", "name", "description"}

func newCategories(t *testing.T) (*CRUD[model.Category, *model.Category], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCRUD[model.Category](db, CategoriesTable).WithClock(func() time.Time { return fixedNow }), mock
}

func TestCRUD_Exists_FiltersDeleted(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM categories WHERE is_deleted = 0 AND name = ?)")).
		WithArgs("Walls").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), Eq("name", "Walls"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUD_Create_ReloadsRow(t *testing.T) {
	repo, mock := newCategories(t)
	desc := "outer walls"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories (name, description, created_at) VALUES (?, ?, ?)")).
		WithArgs("Walls", desc, fixedNow).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, created_at, updated_at, deleted_at, is_deleted, name, description FROM categories WHERE is_deleted = 0 AND id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(7, fixedNow, nil, nil, false, "Walls", desc))

	c := &model.Category{Name: "Walls", Description: &desc}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, fixedNow, c.CreatedAt)
	assert.Nil(t, c.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUD_Create_DuplicateMapsToSentinel(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Walls'"})

	err := repo.Create(context.Background(), &model.Category{Name: "Walls"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUD_Create_MissingParentMapsToConflict(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	err := repo.Create(context.Background(), &model.Category{Name: "Walls"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCRUD_Get_NotFound(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectQuery("SELECT .* FROM categories WHERE is_deleted = 0 AND name = \\?").
		WithArgs("Nope").
		WillReturnRows(sqlmock.NewRows(categoryCols))

	_, err := repo.Get(context.Background(), Eq("name", "Nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCRUD_List_CountsAndPages(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM categories WHERE is_deleted = 0")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE is_deleted = 0 ORDER BY id LIMIT ? OFFSET ?")).
		WithArgs(10, 10).
		WillReturnRows(sqlmock.NewRows(categoryCols).
			AddRow(11, fixedNow, nil, nil, false, "A", nil).
			AddRow(12, fixedNow, fixedNow, nil, false, "B", "b"))

	items, total, err := repo.List(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Nil(t, items[0].Description)
	require.NotNil(t, items[1].UpdatedAt)
	assert.Equal(t, "b", *items[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUD_Update_SetsTimestampAndReportsMissing(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE categories SET name = ?, updated_at = ? WHERE is_deleted = 0 AND name = ?")).
		WithArgs("Roofs", fixedNow, "Walls").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE categories SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, repo.Update(ctx, []Change{{Column: "name", Value: "Roofs"}}, Eq("name", "Walls")))
	assert.ErrorIs(t, repo.Update(ctx, nil, Eq("name", "Gone")), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUD_SoftDelete(t *testing.T) {
	repo, mock := newCategories(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE categories SET is_deleted = 1, deleted_at = ? WHERE is_deleted = 0 AND name = ?")).
		WithArgs(fixedNow, "Walls").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), Eq("name", "Walls")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRUD_HardDelete(t *testing.T) {
	repo, mock := newCategories(t)

	assert.Error(t, repo.HardDelete(context.Background()))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.HardDelete(context.Background(), Eq("id", int64(3))))
	assert.NoError(t, mock.ExpectationsWereMet())
}
