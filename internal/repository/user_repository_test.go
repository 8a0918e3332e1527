package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "created_at", "updated_at", "deleted_at", "is_deleted",
	"name", "username", "email", "hashed_password", "is_superuser"}

func TestUserRepo_FindActiveByLogin_EmailOrUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE is_deleted = 0 AND email = ?")).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, now, nil, nil, false, "Ann", "ann", "ann@example.com", "$2a$hash", true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE is_deleted = 0 AND username = ?")).
		WithArgs("ann").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, now, nil, nil, false, "Ann", "ann", "ann@example.com", "$2a$hash", true))

	u, err := repo.FindActiveByLogin(context.Background(), " Ann@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.True(t, u.IsSuperuser)

	u, err = repo.FindActiveByLogin(context.Background(), "ann")
	require.NoError(t, err)
	assert.Equal(t, "$2a$hash", u.HashedPassword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_FindActiveByLogin_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows(userCols))

	_, err = NewUserRepo(db).FindActiveByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
