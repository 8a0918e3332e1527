package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/site-inspection-api/internal/model"
)

// UserRepo reads and writes the users table.
type UserRepo struct {
	*CRUD[model.User, *model.User]
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{CRUD: NewCRUD[model.User](db, UsersTable)}
}

// FindActiveByLogin resolves a login identifier.  A value containing "@" is
// matched against email, anything else against username.  Deleted users
// are never returned.
func (r *UserRepo) FindActiveByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return r.Get(ctx, Eq("email", strings.ToLower(login)))
	}
	return r.Get(ctx, Eq("username", login))
}

// GetActiveByUsername fetches a live user by exact username.
func (r *UserRepo) GetActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.Get(ctx, Eq("username", username))
}

// CreateUser inserts u; the caller supplies the bcrypt hash.  Duplicate
// username or email yields ErrDuplicate.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.Create(ctx, u)
}
