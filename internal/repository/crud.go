package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/site-inspection-api/internal/model"
)

// Row is satisfied by pointers to entities embedding model.Base.
type Row[T any] interface {
	*T
	Row() *model.Base
}

// Table describes how an entity maps onto its SQL table.  Columns lists the
// business columns (everything except the model.Base columns) and Fields
// returns pointers to the matching struct fields in the same order; the
// pointers serve both as INSERT arguments and as Scan destinations.
type Table[T any] struct {
	Name    string
	Columns []string
	Fields  func(*T) []any
}

// Cond is an equality filter on one column.
type Cond struct {
	Column string
	Value  any
}

// Eq builds a Cond.
func Eq(column string, value any) Cond { return Cond{Column: column, Value: value} }

// Change assigns a new value to one column in a partial update.
type Change struct {
	Column string
	Value  any
}

// CRUD implements create/read/update/delete once for every entity shape.
// All reads and writes except HardDelete only see rows with is_deleted = 0.
type CRUD[T any, P Row[T]] struct {
	db    *sql.DB
	table Table[T]
	now   func() time.Time
}

// NewCRUD binds a table description to a database handle.
func NewCRUD[T any, P Row[T]](db *sql.DB, table Table[T]) *CRUD[T, P] {
	return &CRUD[T, P]{db: db, table: table, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the timestamp source used for created/updated/deleted
// columns.  Intended for tests.
func (r *CRUD[T, P]) WithClock(now func() time.Time) *CRUD[T, P] {
	r.now = now
	return r
}

func (r *CRUD[T, P]) selectList() string {
	cols := append([]string{"id", "created_at", "updated_at", "deleted_at", "is_deleted"}, r.table.Columns...)
	return strings.Join(cols, ", ")
}

func (r *CRUD[T, P]) dest(rec *T) []any {
	b := P(rec).Row()
	return append([]any{&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt, &b.IsDeleted}, r.table.Fields(rec)...)
}

// where renders the WHERE clause.  Column names always come from code,
// never from request input.
func where(liveOnly bool, conds []Cond) (string, []any) {
	var parts []string
	args := make([]any, 0, len(conds))
	if liveOnly {
		parts = append(parts, "is_deleted = 0")
	}
	for _, c := range conds {
		parts = append(parts, c.Column+" = ?")
		args = append(args, c.Value)
	}
	if len(parts) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// Exists reports whether a live row matches every condition.
func (r *CRUD[T, P]) Exists(ctx context.Context, conds ...Cond) (bool, error) {
	w, args := where(true, conds)
	q := "SELECT EXISTS(SELECT 1 FROM " + r.table.Name + w + ")"
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("%s exists: %w", r.table.Name, err)
	}
	return ok, nil
}

// ExistsByID reports whether a live row with the given id exists.
func (r *CRUD[T, P]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.Exists(ctx, Eq("id", id))
}

// Create inserts rec and then reloads it so the caller receives the row as
// stored, including its id and timestamps.
func (r *CRUD[T, P]) Create(ctx context.Context, rec *T) error {
	cols := append(append([]string{}, r.table.Columns...), "created_at")
	args := append(r.table.Fields(rec), r.now())
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	q := "INSERT INTO " + r.table.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s insert: %w", r.table.Name, translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s insert id: %w", r.table.Name, err)
	}

	stored, err := r.Get(ctx, Eq("id", id))
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

// Get returns the first live row matching conds or ErrNotFound.
func (r *CRUD[T, P]) Get(ctx context.Context, conds ...Cond) (*T, error) {
	w, args := where(true, conds)
	q := "SELECT " + r.selectList() + " FROM " + r.table.Name + w + " ORDER BY id LIMIT 1"
	rec := new(T)
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(r.dest(rec)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s get: %w", r.table.Name, err)
	}
	return rec, nil
}

// List returns one page of live rows ordered by id together with the total
// number of live rows matching conds.
func (r *CRUD[T, P]) List(ctx context.Context, offset, limit int, conds ...Cond) ([]*T, int, error) {
	w, args := where(true, conds)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.table.Name+w, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s count: %w", r.table.Name, err)
	}

	q := "SELECT " + r.selectList() + " FROM " + r.table.Name + w + " ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s list: %w", r.table.Name, err)
	}
	defer rows.Close()

	out := make([]*T, 0, limit)
	for rows.Next() {
		rec := new(T)
		if err := rows.Scan(r.dest(rec)...); err != nil {
			return nil, 0, fmt.Errorf("%s scan: %w", r.table.Name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s rows: %w", r.table.Name, err)
	}
	return out, total, nil
}

// Update applies changes to the live rows matching conds and stamps
// updated_at.  It returns ErrNotFound when nothing matched.
func (r *CRUD[T, P]) Update(ctx context.Context, changes []Change, conds ...Cond) error {
	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+1+len(conds))
	for _, ch := range changes {
		sets = append(sets, ch.Column+" = ?")
		args = append(args, ch.Value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now())

	w, wargs := where(true, conds)
	q := "UPDATE " + r.table.Name + " SET " + strings.Join(sets, ", ") + w
	res, err := r.db.ExecContext(ctx, q, append(args, wargs...)...)
	if err != nil {
		return fmt.Errorf("%s update: %w", r.table.Name, translate(err))
	}
	return affected(res)
}

// SoftDelete marks matching live rows deleted.  The rows stay in the table.
func (r *CRUD[T, P]) SoftDelete(ctx context.Context, conds ...Cond) error {
	w, wargs := where(true, conds)
	q := "UPDATE " + r.table.Name + " SET is_deleted = 1, deleted_at = ?" + w
	res, err := r.db.ExecContext(ctx, q, append([]any{r.now()}, wargs...)...)
	if err != nil {
		return fmt.Errorf("%s soft delete: %w", r.table.Name, translate(err))
	}
	return affected(res)
}

// HardDelete physically removes matching rows, deleted or not.
func (r *CRUD[T, P]) HardDelete(ctx context.Context, conds ...Cond) error {
	if len(conds) == 0 {
		return fmt.Errorf("%s hard delete: refusing to delete without conditions", r.table.Name)
	}
	w, args := where(false, conds)
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+r.table.Name+w, args...)
	if err != nil {
		return fmt.Errorf("%s hard delete: %w", r.table.Name, translate(err))
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
