// Package repository holds the data access layer.  Errors in this file are
// shared by every repository so handlers can map them to HTTP responses
// with errors.Is, whatever entity produced them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no live (non-deleted) row matches.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique index.
// Handlers translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate value")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a foreign key, e.g. a
// building pointing at a project that does not exist.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers.
const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// translate maps driver errors onto the sentinels above.  Anything else is
// returned unchanged.
func translate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDupEntry:
		return errors.Join(ErrDuplicate, err)
	case mysqlRowIsReferenced, mysqlNoReferencedRow:
		return errors.Join(ErrConflict, err)
	}
	return err
}
