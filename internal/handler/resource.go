package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/middleware"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/queue"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/service"
)

// Store is the data access a Resource needs; repository.CRUD satisfies it.
type Store[T any] interface {
	Exists(ctx context.Context, conds ...repository.Cond) (bool, error)
	Create(ctx context.Context, rec *T) error
	Get(ctx context.Context, conds ...repository.Cond) (*T, error)
	List(ctx context.Context, offset, limit int, conds ...repository.Cond) ([]*T, int, error)
	Update(ctx context.Context, changes []repository.Change, conds ...repository.Cond) error
	SoftDelete(ctx context.Context, conds ...repository.Cond) error
}

// ParentStore answers whether a referenced row exists.
type ParentStore interface {
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// Ref is a foreign key carried by a request.  A nil ID means the reference
// was not supplied and is not checked.
type Ref struct {
	Label string
	ID    *int64
	Store ParentStore
}

// Resource serves the create/list/get/patch/delete endpoints of one entity.
// T is the stored model, C the create body and U the partial update body.
type Resource[T any, C any, U any] struct {
	Label  string // "Project"; used in messages and audit events
	Key    string // column addressed by the :name path parameter
	Unique bool   // whether Key must be unique among live rows
	Store  Store[T]
	Audit  service.AuditPublisher

	// Build turns a validated create body into a row.  actor is the caller.
	Build func(req *C, actor *model.User) *T
	// Changes lists the columns a validated update body sets.
	Changes func(req *U) []repository.Change
	// KeyOf returns the Key column value of a row.
	KeyOf func(*T) string
	// CreateRefs and UpdateRefs list the foreign keys to check first.
	CreateRefs func(req *C) []Ref
	UpdateRefs func(req *U) []Ref
}

func baseOf[T any](rec *T) *model.Base {
	return any(rec).(interface{ Row() *model.Base }).Row()
}

func (r *Resource[T, C, U]) notFound(c echo.Context) error {
	return fail(c, http.StatusNotFound, r.Label+" not found")
}

func (r *Resource[T, C, U]) taken(c echo.Context) error {
	return fail(c, http.StatusConflict, r.Label+" Name not available")
}

func (r *Resource[T, C, U]) publish(action, key string, actor *model.User) {
	if r.Audit == nil {
		return
	}
	name := ""
	if actor != nil {
		name = actor.Username
	}
	r.Audit.Publish(queue.NewEntityEvent(action, r.Label, key, name))
}

// checkRefs writes a 404 for the first missing parent.  handled reports
// whether a response was written.
func checkRefs(ctx context.Context, c echo.Context, refs []Ref) (handled bool, err error) {
	for _, ref := range refs {
		if ref.ID == nil {
			continue
		}
		ok, err := ref.Store.ExistsByID(ctx, *ref.ID)
		if err != nil {
			return true, dbFail(c, "check "+ref.Label, err)
		}
		if !ok {
			return true, fail(c, http.StatusNotFound, ref.Label+" not found")
		}
	}
	return false, nil
}

// writeErr maps storage errors of a write onto responses.
func (r *Resource[T, C, U]) writeErr(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return r.notFound(c)
	case errors.Is(err, repository.ErrDuplicate):
		return r.taken(c)
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusNotFound, "Referenced record not found")
	}
	return dbFail(c, op, err)
}

// Create handles POST /<one>.
func (r *Resource[T, C, U]) Create(c echo.Context) error {
	req := new(C)
	if ok, err := bindValid(c, req); !ok {
		return err
	}
	actor := middleware.CurrentUser(c)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if r.CreateRefs != nil {
		if handled, err := checkRefs(ctx, c, r.CreateRefs(req)); handled {
			return err
		}
	}

	rec := r.Build(req, actor)
	key := r.KeyOf(rec)
	if r.Unique {
		exists, err := r.Store.Exists(ctx, repository.Eq(r.Key, key))
		if err != nil {
			return dbFail(c, "create "+r.Label, err)
		}
		if exists {
			return r.taken(c)
		}
	}

	if err := r.Store.Create(ctx, rec); err != nil {
		return r.writeErr(c, "create "+r.Label, err)
	}
	r.publish("create", key, actor)
	return c.JSON(http.StatusCreated, rec)
}

// List handles GET /<many>.
func (r *Resource[T, C, U]) List(c echo.Context) error {
	return r.list(c)
}

// ListBy returns a handler listing rows whose column equals the integer
// path parameter param.  A missing parent yields 404.
func (r *Resource[T, C, U]) ListBy(column, param string, parent Ref) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil || id < 1 {
			return fail(c, http.StatusBadRequest, "invalid "+param)
		}
		ctx, cancel := dbCtx(c)
		defer cancel()
		if handled, err := checkRefs(ctx, c, []Ref{{Label: parent.Label, ID: &id, Store: parent.Store}}); handled {
			return err
		}
		return r.list(c, repository.Eq(column, id))
	}
}

func (r *Resource[T, C, U]) list(c echo.Context, conds ...repository.Cond) error {
	page, perPage, err := pagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, total, err := r.Store.List(ctx, (page-1)*perPage, perPage, conds...)
	if err != nil {
		return dbFail(c, "list "+r.Label, err)
	}
	return c.JSON(http.StatusOK, newPage(items, total, page, perPage))
}

// Get handles GET /<one>/:name.
func (r *Resource[T, C, U]) Get(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	rec, err := r.Store.Get(ctx, repository.Eq(r.Key, c.Param("name")))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return r.notFound(c)
		}
		return dbFail(c, "get "+r.Label, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Patch handles PATCH /<one>/:name.  Only fields present in the body change.
func (r *Resource[T, C, U]) Patch(c echo.Context) error {
	req := new(U)
	if ok, err := bindValid(c, req); !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	current, err := r.Store.Get(ctx, repository.Eq(r.Key, c.Param("name")))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return r.notFound(c)
		}
		return dbFail(c, "get "+r.Label, err)
	}

	if r.UpdateRefs != nil {
		if handled, err := checkRefs(ctx, c, r.UpdateRefs(req)); handled {
			return err
		}
	}

	changes := r.Changes(req)
	key := r.KeyOf(current)
	for _, ch := range changes {
		if ch.Column != r.Key {
			continue
		}
		newKey := fmt.Sprint(ch.Value)
		if r.Unique && newKey != key {
			exists, err := r.Store.Exists(ctx, repository.Eq(r.Key, newKey))
			if err != nil {
				return dbFail(c, "update "+r.Label, err)
			}
			if exists {
				return r.taken(c)
			}
		}
		key = newKey
	}

	if err := r.Store.Update(ctx, changes, repository.Eq("id", baseOf(current).ID)); err != nil {
		return r.writeErr(c, "update "+r.Label, err)
	}
	r.publish("update", key, middleware.CurrentUser(c))
	return message(c, http.StatusOK, r.Label+" updated")
}

// Delete handles DELETE /<one>/:name with a soft delete.
func (r *Resource[T, C, U]) Delete(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	current, err := r.Store.Get(ctx, repository.Eq(r.Key, c.Param("name")))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return r.notFound(c)
		}
		return dbFail(c, "get "+r.Label, err)
	}
	if err := r.Store.SoftDelete(ctx, repository.Eq("id", baseOf(current).ID)); err != nil {
		return r.writeErr(c, "delete "+r.Label, err)
	}
	r.publish("delete", r.KeyOf(current), middleware.CurrentUser(c))
	return message(c, http.StatusOK, r.Label+" deleted")
}
