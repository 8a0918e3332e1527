package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/middleware"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/queue"
	"github.com/iliyamo/site-inspection-api/internal/repository"
)

// memStore is an in-memory Store keyed by the column values cols returns.
type memStore[T any] struct {
	rows    []*T
	cols    func(*T) map[string]any
	nextID  int64
	creates int
	updates [][]repository.Change
	err     error
}

func newMemStore[T any](cols func(*T) map[string]any) *memStore[T] {
	return &memStore[T]{cols: cols, nextID: 1}
}

func (m *memStore[T]) match(rec *T, conds []repository.Cond, liveOnly bool) bool {
	b := baseOf(rec)
	if liveOnly && b.IsDeleted {
		return false
	}
	vals := m.cols(rec)
	vals["id"] = b.ID
	for _, c := range conds {
		if fmt.Sprint(vals[c.Column]) != fmt.Sprint(c.Value) {
			return false
		}
	}
	return true
}

func (m *memStore[T]) add(rec *T) *T {
	b := baseOf(rec)
	b.ID = m.nextID
	b.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.nextID++
	m.rows = append(m.rows, rec)
	return rec
}

func (m *memStore[T]) Exists(_ context.Context, conds ...repository.Cond) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.rows {
		if m.match(r, conds, true) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore[T]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return m.Exists(ctx, repository.Eq("id", id))
}

func (m *memStore[T]) Create(_ context.Context, rec *T) error {
	if m.err != nil {
		return m.err
	}
	m.creates++
	m.add(rec)
	return nil
}

func (m *memStore[T]) Get(_ context.Context, conds ...repository.Cond) (*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.rows {
		if m.match(r, conds, true) {
			return r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore[T]) List(_ context.Context, offset, limit int, conds ...repository.Cond) ([]*T, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var all []*T
	for _, r := range m.rows {
		if m.match(r, conds, true) {
			all = append(all, r)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore[T]) Update(_ context.Context, changes []repository.Change, conds ...repository.Cond) error {
	if m.err != nil {
		return m.err
	}
	for _, r := range m.rows {
		if m.match(r, conds, true) {
			m.updates = append(m.updates, changes)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore[T]) SoftDelete(_ context.Context, conds ...repository.Cond) error {
	for _, r := range m.rows {
		if m.match(r, conds, true) {
			baseOf(r).IsDeleted = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore[T]) HardDelete(_ context.Context, conds ...repository.Cond) error {
	for i, r := range m.rows {
		if m.match(r, conds, false) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type recordingAudit struct{ events []queue.AuditEvent }

func (a *recordingAudit) Publish(ev queue.AuditEvent) { a.events = append(a.events, ev) }

var (
	admin = &model.User{Base: model.Base{ID: 1}, Username: "admin", IsSuperuser: true}
	bob   = &model.User{Base: model.Base{ID: 2}, Username: "bob"}
)

// asUser stands in for JWTAuth in handler tests.
func asUser(u *model.User) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u != nil {
				c.Set(middleware.ContextUser, u)
				c.Set(middleware.ContextUserID, u.Username)
				c.Set(middleware.ContextRole, u.Role())
			}
			return next(c)
		}
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func call(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
