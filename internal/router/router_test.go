package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/handler"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/service"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

type nobody struct{}

func (nobody) VerifyToken(context.Context, string, utils.TokenKind) (*model.User, error) {
	return nil, service.ErrInvalidToken
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newServer() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	stores := repository.NewStores(nil)
	RegisterRoutes(e, okPinger{})
	RegisterResources(e, handler.NewEntities(stores, nil), nobody{}, config.CacheConfig{}, nil)
	RegisterPosts(e, handler.NewPostHandler(repository.NewUserRepo(nil), stores.Posts, nil), nobody{})
	return e
}

func TestRoutes_Registered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /api/v1/project",
		"GET /api/v1/projects",
		"GET /api/v1/project/:name",
		"PATCH /api/v1/defect/:name",
		"DELETE /api/v1/subcategory/:name",
		"GET /api/v1/buildinglevels/building/:building_id",
		"POST /api/v1/:username/post",
		"DELETE /api/v1/:username/db_post/:id",
	} {
		assert.True(t, have[want], want)
	}
}

func TestRoutes_WritesNeedToken(t *testing.T) {
	e := newServer()
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/project"},
		{http.MethodPatch, "/api/v1/category/Walls"},
		{http.MethodDelete, "/api/v1/defecttype/Crack"},
		{http.MethodPost, "/api/v1/bob/post"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestHealth(t *testing.T) {
	e := newServer()
	for _, p := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}
