package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/service"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

type stubVerifier struct {
	users     map[string]*model.User
	err       error
	kinds     []utils.TokenKind
	deadlines []time.Duration
}

func (s *stubVerifier) VerifyToken(ctx context.Context, raw string, kind utils.TokenKind) (*model.User, error) {
	s.kinds = append(s.kinds, kind)
	if dl, ok := ctx.Deadline(); ok {
		s.deadlines = append(s.deadlines, time.Until(dl))
	}
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[raw]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return u, nil
}

func newVerifier() *stubVerifier {
	return &stubVerifier{users: map[string]*model.User{
		"admin-token": {Base: model.Base{ID: 1}, Username: "admin", IsSuperuser: true},
		"user-token":  {Base: model.Base{ID: 2}, Username: "bob"},
	}}
}

func protectedServer(v TokenVerifier, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{JWTAuth(v)}, extra...)
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUser(c).Username)
	}, mws...)
	return e
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	v := newVerifier()
	e := protectedServer(v)

	rec := do(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"User not authenticated."}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/me", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"User not authenticated."}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/me", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token."}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/me", "bearer user-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", rec.Body.String())

	for _, k := range v.kinds {
		assert.Equal(t, utils.KindAccess, k)
	}
	require.Len(t, v.deadlines, len(v.kinds))
	for _, d := range v.deadlines {
		assert.LessOrEqual(t, d, verifyTimeout)
	}
}

func TestJWTAuth_StorageFailure(t *testing.T) {
	v := newVerifier()
	v.err = errors.New("db down")

	rec := do(protectedServer(v), http.MethodGet, "/me", "Bearer admin-token")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireSuperuser(t *testing.T) {
	e := protectedServer(newVerifier(), RequireSuperuser())

	rec := do(e, http.MethodGet, "/me", "Bearer user-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"You do not have enough privileges."}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/me", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	raw, ok := bearerToken("Bearer   abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", raw)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}

func TestTokenBucket_LocalFallback(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, nil, nil))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/ping", "").Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/ping", "").Code)

	rec := do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucket_Disabled(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestLocalBuckets_Refill(t *testing.T) {
	cfg := config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	l := newLocalBuckets(cfg)
	now := time.Now()

	assert.True(t, l.take("k", now).allowed)
	d := l.take("k", now)
	assert.False(t, d.allowed)
	assert.Greater(t, d.retry, time.Duration(0))
	assert.True(t, l.take("other", now).allowed)
	assert.True(t, l.take("k", now.Add(1100*time.Millisecond)).allowed)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/projects")
	c.Set(ContextUserID, "ann")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	uid := rateSubject(c, nil)
	assert.Equal(t, "rl:ip:10.0.0.1:user:ann:route:GET /projects", buildRateKey(cfg, c, uid))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:ann", buildRateKey(cfg, c, uid))
}

func TestCache_PassThroughWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "cache"}
	e := echo.New()
	e.Use(NewRedisCache(cfg, nil))
	calls := 0
	e.GET("/projects", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, InvalidateOnWrite(cfg, nil, "/projects"))

	do(e, http.MethodGet, "/projects", "")
	rec := do(e, http.MethodGet, "/projects", "")
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	require.NoError(t, InvalidateCache(context.Background(), cfg, nil, "/projects"))
}

func TestCacheKey_IncludesPathAndQuery(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache"}
	mk := func(target string) string {
		return cacheKeyFrom(cfg, e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
	}

	a, b := mk("/api/v1/projects?page=1"), mk("/api/v1/projects?page=2")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^cache:/api/v1/projects:[0-9a-f]{40}$`, a)

	cfg.KeyStrategy = "route"
	assert.Equal(t, mk("/api/v1/projects?page=1"), mk("/api/v1/projects?page=2"))
}

func TestPayload_Decode(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

// The limiter is installed with e.Use and so runs before route-level JWTAuth,
// as in cmd/server.
func TestTokenBucket_UserKeyAheadOfAuth(t *testing.T) {
	tokens := utils.NewTokens("s3cret", time.Minute, time.Hour)
	adminTok, err := tokens.Issue("admin", utils.KindAccess)
	require.NoError(t, err)
	bobTok, err := tokens.Issue("bob", utils.KindAccess)
	require.NoError(t, err)

	v := &stubVerifier{users: map[string]*model.User{
		adminTok.Raw: {Base: model.Base{ID: 1}, Username: "admin", IsSuperuser: true},
		bobTok.Raw:   {Base: model.Base{ID: 2}, Username: "bob"},
	}}
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "user",
		Prefix:         "rl",
		Debug:          true,
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, nil, tokens))
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUser(c).Username)
	}, JWTAuth(v))

	rec := do(e, http.MethodGet, "/me", "Bearer "+adminTok.Raw)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rl:user:admin", rec.Header().Get("X-RateLimit-Key"))

	rec = do(e, http.MethodGet, "/me", "Bearer "+bobTok.Raw)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rl:user:bob", rec.Header().Get("X-RateLimit-Key"))

	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/me", "Bearer "+bobTok.Raw).Code)

	// Forged and missing tokens share the anonymous bucket.
	rec = do(e, http.MethodGet, "/me", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "rl:user:anon", rec.Header().Get("X-RateLimit-Key"))
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/me", "").Code)
}
