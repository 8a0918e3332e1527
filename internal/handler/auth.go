package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/middleware"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/queue"
	"github.com/iliyamo/site-inspection-api/internal/service"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

const refreshCookie = "refresh_token"

// Authenticator is the part of service.AuthService the session endpoints use.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (*model.User, error)
	VerifyToken(ctx context.Context, raw string, kind utils.TokenKind) (*model.User, error)
	IssuePair(u *model.User) (access, refresh utils.Token, err error)
	IssueAccess(u *model.User) (utils.Token, error)
	RefreshTTL() time.Duration
}

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Auth         Authenticator
	Audit        service.AuditPublisher
	CookieSecure bool
}

func NewAuthHandler(auth Authenticator, audit service.AuditPublisher, cookieSecure bool) *AuthHandler {
	if audit == nil {
		audit = service.NopPublisher{}
	}
	return &AuthHandler{Auth: auth, Audit: audit, CookieSecure: cookieSecure}
}

// ----- DTOs -----

// loginReq accepts JSON or the OAuth2 password form.
type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type loginResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Username     string `json:"username"`
}

type refreshResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Login: verify credentials, return a token pair and set the refresh cookie.
// Every credential failure gets the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "username/password required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return dbFail(c, "login", err)
	}
	if u == nil {
		h.Audit.Publish(queue.NewAuthEvent(false, req.Username, ""))
		return fail(c, http.StatusUnauthorized, "Wrong username, email or password.")
	}

	access, refresh, err := h.Auth.IssuePair(u)
	if err != nil {
		c.Logger().Errorf("login: issue tokens: %v", err)
		return fail(c, http.StatusInternalServerError, "token error")
	}

	c.SetCookie(h.cookie(refresh.Raw, int(h.Auth.RefreshTTL().Seconds())))
	h.Audit.Publish(queue.NewAuthEvent(true, req.Username, u.Username))
	return c.JSON(http.StatusOK, loginResp{
		AccessToken:  access.Raw,
		RefreshToken: refresh.Raw,
		TokenType:    "bearer",
		Username:     u.Username,
	})
}

// Refresh: exchange the refresh cookie for a new access token.  The refresh
// token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(refreshCookie)
	if err != nil || ck.Value == "" {
		return fail(c, http.StatusUnauthorized, "Refresh token missing.")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Auth.VerifyToken(ctx, ck.Value, utils.KindRefresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token.")
		}
		return dbFail(c, "refresh", err)
	}

	access, err := h.Auth.IssueAccess(u)
	if err != nil {
		c.Logger().Errorf("refresh: issue token: %v", err)
		return fail(c, http.StatusInternalServerError, "token error")
	}
	return c.JSON(http.StatusOK, refreshResp{AccessToken: access.Raw, TokenType: "bearer"})
}

// Logout clears the refresh cookie.  Access tokens already issued remain
// valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie("", -1))
	return message(c, http.StatusOK, "Logged out successfully")
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return fail(c, http.StatusUnauthorized, "User not authenticated.")
	}
	return c.JSON(http.StatusOK, u)
}
