package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/service"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// verifyTimeout bounds the user lookup behind every token check.
const verifyTimeout = 5 * time.Second

// TokenVerifier resolves a raw token to a live user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string, kind utils.TokenKind) (*model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the resolved user in the context.  Handlers read it back with
// CurrentUser; the rate limiter keys on the user_id and role values.
func JWTAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not authenticated."})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), verifyTimeout)
			u, err := verifier.VerifyToken(ctx, raw, utils.KindAccess)
			cancel()
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token."})
				}
				c.Logger().Errorf("jwt: resolve subject: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
			}

			c.Set(ContextUser, u)
			c.Set(ContextUserID, u.Username)
			c.Set(ContextRole, u.Role())
			return next(c)
		}
	}
}

// bearerToken extracts the credentials of an "Authorization: Bearer x"
// header.  The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
