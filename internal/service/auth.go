// Package service holds the authentication core: credential verification,
// token verification and audit publishing.  Handlers depend on it; it
// depends only on repository lookups and the token utilities.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

// ErrInvalidToken is returned by VerifyToken for every rejection: bad
// signature, expired, wrong kind, or a subject that no longer resolves to a
// live user.
var ErrInvalidToken = errors.New("invalid token")

// UserFinder is the lookup the auth service needs from storage.
type UserFinder interface {
	FindActiveByLogin(ctx context.Context, login string) (*model.User, error)
	GetActiveByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthService verifies credentials and tokens.
type AuthService struct {
	users     UserFinder
	tokens    *utils.Tokens
	dummyHash string
}

// NewAuthService precomputes a bcrypt hash at the configured cost.  It is
// compared against when the login does not resolve to a user, so unknown
// logins take as long as wrong passwords.
func NewAuthService(users UserFinder, tokens *utils.Tokens, bcryptCost int) (*AuthService, error) {
	dummy, err := utils.HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &AuthService{users: users, tokens: tokens, dummyHash: dummy}, nil
}

// Authenticate resolves login (username, or email when it contains "@") and
// checks password.  It returns (nil, nil) for unknown or deleted users and
// for wrong passwords alike; only storage failures produce an error.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	u, err := s.users.FindActiveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword(s.dummyHash, password)
			return nil, nil
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.HashedPassword, password) {
		return nil, nil
	}
	return u.Sanitized(), nil
}

// VerifyToken validates raw as a token of the expected kind and re-resolves
// its subject, so tokens of deleted users stop working immediately.
func (s *AuthService) VerifyToken(ctx context.Context, raw string, kind utils.TokenKind) (*model.User, error) {
	claims, err := s.tokens.Parse(raw, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	u, err := s.users.GetActiveByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject %q not found", ErrInvalidToken, claims.Subject)
		}
		return nil, err
	}
	return u.Sanitized(), nil
}

// IssuePair signs a fresh access/refresh pair for u.
func (s *AuthService) IssuePair(u *model.User) (access, refresh utils.Token, err error) {
	return s.tokens.IssuePair(u.Username)
}

// IssueAccess signs a new access token for u.  The refresh token is not
// rotated.
func (s *AuthService) IssueAccess(u *model.User) (utils.Token, error) {
	return s.tokens.Issue(u.Username, utils.KindAccess)
}

// RefreshTTL is the lifetime of refresh tokens and of the refresh cookie.
func (s *AuthService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }
