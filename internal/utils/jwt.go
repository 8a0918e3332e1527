package utils // package utils provides helpers for token creation and password hashing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.  The value is
// carried in the token_type claim and checked on every parse so one kind can
// never stand in for the other.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// ErrTokenInvalid wraps every parse failure: bad signature, expired, wrong
// algorithm, wrong kind or missing subject.
var ErrTokenInvalid = errors.New("invalid token")

// Claims is the payload of every token.  Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"token_type"`
}

// Token is a signed JWT string together with its expiry.
type Token struct {
	Raw       string    // the serialized JWT string
	ExpiresAt time.Time // the UTC expiration time
}

// Tokens issues and parses HS256 tokens with a shared secret.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	// Now is the clock used for iat/exp and for validation.
	Now func() time.Time
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// RefreshTTL is the refresh token lifetime; the refresh cookie's Max-Age
// follows it.
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }

// Issue signs a token of the given kind for subject.  Every token gets a
// random jti, so two tokens issued within the same second still differ.
func (t *Tokens) Issue(subject string, kind TokenKind) (Token, error) {
	ttl := t.accessTTL
	if kind == KindRefresh {
		ttl = t.refreshTTL
	}
	now := t.Now().UTC()
	exp := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Token{Raw: signed, ExpiresAt: exp}, nil
}

// IssuePair signs an access and a refresh token for subject.
func (t *Tokens) IssuePair(subject string) (access, refresh Token, err error) {
	if access, err = t.Issue(subject, KindAccess); err != nil {
		return Token{}, Token{}, err
	}
	if refresh, err = t.Issue(subject, KindRefresh); err != nil {
		return Token{}, Token{}, err
	}
	return access, refresh, nil
}

// Parse validates raw and returns its claims.  Only HS256 is accepted and
// the token_type claim must equal expected.
func (t *Tokens) Parse(raw string, expected TokenKind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Kind != expected {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, expected, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// Subject returns the subject of a valid access token.  It checks the
// signature and expiry only; whether the user still exists is left to the
// caller.
func (t *Tokens) Subject(raw string) (string, bool) {
	claims, err := t.Parse(raw, KindAccess)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}
