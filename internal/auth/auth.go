package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionCookie is the only cookie Firebase hosting forwards to functions.
const SessionCookie = "__session"

// revokeWithoutExp bounds the revocation of tokens that carry no exp claim.
const revokeWithoutExp = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
	ErrNoSubject    = errors.New("token has no subject")
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier checks a raw bearer token and returns its verified form.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ExtractToken returns the bearer token of the request, or "" when none is present.
// The Authorization header wins over the session cookie.
func ExtractToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Authenticator resolves a raw token to the subject it was issued for.
type Authenticator struct {
	verifier Verifier
	revoked  *Revocations
}

// NewAuthenticator builds an Authenticator. revoked may be nil.
func NewAuthenticator(v Verifier, revoked *Revocations) *Authenticator {
	return &Authenticator{verifier: v, revoked: revoked}
}

// Authenticate verifies raw and returns the "sub" claim.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (string, error) {
	claims, err := a.Claims(ctx, raw)
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrNoSubject
	}
	return sub, nil
}

// Claims verifies raw and returns all of its claims.
func (a *Authenticator) Claims(ctx context.Context, raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	revoked, err := a.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	tok, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Revoke rejects raw until its exp claim passes. claims are the token's verified claims.
func (a *Authenticator) Revoke(ctx context.Context, raw string, claims map[string]interface{}) error {
	ttl := revokeWithoutExp
	if exp, ok := expiry(claims); ok {
		ttl = time.Until(exp)
	}
	if ttl <= 0 {
		return nil
	}
	return a.revoked.Revoke(ctx, raw, ttl)
}

func expiry(claims map[string]interface{}) (time.Time, bool) {
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	}
	return time.Time{}, false
}
