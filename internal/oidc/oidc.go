// Package oidc turns the ID tokens sent by the editor into auth.Token values.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/deckdeckgo/deckdeckgo/cloud/go-functions/internal/auth"
)

// IDTokens checks signed ID tokens against the keys an issuer publishes.
// For Firebase the issuer is https://securetoken.google.com/<project> and the
// audience is the project id.
type IDTokens struct {
	v *oidc.IDTokenVerifier
}

// NewVerifier reads the issuer's discovery document. An empty audience accepts
// tokens minted for any client of the issuer.
func NewVerifier(ctx context.Context, issuer, audience string) (*IDTokens, error) {
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}
	return &IDTokens{v: p.Verifier(&oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""})}, nil
}

func (t *IDTokens) Verify(ctx context.Context, raw string) (auth.Token, error) {
	tok, err := t.v.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if tok.Subject == "" {
		return nil, auth.ErrNoSubject
	}
	return tok, nil
}
