package keymgt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// localVerifier verifies token signatures locally using the key manager's
// JWKS. The key set is fetched lazily on first use so that handle
// construction stays fast local work; a failed fetch is not cached and is
// retried on the next call.
type localVerifier struct {
	config *Config

	mu   sync.Mutex
	jwks keyfunc.Keyfunc
}

func newLocalVerifier(config *Config) *localVerifier {
	return &localVerifier{config: config}
}

// verify parses and validates a token against the JWKS and the configured
// issuer, audience, and clock skew.
func (v *localVerifier) verify(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	jwks, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}

	token, err := jwt.Parse(tokenString, jwks.Keyfunc,
		jwt.WithValidMethods([]string{
			"RS256", "RS384", "RS512",
			"ES256", "ES384", "ES512",
			"PS256", "PS384", "PS512",
		}),
		jwt.WithLeeway(v.config.ClockSkew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, err := claimsFromToken(token)
	if err != nil {
		return nil, err
	}

	if v.config.Issuer != "" && claims.Issuer != v.config.Issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}

	if v.config.Audience != "" && !containsAudience(claims.Audience, v.config.Audience) {
		return nil, fmt.Errorf("%w: invalid audience", ErrInvalidToken)
	}

	return claims, nil
}

// keySet returns the JWKS, fetching it on first use. The key set refreshes
// itself in the background for the lifetime of the process, so it is
// detached from the triggering call's cancellation.
func (v *localVerifier) keySet(ctx context.Context) (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil {
		return v.jwks, nil
	}

	jwks, err := keyfunc.NewDefaultCtx(context.WithoutCancel(ctx), []string{v.config.JWKSURL})
	if err != nil {
		return nil, err
	}

	v.jwks = jwks
	return jwks, nil
}

// claimsFromToken maps parsed JWT claims onto a TokenClaims value.
func claimsFromToken(token *jwt.Token) (*TokenClaims, error) {
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	claims := &TokenClaims{}

	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}

	if iss, err := mapClaims.GetIssuer(); err == nil {
		claims.Issuer = iss
	}

	if aud, err := mapClaims.GetAudience(); err == nil {
		claims.Audience = aud
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	if nbf, err := mapClaims.GetNotBefore(); err == nil && nbf != nil {
		claims.NotBefore = nbf.Time
	}

	if scope, ok := mapClaims["scope"].(string); ok && scope != "" {
		claims.Scopes = splitScopes(scope)
	}

	return claims, nil
}

// containsAudience checks if the audience list contains the expected audience.
func containsAudience(audiences []string, expected string) bool {
	for _, aud := range audiences {
		if aud == expected {
			return true
		}
	}
	return false
}

// close drops the key set. The keyfunc v3 API needs no explicit cleanup.
func (v *localVerifier) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.jwks = nil
}
