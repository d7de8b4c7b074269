package keymgt

import "time"

// TokenStatus describes the state of a token as reported by the key manager.
type TokenStatus struct {
	// Active reports whether the token is currently valid.
	Active bool

	// TokenType is the type of token (usually "Bearer").
	TokenType string

	// Scopes are the scopes granted to the token.
	Scopes []string

	// ClientID is the client application the token was issued to.
	ClientID string

	// Subject is the subject identifier (typically user ID).
	Subject string

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time

	// NotBefore is the time before which the token is not valid.
	NotBefore time.Time

	// ID is the token identifier (jti), if reported.
	ID string
}

// Expired returns true if the token's expiry has passed.
func (s *TokenStatus) Expired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// ScopeList is the set of scopes registered for one client application.
type ScopeList struct {
	// ClientID is the client application the scopes belong to.
	ClientID string

	// Scopes are the registered scope names.
	Scopes []string
}

// TokenClaims represents claims extracted from a locally verified token.
type TokenClaims struct {
	// Subject is the subject identifier (typically user ID).
	Subject string

	// Issuer is the token issuer.
	Issuer string

	// Audience is the intended audience for the token.
	Audience []string

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time

	// NotBefore is the time before which the token is not valid.
	NotBefore time.Time

	// Scopes are the scopes granted to the token.
	Scopes []string
}

// Expired returns true if the claims' expiry has passed.
func (c *TokenClaims) Expired() bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt)
}
