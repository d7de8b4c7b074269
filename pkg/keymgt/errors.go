package keymgt

import "errors"

var (
	// ErrConfigNotFound indicates no configuration source could be located
	// in the working directory or on the resource search path.
	ErrConfigNotFound = errors.New("keymgt: configuration not found")

	// ErrConfigParse indicates a configuration source was located but its
	// content could not be parsed.
	ErrConfigParse = errors.New("keymgt: configuration parse failed")

	// ErrInvalidConfiguration indicates the resolved configuration is missing
	// required fields or contains inconsistent values.
	ErrInvalidConfiguration = errors.New("keymgt: invalid configuration")

	// ErrMissingToken indicates no token was provided for an operation.
	ErrMissingToken = errors.New("keymgt: missing token")

	// ErrInvalidToken indicates the token is malformed, inactive, or has an
	// invalid signature.
	ErrInvalidToken = errors.New("keymgt: invalid token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("keymgt: token expired")

	// ErrRequestFailed indicates a request to the key manager service failed.
	ErrRequestFailed = errors.New("keymgt: request failed")

	// ErrRevocationFailed indicates a token revocation request failed.
	ErrRevocationFailed = errors.New("keymgt: revocation failed")

	// ErrJWKSFetchFailed indicates JWKS retrieval from the key manager failed.
	ErrJWKSFetchFailed = errors.New("keymgt: jwks fetch failed")
)
