package keymgt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// HTTPClient defines the interface for making HTTP requests.
// This abstraction allows for testing and custom implementations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the handle through which all key manager operations are invoked.
// It is thread-safe and immutable after construction. A process normally
// holds exactly one Client, obtained through a Registry.
type Client struct {
	config     *Config
	httpClient HTTPClient
	tokens     oauth2.TokenSource
	verifier   *localVerifier
	logger     Logger
}

// NewClient constructs a client handle from a resolved configuration.
// Construction is fast local work; no network calls are made until the
// first operation.
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfiguration)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     config,
		httpClient: newDefaultHTTPClient(config.Timeout, config.TLSConfig, config.InsecureSkipVerify),
	}

	for _, opt := range opts {
		opt(c)
	}

	if config.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
			Scopes:       config.Scopes,
		}

		// Route the token source through our transport when possible.
		ctx := context.Background()
		if dhc, ok := c.httpClient.(*defaultHTTPClient); ok {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, dhc.client)
		}
		c.tokens = cc.TokenSource(ctx)
	}

	if config.JWKSURL != "" {
		c.verifier = newLocalVerifier(config)
	}

	return c, nil
}

// ValidateToken asks the key manager for the status of a token.
// An inactive token is not an error; inspect TokenStatus.Active.
func (c *Client) ValidateToken(ctx context.Context, token string, opts *RequestOptions) (*TokenStatus, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	data := url.Values{}
	data.Set("token", token)
	data.Set("token_type_hint", "access_token")

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("introspect"), strings.NewReader(data.Encode()), opts)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var wire tokenStatusWire
	if err := c.do(req, &wire); err != nil {
		return nil, err
	}

	return wire.toStatus(), nil
}

// RevokeToken revokes a token at the key manager.
func (c *Client) RevokeToken(ctx context.Context, token string, opts *RequestOptions) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	data := url.Values{}
	data.Set("token", token)

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("revoke"), strings.NewReader(data.Encode()), opts)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevocationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrRevocationFailed, resp.StatusCode, string(body))
	}

	c.logf("revoked token for client %s", c.config.ClientID)
	return nil
}

// ActiveTokens returns the token status list for a client application.
func (c *Client) ActiveTokens(ctx context.Context, consumerKey string, opts *RequestOptions) ([]TokenStatus, error) {
	if strings.TrimSpace(consumerKey) == "" {
		return nil, fmt.Errorf("%w: consumer key is required", ErrRequestFailed)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("clients", consumerKey, "tokens"), nil, opts)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Tokens []tokenStatusWire `json:"tokens"`
	}
	if err := c.do(req, &wire); err != nil {
		return nil, err
	}

	statuses := make([]TokenStatus, 0, len(wire.Tokens))
	for _, t := range wire.Tokens {
		statuses = append(statuses, *t.toStatus())
	}
	return statuses, nil
}

// ClientScopes returns the scope list registered for a client application.
func (c *Client) ClientScopes(ctx context.Context, consumerKey string, opts *RequestOptions) (*ScopeList, error) {
	if strings.TrimSpace(consumerKey) == "" {
		return nil, fmt.Errorf("%w: consumer key is required", ErrRequestFailed)
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("clients", consumerKey, "scopes"), nil, opts)
	if err != nil {
		return nil, err
	}

	var wire struct {
		ClientID string   `json:"client_id"`
		Scopes   []string `json:"scopes"`
	}
	if err := c.do(req, &wire); err != nil {
		return nil, err
	}

	return &ScopeList{ClientID: wire.ClientID, Scopes: wire.Scopes}, nil
}

// VerifyLocal verifies a token signature locally against the key manager's
// JWKS, without a round trip to the introspection endpoint. Requires
// JWKSURL to be configured.
func (c *Client) VerifyLocal(ctx context.Context, token string) (*TokenClaims, error) {
	if c.verifier == nil {
		return nil, fmt.Errorf("%w: %s not configured", ErrInvalidConfiguration, propJWKSEndpoint)
	}
	return c.verifier.verify(ctx, token)
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.verifier != nil {
		c.verifier.close()
	}
	return nil
}

// endpoint joins path segments onto the configured server URL.
func (c *Client) endpoint(parts ...string) string {
	base := strings.TrimRight(c.config.ServerURL, "/")
	for _, p := range parts {
		base += "/" + url.PathEscape(p)
	}
	return base
}

// newRequest builds an authenticated request and layers the per-call header
// overlay on top, so per-call values win over the client's defaults.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, opts *RequestOptions) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: token source: %v", ErrRequestFailed, err)
		}
		tok.SetAuthHeader(req)
	} else {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	opts.apply(req)
	return req, nil
}

// do executes a request and decodes a JSON response body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrRequestFailed, err)
	}

	return nil
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// tokenStatusWire is the JSON shape of a token status entry.
type tokenStatusWire struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope"`
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
	Nbf       int64  `json:"nbf"`
	Sub       string `json:"sub"`
	Jti       string `json:"jti"`
}

func (w *tokenStatusWire) toStatus() *TokenStatus {
	status := &TokenStatus{
		Active:    w.Active,
		TokenType: w.TokenType,
		ClientID:  w.ClientID,
		Subject:   w.Sub,
		ID:        w.Jti,
	}

	if status.Subject == "" {
		status.Subject = w.Username
	}

	if w.Scope != "" {
		status.Scopes = splitScopes(w.Scope)
	}

	if w.Exp > 0 {
		status.ExpiresAt = time.Unix(w.Exp, 0)
	}
	if w.Iat > 0 {
		status.IssuedAt = time.Unix(w.Iat, 0)
	}
	if w.Nbf > 0 {
		status.NotBefore = time.Unix(w.Nbf, 0)
	}

	return status
}

// defaultHTTPClient is a production HTTP client with sensible defaults.
type defaultHTTPClient struct {
	client *http.Client
}

// newDefaultHTTPClient creates an HTTP client tuned for key manager calls.
func newDefaultHTTPClient(timeout time.Duration, tlsConfig *tls.Config, insecureSkipVerify bool) HTTPClient {
	customTLS := tlsConfig
	if customTLS == nil {
		customTLS = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	} else {
		// Clone to avoid modifying the original
		customTLS = tlsConfig.Clone()
	}

	if insecureSkipVerify {
		customTLS.InsecureSkipVerify = true
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       customTLS,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	return &defaultHTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &backoffTransport{base: transport},
		},
	}
}

// Do executes the HTTP request.
func (c *defaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// backoffTransport wraps an http.RoundTripper with retries for transient
// failures (429 and 5xx).
type backoffTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper with bounded exponential backoff.
func (t *backoffTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	const maxAttempts = 3

	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		resp, err := t.base.RoundTrip(req)
		if err == nil && !transientStatus(resp.StatusCode) {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			resp.Body.Close()
		}

		if attempt == maxAttempts-1 {
			break
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: retries exhausted", ErrRequestFailed)
}

// transientStatus reports whether a status code indicates a transient failure.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
