package keymgt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/magiconair/properties"
)

// Property keys recognized in a configuration source.
const (
	propServerURL          = "serverUrl"
	propUsername           = "username"
	propPassword           = "password"
	propClientID           = "clientId"
	propClientSecret       = "clientSecret"
	propTokenEndpoint      = "tokenEndpoint"
	propJWKSEndpoint       = "jwksEndpoint"
	propIssuer             = "issuer"
	propAudience           = "audience"
	propScopes             = "scopes"
	propRequestTimeout     = "requestTimeout"
	propClockSkew          = "clockSkew"
	propInsecureSkipVerify = "insecureSkipVerify"
)

// Config contains the connection parameters for reaching the key manager
// service. It is resolved once by a Resolver and is not modified afterwards;
// the client constructed from it owns it for the lifetime of the process.
type Config struct {
	// ServerURL is the base URL of the key manager service.
	ServerURL string

	// Username and Password are used for HTTP basic authentication when no
	// OAuth2 client credentials are configured.
	Username string
	Password string

	// ClientID, ClientSecret and TokenURL configure OAuth2 client credentials
	// authentication for the client's own requests. When TokenURL is set,
	// bearer tokens are used instead of basic authentication.
	ClientID     string
	ClientSecret string
	TokenURL     string

	// Scopes are requested when obtaining tokens via client credentials.
	Scopes []string

	// JWKSURL is the key manager's JWKS endpoint, used for local token
	// verification. Optional; VerifyLocal is unavailable without it.
	JWKSURL string

	// Issuer is the expected issuer claim for locally verified tokens (optional).
	Issuer string

	// Audience is the expected audience claim for locally verified tokens (optional).
	Audience string

	// ClockSkew allows for clock drift during local token verification.
	ClockSkew time.Duration

	// Timeout is the HTTP client timeout for requests to the service.
	Timeout time.Duration

	// TLSConfig allows custom TLS configuration.
	TLSConfig *tls.Config

	// InsecureSkipVerify disables TLS certificate verification (not recommended).
	InsecureSkipVerify bool
}

// Validate checks if the configuration is complete and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfiguration)
	}

	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfiguration, propServerURL)
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidConfiguration, propServerURL)
	}

	// Either basic credentials or a complete client credentials triple.
	hasBasic := strings.TrimSpace(c.Username) != ""
	hasOAuth := strings.TrimSpace(c.TokenURL) != ""

	if hasOAuth {
		if strings.TrimSpace(c.ClientID) == "" {
			return fmt.Errorf("%w: %s required with %s", ErrInvalidConfiguration, propClientID, propTokenEndpoint)
		}
		if strings.TrimSpace(c.ClientSecret) == "" {
			return fmt.Errorf("%w: %s required with %s", ErrInvalidConfiguration, propClientSecret, propTokenEndpoint)
		}
	} else if !hasBasic {
		return fmt.Errorf("%w: credentials required (%s/%s or %s)", ErrInvalidConfiguration, propUsername, propPassword, propTokenEndpoint)
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.ClockSkew <= 0 {
		c.ClockSkew = 60 * time.Second
	}

	return nil
}

// configFromProperties maps a parsed property set onto a Config.
// Malformed values surface as ErrConfigParse.
func configFromProperties(p *properties.Properties) (*Config, error) {
	cfg := &Config{
		ServerURL:    p.GetString(propServerURL, ""),
		Username:     p.GetString(propUsername, ""),
		Password:     p.GetString(propPassword, ""),
		ClientID:     p.GetString(propClientID, ""),
		ClientSecret: p.GetString(propClientSecret, ""),
		TokenURL:     p.GetString(propTokenEndpoint, ""),
		JWKSURL:      p.GetString(propJWKSEndpoint, ""),
		Issuer:       p.GetString(propIssuer, ""),
		Audience:     p.GetString(propAudience, ""),
	}

	if scopes := p.GetString(propScopes, ""); scopes != "" {
		cfg.Scopes = splitScopes(scopes)
	}

	timeout, err := parseDurationProperty(p, propRequestTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout

	skew, err := parseDurationProperty(p, propClockSkew)
	if err != nil {
		return nil, err
	}
	cfg.ClockSkew = skew

	if raw, ok := p.Get(propInsecureSkipVerify); ok {
		switch strings.TrimSpace(raw) {
		case "true":
			cfg.InsecureSkipVerify = true
		case "false", "":
		default:
			return nil, fmt.Errorf("%w: %s: invalid boolean %q", ErrConfigParse, propInsecureSkipVerify, raw)
		}
	}

	return cfg, nil
}

// parseDurationProperty reads an optional duration property such as "30s".
func parseDurationProperty(p *properties.Properties, key string) (time.Duration, error) {
	raw, ok := p.Get(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: invalid duration %q", ErrConfigParse, key, raw)
	}

	return d, nil
}

// splitScopes splits a scope list on whitespace and commas.
func splitScopes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	scopes := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			scopes = append(scopes, f)
		}
	}

	if len(scopes) == 0 {
		return nil
	}
	return scopes
}
