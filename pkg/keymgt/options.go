package keymgt

import "net/http"

// RequestOptions carries custom headers for a single remote call, layered on
// top of the handle's defaults. Instances are created fresh per call and are
// never shared between calls, so no synchronization is required.
//
// An options value distinguishes "no headers set" from "explicitly set to an
// empty mapping": Headers returns nil in the first case and a non-nil empty
// map in the second. Header names and values are not validated here; that is
// the transport's concern.
type RequestOptions struct {
	headers map[string]string
}

// NewRequestOptions returns an empty options value with no headers set.
func NewRequestOptions() *RequestOptions {
	return &RequestOptions{}
}

// SetHeaders sets the custom headers for the call and returns the receiver
// for chaining. The mapping is copied, so later mutation of the argument
// does not affect the options. Passing nil clears the headers back to the
// unset state.
func (o *RequestOptions) SetHeaders(headers map[string]string) *RequestOptions {
	if headers == nil {
		o.headers = nil
		return o
	}

	copied := make(map[string]string, len(headers))
	for name, value := range headers {
		copied[name] = value
	}
	o.headers = copied
	return o
}

// Headers returns a copy of the custom headers, or nil if none were set.
// Mutating the returned map does not affect the options.
func (o *RequestOptions) Headers() map[string]string {
	if o == nil || o.headers == nil {
		return nil
	}

	copied := make(map[string]string, len(o.headers))
	for name, value := range o.headers {
		copied[name] = value
	}
	return copied
}

// apply layers the custom headers onto an outbound request. Applied after
// the client's own headers so per-call values win.
func (o *RequestOptions) apply(req *http.Request) {
	if o == nil {
		return
	}
	for name, value := range o.headers {
		req.Header.Set(name, value)
	}
}

// Logger is an interface for optional logging. Implementations can log
// request and verification events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for requests to the key manager.
// Useful for testing with httptest servers or injecting custom transports.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a custom logger. If not set, no logging occurs.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
