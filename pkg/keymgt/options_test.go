package keymgt

import (
	"net/http"
	"testing"
)

func TestRequestOptions_UnsetHeaders(t *testing.T) {
	opts := NewRequestOptions()

	if headers := opts.Headers(); headers != nil {
		t.Errorf("Expected nil headers for unset options, got %v", headers)
	}
}

func TestRequestOptions_EmptyHeadersDistinctFromUnset(t *testing.T) {
	opts := NewRequestOptions().SetHeaders(map[string]string{})

	headers := opts.Headers()
	if headers == nil {
		t.Fatal("Expected non-nil empty map for explicitly empty headers")
	}

	if len(headers) != 0 {
		t.Errorf("Expected empty map, got %v", headers)
	}
}

func TestRequestOptions_SetHeadersChaining(t *testing.T) {
	opts := NewRequestOptions()

	if got := opts.SetHeaders(map[string]string{"X-Test": "1"}); got != opts {
		t.Error("Expected SetHeaders to return the receiver for chaining")
	}
}

func TestRequestOptions_SetHeadersCopiesInput(t *testing.T) {
	input := map[string]string{"X-Tenant": "acme"}
	opts := NewRequestOptions().SetHeaders(input)

	// Mutating the original map must not change the options.
	input["X-Tenant"] = "other"
	input["X-Extra"] = "nope"

	headers := opts.Headers()
	if headers["X-Tenant"] != "acme" {
		t.Errorf("Expected X-Tenant 'acme', got %q", headers["X-Tenant"])
	}

	if _, ok := headers["X-Extra"]; ok {
		t.Error("Expected later additions to the input map to be invisible")
	}
}

func TestRequestOptions_HeadersReturnsCopy(t *testing.T) {
	opts := NewRequestOptions().SetHeaders(map[string]string{"X-Tenant": "acme"})

	first := opts.Headers()
	first["X-Tenant"] = "mutated"

	second := opts.Headers()
	if second["X-Tenant"] != "acme" {
		t.Errorf("Expected internal headers to be unaffected, got %q", second["X-Tenant"])
	}
}

func TestRequestOptions_SetHeadersNilClears(t *testing.T) {
	opts := NewRequestOptions().SetHeaders(map[string]string{"X-Tenant": "acme"})
	opts.SetHeaders(nil)

	if headers := opts.Headers(); headers != nil {
		t.Errorf("Expected nil headers after clearing, got %v", headers)
	}
}

func TestRequestOptions_Apply(t *testing.T) {
	opts := NewRequestOptions().SetHeaders(map[string]string{
		"X-Tenant":  "acme",
		"X-Trace-1": "abc",
	})

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}

	opts.apply(req)

	if got := req.Header.Get("X-Tenant"); got != "acme" {
		t.Errorf("Expected X-Tenant 'acme', got %q", got)
	}

	if got := req.Header.Get("X-Trace-1"); got != "abc" {
		t.Errorf("Expected X-Trace-1 'abc', got %q", got)
	}
}

func TestRequestOptions_ApplyNil(t *testing.T) {
	var opts *RequestOptions

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}

	// Must not panic.
	opts.apply(req)

	if len(req.Header) != 0 {
		t.Errorf("Expected no headers from nil options, got %v", req.Header)
	}
}
