package keymgt

import (
	"sync"
	"sync/atomic"
)

// Registry holds the process-scoped client handle with lazy-once
// initialization. The first call to Instance resolves the configuration and
// constructs the handle; every later call returns the same handle without
// synchronization cost.
//
// A failed first attempt publishes nothing, so a later call retries
// resolution from scratch. Once construction has succeeded there is no way
// to replace or invalidate the handle; the handle models a process-lifetime
// credentialed connection. Tests that need isolation construct their own
// Registry values instead of using the package-level default.
type Registry struct {
	resolver *Resolver
	opts     []Option

	mu     sync.Mutex
	handle atomic.Pointer[Client]
}

// NewRegistry returns a Registry that constructs its handle from the given
// resolver. A nil resolver means the default search locations. Options are
// passed through to the client constructor.
func NewRegistry(resolver *Resolver, opts ...Option) *Registry {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Registry{resolver: resolver, opts: opts}
}

// Instance returns the client handle, constructing it on first use.
//
// Under concurrent first use, construction happens exactly once and every
// caller receives the same fully constructed handle. Instance is fallible
// only until the first construction succeeds; afterwards it always returns
// the cached handle.
func (r *Registry) Instance() (*Client, error) {
	if c := r.handle.Load(); c != nil {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have finished construction while we waited.
	if c := r.handle.Load(); c != nil {
		return c, nil
	}

	cfg, err := r.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	c, err := NewClient(cfg, r.opts...)
	if err != nil {
		return nil, err
	}

	r.handle.Store(c)
	return c, nil
}

// defaultRegistry backs the package-level Instance helper.
var defaultRegistry = NewRegistry(nil)

// Instance returns the client handle for the default access path.
func Instance() (*Client, error) {
	return defaultRegistry.Instance()
}
