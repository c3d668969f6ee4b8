package viewmodel

import (
	"fmt"
	"sync"
)

// Handle is an opaque reference to the ambient UI container. The core never
// inspects it; it only carries it between the provider and callers that
// need contextual reads.
type Handle = any

// Provider is the external context collaborator. The async machine consults
// it only when WaitForContext is set, and never blocks on it otherwise.
type Provider interface {
	// IsReady reports whether a context is available.
	IsReady() bool
	// Current returns the context handle, if one is available.
	Current() (Handle, bool)
}

// ReadySignaler is optionally implemented by providers that can push
// readiness. Providers without it are polled.
type ReadySignaler interface {
	// NotifyReady registers fn to run once the provider becomes ready.
	// Returns a cancel function.
	NotifyReady(fn func()) (cancel func())
}

// ContextUnavailableError is returned when a required external context was
// requested while the provider was not ready.
type ContextUnavailableError struct {
	// Op labels the operation that needed the context.
	Op string
}

func (e *ContextUnavailableError) Error() string {
	return fmt.Sprintf("context unavailable during %s", e.Op)
}

var (
	providerMu sync.RWMutex
	provider   Provider = unreadyProvider{}
)

// SetProvider configures the global context provider.
// Pass nil to restore the never-ready default.
func SetProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if p == nil {
		provider = unreadyProvider{}
	} else {
		provider = p
	}
}

// CurrentProvider returns the configured context provider.
func CurrentProvider() Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// RequireCurrent returns the current context handle or
// ContextUnavailableError labeled with op.
func RequireCurrent(op string) (Handle, error) {
	p := CurrentProvider()
	if !p.IsReady() {
		return nil, &ContextUnavailableError{Op: op}
	}
	h, ok := p.Current()
	if !ok {
		return nil, &ContextUnavailableError{Op: op}
	}
	return h, nil
}

// unreadyProvider is the default: no context, never ready.
type unreadyProvider struct{}

func (unreadyProvider) IsReady() bool { return false }

func (unreadyProvider) Current() (Handle, bool) { return nil, false }

// StaticProvider is a settable Provider for applications and tests. It
// pushes readiness to subscribed waiters, so context-gated loads start
// without polling.
type StaticProvider struct {
	mu      sync.Mutex
	handle  Handle
	ready   bool
	waiters map[int]func()
	nextID  int
}

// NewStaticProvider creates a provider that starts unready.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{waiters: make(map[int]func())}
}

// SetReady installs the context handle and wakes pending waiters.
func (p *StaticProvider) SetReady(h Handle) {
	p.mu.Lock()
	p.handle = h
	p.ready = true
	waiters := make([]func(), 0, len(p.waiters))
	for _, fn := range p.waiters {
		waiters = append(waiters, fn)
	}
	p.waiters = make(map[int]func())
	p.mu.Unlock()
	for _, fn := range waiters {
		fn()
	}
}

// Clear drops the context handle and marks the provider unready.
func (p *StaticProvider) Clear() {
	p.mu.Lock()
	p.handle = nil
	p.ready = false
	p.mu.Unlock()
}

// IsReady implements Provider.
func (p *StaticProvider) IsReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Current implements Provider.
func (p *StaticProvider) Current() (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return nil, false
	}
	return p.handle, true
}

// NotifyReady implements ReadySignaler.
func (p *StaticProvider) NotifyReady(fn func()) func() {
	p.mu.Lock()
	if p.ready {
		p.mu.Unlock()
		fn()
		return func() {}
	}
	id := p.nextID
	p.nextID++
	p.waiters[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.waiters, id)
		p.mu.Unlock()
	}
}
