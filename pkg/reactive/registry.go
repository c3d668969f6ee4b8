package reactive

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/errors"
)

// DefaultDisposeTimeout is the grace period between the last reference
// leaving an auto-dispose holder and its removal from the registry.
const DefaultDisposeTimeout = 30 * time.Second

// skipReportThreshold is the safety valve for re-entrant propagation. Skips
// beyond this count in one mutation cycle are reported as a probable
// notification overflow; below it they are the normal diamond-shape dedup.
const skipReportThreshold = 64

// Registry owns all live state holders, one per identity. Creation is
// lazy: the first lookup for an identity constructs the instance through
// its factory, later lookups reuse it.
//
// Mutation and propagation are single-threaded by contract. The registry
// locks its instance map, and each holder guards its reference and timer
// state with its own lock, so dispose timers firing on background
// goroutines stay consistent with the caller's attach and detach calls.
type Registry struct {
	mu        sync.Mutex
	instances map[Identity]*holderCore

	disposeTimeout time.Duration

	// re-entrancy guard for notification propagation, consistent within a
	// single synchronous mutation chain
	propagating map[*holderCore]struct{}
	skipped     int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDisposeTimeout sets the default auto-dispose grace period.
func WithDisposeTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.disposeTimeout = d
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		instances:      make(map[Identity]*holderCore),
		disposeTimeout: DefaultDisposeTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistry = NewRegistry()
	defaultMu       sync.RWMutex
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRegistry
}

// SetDefault replaces the process-wide registry.
// Pass nil to install a fresh empty one (useful between test cases).
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if r == nil {
		r = NewRegistry()
	}
	defaultRegistry = r
}

// New creates a holder for a fresh value of type T under a process-unique
// key (override with WithKey). If a holder already exists for the resulting
// identity it is returned as-is and the factory is not called.
func New[T any](r *Registry, create func() T, opts ...Option[T]) (*Notifier[T], error) {
	cfg := holderConfig[T]{equals: defaultEquals[T]}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.key == "" {
		cfg.key = NewKey()
	}
	identity := IdentityOf[T](cfg.key)

	r.mu.Lock()
	existing, ok := r.instances[identity]
	r.mu.Unlock()
	if ok {
		n := existing.owner.(*Notifier[T])
		if len(cfg.related) > 0 {
			if err := Relate(n, cfg.related...); err != nil {
				return nil, err
			}
		}
		return n, nil
	}

	n := &Notifier[T]{equals: cfg.equals, machine: cfg.machine}
	core := &holderCore{
		identity:       identity,
		registry:       r,
		owner:          n,
		referenceIDs:   make(map[string]struct{}),
		autoDispose:    cfg.autoDispose,
		disposeTimeout: cfg.disposeTimeout,
	}
	n.core = core
	core.valueAny = func() any { return n.value }
	core.preview = func() string { return previewOf(n.value) }
	core.updateJSON = func(data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		n.UpdateState(v)
		return nil
	}
	if cfg.machine != nil {
		core.machineDispose = cfg.machine.DisposeMachine
		core.variantTag = cfg.machine.VariantTag
	}

	// link edges before the factory runs so Init can read related state
	if len(cfg.related) > 0 {
		if err := Relate(n, cfg.related...); err != nil {
			return nil, err
		}
	}
	n.value = create()

	r.mu.Lock()
	r.instances[identity] = core
	r.mu.Unlock()
	return n, nil
}

// GetOrCreate returns the holder registered under (T, key), constructing it
// through create on first access. Idempotent for the same identity.
func GetOrCreate[T any](r *Registry, key string, create func() T, opts ...Option[T]) (*Notifier[T], error) {
	return New(r, create, append([]Option[T]{WithKey[T](key)}, opts...)...)
}

// GetByKey returns the holder registered under (T, key), or NotFoundError.
func GetByKey[T any](r *Registry, key string) (*Notifier[T], error) {
	identity := IdentityOf[T](key)
	r.mu.Lock()
	core, ok := r.instances[identity]
	r.mu.Unlock()
	if !ok {
		return nil, &NotFoundError{Identity: identity}
	}
	return core.owner.(*Notifier[T]), nil
}

// RemoveByIdentity disposes and unregisters the holder with the given
// identity. Reports whether anything was removed.
func (r *Registry) RemoveByIdentity(id Identity) bool {
	r.mu.Lock()
	core, ok := r.instances[id]
	if ok {
		delete(r.instances, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	core.dispose()
	return true
}

// RemoveByType disposes and unregisters every holder of type T, returning
// how many were removed.
func RemoveByType[T any](r *Registry) int {
	typeName := TypeName[T]()
	r.mu.Lock()
	var victims []*holderCore
	for id, core := range r.instances {
		if id.Type == typeName {
			victims = append(victims, core)
			delete(r.instances, id)
		}
	}
	r.mu.Unlock()
	for _, core := range victims {
		core.dispose()
	}
	return len(victims)
}

// ClearAll disposes every holder (machine hooks run first) and empties the
// registry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	victims := make([]*holderCore, 0, len(r.instances))
	for _, core := range r.instances {
		victims = append(victims, core)
	}
	r.instances = make(map[Identity]*holderCore)
	r.mu.Unlock()
	for _, core := range victims {
		core.dispose()
	}
}

// Len returns the number of live holders.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// remove unregisters and disposes a specific core. Used by Notifier.Dispose.
func (r *Registry) remove(c *holderCore) {
	r.mu.Lock()
	delete(r.instances, c.identity)
	r.mu.Unlock()
	c.dispose()
}

// isPropagating reports whether c is mid-notification in the current
// mutation chain.
func (r *Registry) isPropagating(c *holderCore) bool {
	_, ok := r.propagating[c]
	return ok
}

// enterMutation marks c as mid-notification. Returns true when this is the
// outermost mutation of the current synchronous call chain; the guard set
// lives until that outermost mutation finishes.
func (r *Registry) enterMutation(c *holderCore) bool {
	root := r.propagating == nil
	if root {
		r.propagating = make(map[*holderCore]struct{})
	}
	r.propagating[c] = struct{}{}
	return root
}

// leaveMutation clears the guard at the end of the outermost mutation and
// reports a notification overflow if the skip count tripped the valve.
func (r *Registry) leaveMutation(c *holderCore) {
	if r.skipped > skipReportThreshold {
		errors.Report(&errors.StateError{
			Op:       "reactive.propagate",
			Kind:     errors.KindGraph,
			Err:      fmt.Errorf("notification overflow: %d re-entrant propagations skipped", r.skipped),
			Instance: c.identity.String(),
		})
	}
	r.skipped = 0
	r.propagating = nil
}

// InstanceInfo is a diagnostic snapshot of one live holder, consumed by the
// inspector side-channel.
type InstanceInfo struct {
	Identity       Identity
	TypeName       string
	HasListeners   bool
	ReferenceCount int
	AutoDispose    bool
	RelatedCount   int
	ValuePreview   string
	VariantTag     string
}

// Snapshot lists every live holder, ordered by identity for stable output.
func (r *Registry) Snapshot() []InstanceInfo {
	r.mu.Lock()
	infos := make([]InstanceInfo, 0, len(r.instances))
	for id, core := range r.instances {
		core.mu.Lock()
		refs := len(core.referenceIDs)
		core.mu.Unlock()
		info := InstanceInfo{
			Identity:       id,
			TypeName:       id.Type,
			HasListeners:   len(core.listeners) > 0 || core.single != nil,
			ReferenceCount: refs,
			AutoDispose:    core.autoDispose,
			RelatedCount:   len(core.related),
			ValuePreview:   core.preview(),
		}
		if core.variantTag != nil {
			info.VariantTag = core.variantTag()
		}
		infos = append(infos, info)
	}
	r.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Identity.String() < infos[j].Identity.String()
	})
	return infos
}

// UpdateValue is the inspector's debug bypass: it decodes raw JSON into the
// holder's value type and routes it through the normal equality check and
// propagation path.
func (r *Registry) UpdateValue(id Identity, raw []byte) error {
	r.mu.Lock()
	core, ok := r.instances[id]
	r.mu.Unlock()
	if !ok {
		return &NotFoundError{Identity: id}
	}
	return core.updateJSON(raw)
}
