package reactive

import (
	"sync"
	"time"
)

// Holder is satisfied by any state holder regardless of its value type.
// Registry bookkeeping, graph edges and propagation operate on Holder so
// heterogeneous instances can be related to each other.
type Holder interface {
	holder() *holderCore
}

type listenerEntry struct {
	id int
	fn func()
}

type relatedEntry struct {
	typeName string
	core     *holderCore
}

// holderCore carries the untyped half of a state holder: identity, graph
// edges, listener bookkeeping and lifecycle state. The typed value and
// mutation path live on Notifier[T].
type holderCore struct {
	identity Identity
	registry *Registry
	owner    any // the *Notifier[T] this core belongs to

	listeners      []listenerEntry
	nextListenerID int
	single         func() // single-slot Listen callback

	parents []*holderCore // holders this one republishes to
	related []relatedEntry

	// mu guards the lifecycle fields below. Reference counting and the
	// dispose timer cross goroutines: references come and go on the
	// caller's goroutine while the expiry timer fires on its own.
	mu             sync.Mutex
	referenceIDs   map[string]struct{}
	disposeTimer   *time.Timer
	disposers      []func()
	disposed       bool
	autoDispose    bool
	disposeTimeout time.Duration

	// untyped bridges installed at creation, used by From, the registry
	// snapshot and the inspector update path
	valueAny   func() any
	preview    func() string
	updateJSON func(data []byte) error
	variantTag func() string

	machineDispose func()
}

func (c *holderCore) holder() *holderCore { return c }

func (c *holderCore) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// notifyOwn invokes the holder's own listeners in registration order,
// then the single Listen slot. Iterates over a snapshot so a callback may
// unsubscribe without corrupting the walk.
func (c *holderCore) notifyOwn() {
	if len(c.listeners) > 0 {
		snapshot := make([]listenerEntry, len(c.listeners))
		copy(snapshot, c.listeners)
		for _, e := range snapshot {
			e.fn()
		}
	}
	if c.single != nil {
		c.single()
	}
}

// propagateToParents republishes "something changed" up the related-state
// graph. A holder already mid-notification in the current mutation cycle is
// skipped, which deduplicates diamond shapes and bounds re-entrant chains.
func (c *holderCore) propagateToParents() {
	r := c.registry
	for _, p := range c.parents {
		if p.isDisposed() {
			continue
		}
		if _, busy := r.propagating[p]; busy {
			r.skipped++
			continue
		}
		r.propagating[p] = struct{}{}
		p.notifyOwn()
		p.propagateToParents()
	}
}

func (c *holderCore) addListener(fn func()) func() {
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, e := range c.listeners {
			if e.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *holderCore) removeParent(p *holderCore) {
	for i, existing := range c.parents {
		if existing == p {
			c.parents = append(c.parents[:i], c.parents[i+1:]...)
			return
		}
	}
}

func (c *holderCore) removeRelated(child *holderCore) {
	for i, e := range c.related {
		if e.core == child {
			c.related = append(c.related[:i], c.related[i+1:]...)
			return
		}
	}
}

// onDispose registers a cleanup function run when the holder is disposed.
// Returns an unregister function. Cleanups run in reverse order.
func (c *holderCore) onDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		cleanup()
		return func() {}
	}
	index := len(c.disposers)
	c.disposers = append(c.disposers, cleanup)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		if index < len(c.disposers) {
			c.disposers[index] = nil
		}
		c.mu.Unlock()
	}
}

// dispose tears the holder down: machine hooks first, then registered
// cleanups (LIFO), then graph unlinking. Idempotent. Removal from the
// registry map is the caller's job.
func (c *holderCore) dispose() {
	if !c.beginDispose(false) {
		return
	}
	c.teardown()
}

// beginDispose marks the holder disposed and clears reference and timer
// state under the lifecycle lock. With ifUnreferenced set the transition is
// refused while references remain. Reports whether the caller now owns the
// teardown; at most one caller ever does.
func (c *holderCore) beginDispose(ifUnreferenced bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || (ifUnreferenced && len(c.referenceIDs) != 0) {
		return false
	}
	c.disposed = true
	if c.disposeTimer != nil {
		c.disposeTimer.Stop()
		c.disposeTimer = nil
	}
	c.referenceIDs = nil
	return true
}

// teardown runs the disposal sequence after beginDispose. Mutations already
// no-op on the disposed flag, so propagation never re-enters a holder being
// torn down.
func (c *holderCore) teardown() {
	if c.machineDispose != nil {
		c.machineDispose()
	}
	c.mu.Lock()
	disposers := c.disposers
	c.disposers = nil
	c.mu.Unlock()
	for i := len(disposers) - 1; i >= 0; i-- {
		if disposers[i] != nil {
			disposers[i]()
		}
	}

	// unlink both directions of the related-state graph
	for _, e := range c.related {
		e.core.removeParent(c)
	}
	for _, p := range c.parents {
		p.removeRelated(c)
	}
	c.related = nil
	c.parents = nil

	c.listeners = nil
	c.single = nil
}
