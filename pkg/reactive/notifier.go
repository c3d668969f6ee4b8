package reactive

import (
	"fmt"
	"reflect"
)

// Notifier is a reactive state holder for a single value of type T.
//
// Obtain instances from a Registry with New or GetOrCreate; the registry
// guarantees one live instance per identity. Mutate through the four
// update variants; dependent listeners and related parent holders are
// notified automatically.
//
// Notifier is NOT thread-safe. All mutation and propagation run
// synchronously to completion on the calling goroutine; use a single
// goroutine (typically the UI thread) for all access to a given holder.
type Notifier[T any] struct {
	core    *holderCore
	value   T
	equals  func(a, b T) bool
	machine StateMachine[T]
}

// Value returns the current value without registering any subscription.
func (n *Notifier[T]) Value() T {
	return n.value
}

// Identity returns the (type, key) identity of this holder.
func (n *Notifier[T]) Identity() Identity {
	return n.core.identity
}

// IsDisposed reports whether the holder has been disposed.
func (n *Notifier[T]) IsDisposed() bool {
	return n.core.isDisposed()
}

func (n *Notifier[T]) holder() *holderCore { return n.core }

// UpdateState replaces the value and notifies. If the new value is equal to
// the current one, nothing happens: no listeners, no propagation. Otherwise
// the holder's own listeners fire in registration order and every parent in
// the related-state graph republishes.
func (n *Notifier[T]) UpdateState(value T) {
	n.replace(value, true)
}

// TransformState applies f to the current value and notifies, with the same
// equality short-circuit as UpdateState.
func (n *Notifier[T]) TransformState(f func(T) T) {
	n.replace(f(n.value), true)
}

// UpdateSilently replaces the value without invoking the holder's own
// listeners. Parent propagation and the machine hook still run.
func (n *Notifier[T]) UpdateSilently(value T) {
	n.replace(value, false)
}

// TransformStateSilently applies f to the current value without invoking the
// holder's own listeners.
func (n *Notifier[T]) TransformStateSilently(f func(T) T) {
	n.replace(f(n.value), false)
}

// replace is the single mutation path shared by all four update variants.
func (n *Notifier[T]) replace(next T, notify bool) {
	c := n.core
	if c.isDisposed() {
		return
	}
	if n.equals(n.value, next) {
		return
	}
	prev := n.value
	n.value = next

	r := c.registry
	busy := r.isPropagating(c)
	root := r.enterMutation(c)
	if n.machine != nil {
		n.machine.OnValueReplaced(prev, next, !notify)
	}
	if busy {
		// a chain looped back into a holder mid-notification: the value
		// swap stands, the repeated notification is skipped
		r.skipped++
	} else {
		if notify {
			c.notifyOwn()
		}
		c.propagateToParents()
	}
	if root {
		r.leaveMutation(c)
	}
}

// Listen registers the holder's single external callback, replacing any
// previous one, and returns the current value synchronously. The callback
// fires on every subsequent notifying mutation (never on silent ones) until
// StopListening is called.
func (n *Notifier[T]) Listen(callback func(T)) T {
	if callback == nil {
		n.core.single = nil
		return n.value
	}
	n.core.single = func() {
		callback(n.value)
	}
	return n.value
}

// StopListening removes the callback registered with Listen.
func (n *Notifier[T]) StopListening() {
	n.core.single = nil
}

// AddListener appends a change callback, preserving registration order.
// Returns an unsubscribe function. Unlike the Listen slot, any number of
// listeners may be attached this way.
func (n *Notifier[T]) AddListener(fn func()) func() {
	return n.core.addListener(fn)
}

// ListenerCount returns the number of listeners attached via AddListener.
func (n *Notifier[T]) ListenerCount() int {
	return len(n.core.listeners)
}

// HasListeners reports whether any listener or Listen slot is attached.
func (n *Notifier[T]) HasListeners() bool {
	return len(n.core.listeners) > 0 || n.core.single != nil
}

// OnDispose registers a cleanup function run when the holder is disposed.
// Returns an unregister function. Cleanups run in reverse order.
func (n *Notifier[T]) OnDispose(cleanup func()) func() {
	return n.core.onDispose(cleanup)
}

// Dispose removes the holder from its registry and tears it down.
// Idempotent; mutations after disposal are no-ops.
func (n *Notifier[T]) Dispose() {
	n.core.registry.remove(n.core)
}

// From locates a related holder of the parent whose value has type R,
// optionally disambiguated by key, and returns its current value. Returns
// RelatedStateNotFoundError listing the available types when none match.
func From[R any](parent Holder, key ...string) (R, error) {
	var zero R
	c := parent.holder()
	want := TypeName[R]()
	available := make([]string, 0, len(c.related))
	for _, e := range c.related {
		available = append(available, e.typeName)
		if e.typeName != want {
			continue
		}
		if len(key) > 0 && key[0] != e.core.identity.Key {
			continue
		}
		return e.core.valueAny().(R), nil
	}
	err := &RelatedStateNotFoundError{
		Holder:    c.identity,
		Requested: want,
		Available: available,
	}
	if len(key) > 0 {
		err.Key = key[0]
	}
	return zero, err
}

// defaultEquals compares with == when the dynamic type is comparable and
// falls back to reflect.DeepEqual for slices, maps and the like.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	ta, tb := reflect.TypeOf(av), reflect.TypeOf(bv)
	if ta == tb && ta.Comparable() {
		return av == bv
	}
	return reflect.DeepEqual(av, bv)
}

// previewOf renders a short diagnostic preview of a value.
func previewOf(v any) string {
	const maxPreview = 120
	s := fmt.Sprintf("%v", v)
	if len(s) > maxPreview {
		s = s[:maxPreview] + "..."
	}
	return s
}
