package reactive

import "time"

// Option configures a holder at creation time.
type Option[T any] func(*holderConfig[T])

type holderConfig[T any] struct {
	key            string
	related        []Holder
	autoDispose    bool
	disposeTimeout time.Duration
	equals         func(a, b T) bool
	machine        StateMachine[T]
}

// WithKey pins the instance key instead of generating a process-unique one.
// Two creations with the same type and key resolve to the same instance.
func WithKey[T any](key string) Option[T] {
	return func(c *holderConfig[T]) {
		c.key = key
	}
}

// WithRelated links the new holder as a parent of the given holders.
// Updates to any related holder republish through this one. Linking is
// validated first; a configuration that would close a cycle is rejected
// with CircularDependencyError and no edges are added.
func WithRelated[T any](related ...Holder) Option[T] {
	return func(c *holderConfig[T]) {
		c.related = append(c.related, related...)
	}
}

// WithAutoDispose enables reference-counted disposal. When the last
// reference is removed a timer starts; if no reference is added before it
// fires, the instance is removed from the registry and disposed.
// A zero timeout uses the registry default.
func WithAutoDispose[T any](timeout time.Duration) Option[T] {
	return func(c *holderConfig[T]) {
		c.autoDispose = true
		c.disposeTimeout = timeout
	}
}

// WithEquals overrides the equality check used to suppress no-op updates.
// The default compares with == for comparable dynamic types and falls back
// to reflect.DeepEqual otherwise.
func WithEquals[T any](equals func(a, b T) bool) Option[T] {
	return func(c *holderConfig[T]) {
		c.equals = equals
	}
}

// WithMachine attaches a state machine strategy to the holder. The machine
// observes every value replacement (notifying and silent) and participates
// in disposal. The ViewModel and Async layers are built on this hook.
func WithMachine[T any](m StateMachine[T]) Option[T] {
	return func(c *holderConfig[T]) {
		c.machine = m
	}
}

// StateMachine is the strategy object layered onto a holder by the
// ViewModel and Async state machines. The holder shares one mutation and
// propagation path; machines add their transition rules through these hooks.
type StateMachine[T any] interface {
	// OnValueReplaced runs after every value swap, before listeners are
	// notified. silent reports whether the mutation suppressed the
	// holder's own listeners.
	OnValueReplaced(prev, next T, silent bool)
	// DisposeMachine runs once when the holder is disposed or reinitialized.
	DisposeMachine()
	// VariantTag names the machine's current state for diagnostics.
	VariantTag() string
}
