package viewmodel

import (
	"fmt"

	"github.com/go-drift/reactive/pkg/reactive"
)

// Phase tracks a view model through its lifecycle.
//
//	Constructed ──► Initialized ──► Active ──► Disposed
//
// Init runs exactly once, synchronously, before any observer can attach.
// Disposed is terminal.
type Phase int

const (
	// PhaseConstructed means the model exists but Init has not completed.
	PhaseConstructed Phase = iota
	// PhaseInitialized means Init produced the initial state.
	PhaseInitialized
	// PhaseActive means at least one mutation has been applied.
	PhaseActive
	// PhaseDisposed means the view model has been torn down.
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseConstructed:
		return "constructed"
	case PhaseInitialized:
		return "initialized"
	case PhaseActive:
		return "active"
	case PhaseDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Model supplies the behavior of a synchronous view model. Embed ModelBase
// to pick up no-op defaults and implement only what you need, the same way
// widget states embed a state base elsewhere in this framework.
type Model[T any] interface {
	// Init produces the initial state. Called exactly once, synchronously,
	// during construction.
	Init() T
	// OnStateChanged runs after every value swap, including silent updates.
	OnStateChanged(prev, next T)
	// Empty produces the reset state used by CleanState.
	Empty() T
	// OnDispose runs once during disposal.
	OnDispose()
}

// ModelBase provides no-op defaults for everything except Init.
type ModelBase[T any] struct{}

// OnStateChanged is a no-op default implementation.
func (ModelBase[T]) OnStateChanged(prev, next T) {}

// Empty returns the zero value of T.
func (ModelBase[T]) Empty() T {
	var zero T
	return zero
}

// OnDispose is a no-op default implementation.
func (ModelBase[T]) OnDispose() {}

// ViewModel is a state holder specialized with a one-time synchronous
// initialization step and a post-mutation hook. It embeds the underlying
// Notifier, so all four update variants and the subscription primitives
// are available directly.
//
// OnStateChanged fires on every mutation, silent ones included; this is
// the one place where silent updates still produce an observable callback.
type ViewModel[T any] struct {
	*reactive.Notifier[T]
	model Model[T]
	phase Phase
}

// New constructs a view model holder in reg. The model's Init runs
// synchronously before New returns; the holder starts in PhaseInitialized.
func New[T any](reg *reactive.Registry, model Model[T], opts ...reactive.Option[T]) (*ViewModel[T], error) {
	vm := &ViewModel[T]{model: model, phase: PhaseConstructed}
	n, err := reactive.New(reg, model.Init,
		append(opts, reactive.WithMachine[T](vm))...)
	if err != nil {
		return nil, err
	}
	vm.Notifier = n
	vm.phase = PhaseInitialized
	return vm, nil
}

// Phase returns the current lifecycle phase.
func (vm *ViewModel[T]) Phase() Phase {
	return vm.phase
}

// CleanState resets the value to the model's Empty state while keeping the
// instance alive and attached.
func (vm *ViewModel[T]) CleanState() {
	vm.UpdateState(vm.model.Empty())
}

// ListenVM registers the single state callback, replacing any previous one,
// and returns the current state synchronously. With callOnInit the callback
// also fires once immediately.
func (vm *ViewModel[T]) ListenVM(callback func(T), callOnInit bool) T {
	current := vm.Listen(callback)
	if callOnInit && callback != nil {
		callback(current)
	}
	return current
}

// StopListeningVM removes the callback registered with ListenVM.
func (vm *ViewModel[T]) StopListeningVM() {
	vm.StopListening()
}

// OnValueReplaced implements reactive.StateMachine. It advances the phase
// and invokes the model hook regardless of whether listeners were notified.
func (vm *ViewModel[T]) OnValueReplaced(prev, next T, silent bool) {
	if vm.phase == PhaseInitialized {
		vm.phase = PhaseActive
	}
	vm.model.OnStateChanged(prev, next)
}

// DisposeMachine implements reactive.StateMachine. Idempotent.
func (vm *ViewModel[T]) DisposeMachine() {
	if vm.phase == PhaseDisposed {
		return
	}
	vm.phase = PhaseDisposed
	vm.model.OnDispose()
}

// VariantTag implements reactive.StateMachine.
func (vm *ViewModel[T]) VariantTag() string {
	return vm.phase.String()
}
