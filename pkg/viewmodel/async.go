package viewmodel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/reactive"
)

// contextPollInterval is how often a context-gated load rechecks a provider
// that cannot push readiness.
const contextPollInterval = 10 * time.Millisecond

// AsyncModel supplies the behavior of an asynchronous view model. Embed
// AsyncModelBase for no-op defaults and implement Init.
type AsyncModel[T any] interface {
	// Init performs the asynchronous load. It runs as an independent task;
	// a returned error (or a panic, recovered at the framework boundary)
	// becomes the error variant rather than propagating.
	Init(ctx context.Context) (T, error)
	// OnAsyncStateChanged runs after every notifying state swap. Silent
	// updates intentionally skip it; they are reserved for
	// initialization-time seeding.
	OnAsyncStateChanged(prev, next AsyncState[T])
	// SetupListeners attaches listeners on other instances. Invoked after
	// each successful load that follows a RemoveListeners. Use vm.Bind to
	// record teardowns so the default RemoveListeners can stop them.
	SetupListeners(vm *AsyncViewModel[T])
	// RemoveListeners detaches everything SetupListeners attached. Invoked
	// immediately before Reload, during CleanState and during disposal.
	RemoveListeners(vm *AsyncViewModel[T])
	// OnDispose runs once during disposal, after listeners are removed.
	OnDispose()
}

// AsyncModelBase provides no-op defaults for everything except Init.
type AsyncModelBase[T any] struct{}

// OnAsyncStateChanged is a no-op default implementation.
func (AsyncModelBase[T]) OnAsyncStateChanged(prev, next AsyncState[T]) {}

// SetupListeners is a no-op default implementation.
func (AsyncModelBase[T]) SetupListeners(vm *AsyncViewModel[T]) {}

// RemoveListeners stops every teardown recorded with vm.Bind.
func (AsyncModelBase[T]) RemoveListeners(vm *AsyncViewModel[T]) {
	vm.UnbindAll()
}

// OnDispose is a no-op default implementation.
func (AsyncModelBase[T]) OnDispose() {}

// Config controls async view model construction.
type Config struct {
	// Key pins the instance key; empty generates a process-unique one.
	Key string
	// LoadOnInit schedules the initial load immediately on construction.
	LoadOnInit bool
	// WaitForContext defers the initial load until the context provider
	// reports ready. Only consulted when LoadOnInit is set.
	WaitForContext bool
}

type binding struct {
	name string
	stop func()
}

// AsyncViewModel is a state holder over AsyncState with an asynchronous
// initialization step and a deferred listener registration protocol.
//
//	initial ──► loading ──► success | empty | error
//	               ▲                     │
//	               └───── Reload() ──────┘
//
// Init and Reload run as independent tasks; disposal does not abort an
// in-flight task, it only guarantees the late result is discarded.
type AsyncViewModel[T any] struct {
	*reactive.Notifier[AsyncState[T]]
	model AsyncModel[T]
	cfg   Config

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	disposed       bool
	listenersBound bool
	bindings       []binding
}

// NewAsync constructs an async view model holder in reg. The holder starts
// in the initial variant; with cfg.LoadOnInit the load task is scheduled
// before NewAsync returns (deferred behind the context provider when
// cfg.WaitForContext is set). Call NewAsync once per key; the registry
// dedups the underlying holder by identity.
func NewAsync[T any](reg *reactive.Registry, model AsyncModel[T], cfg Config, opts ...reactive.Option[AsyncState[T]]) (*AsyncViewModel[T], error) {
	vm := &AsyncViewModel[T]{model: model, cfg: cfg}
	vm.ctx, vm.cancel = context.WithCancel(context.Background())

	o := append([]reactive.Option[AsyncState[T]]{}, opts...)
	if cfg.Key != "" {
		o = append(o, reactive.WithKey[AsyncState[T]](cfg.Key))
	}
	o = append(o, reactive.WithMachine[AsyncState[T]](vm))

	n, err := reactive.New(reg, Initial[T], o...)
	if err != nil {
		vm.cancel()
		return nil, err
	}
	vm.Notifier = n

	if cfg.LoadOnInit {
		if cfg.WaitForContext {
			go vm.waitThenLoad()
		} else {
			go vm.load()
		}
	}
	return vm, nil
}

// Reload removes the model's listeners and schedules a fresh load task.
// No-op after disposal.
func (vm *AsyncViewModel[T]) Reload() {
	vm.mu.Lock()
	if vm.disposed {
		vm.mu.Unlock()
		return
	}
	bound := vm.listenersBound
	vm.listenersBound = false
	vm.mu.Unlock()

	if bound {
		vm.model.RemoveListeners(vm)
	}
	go vm.load()
}

// LoadingState forces the loading variant.
func (vm *AsyncViewModel[T]) LoadingState() {
	vm.UpdateState(Loading[T]())
}

// ErrorState forces the error variant. It never throws; callers catching
// failures around their own async work route them here.
func (vm *AsyncViewModel[T]) ErrorState(err error, stack ...string) {
	var trace string
	if len(stack) > 0 {
		trace = stack[0]
	}
	vm.UpdateState(Failure[T](err, trace))
}

// EmptyState forces the empty variant.
func (vm *AsyncViewModel[T]) EmptyState() {
	vm.UpdateState(Empty[T]())
}

// TransformDataState rewrites only the payload of a success state. A no-op
// for every other variant.
func (vm *AsyncViewModel[T]) TransformDataState(f func(T) T) {
	vm.TransformState(func(s AsyncState[T]) AsyncState[T] {
		if !s.IsSuccess() {
			return s
		}
		return Success(f(s.data))
	})
}

// CleanState removes the model's listeners and resets to the initial
// variant, keeping the instance alive and attached.
func (vm *AsyncViewModel[T]) CleanState() {
	vm.mu.Lock()
	bound := vm.listenersBound
	vm.listenersBound = false
	vm.mu.Unlock()
	if bound {
		vm.model.RemoveListeners(vm)
	}
	vm.UpdateState(Initial[T]())
}

// ListenVM registers the single state callback, replacing any previous one,
// and returns the current state synchronously. With callOnInit the callback
// also fires once immediately.
func (vm *AsyncViewModel[T]) ListenVM(callback func(AsyncState[T]), callOnInit bool) AsyncState[T] {
	current := vm.Listen(callback)
	if callOnInit && callback != nil {
		callback(current)
	}
	return current
}

// StopListeningVM removes the callback registered with ListenVM.
func (vm *AsyncViewModel[T]) StopListeningVM() {
	vm.StopListening()
}

// Bind records a named teardown for a listener attached during
// SetupListeners. The name exists for diagnostics only.
func (vm *AsyncViewModel[T]) Bind(name string, stop func()) {
	if stop == nil {
		return
	}
	vm.mu.Lock()
	vm.bindings = append(vm.bindings, binding{name: name, stop: stop})
	vm.mu.Unlock()
}

// Bindings lists the names of recorded teardowns, in registration order.
func (vm *AsyncViewModel[T]) Bindings() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	names := make([]string, len(vm.bindings))
	for i, b := range vm.bindings {
		names[i] = b.name
	}
	return names
}

// UnbindAll stops every recorded teardown in reverse order.
func (vm *AsyncViewModel[T]) UnbindAll() {
	vm.mu.Lock()
	bindings := vm.bindings
	vm.bindings = nil
	vm.mu.Unlock()
	for i := len(bindings) - 1; i >= 0; i-- {
		bindings[i].stop()
	}
}

// waitThenLoad defers the load until the context provider reports ready.
// Providers that implement ReadySignaler are subscribed to; others are
// polled. The wait aborts on disposal.
func (vm *AsyncViewModel[T]) waitThenLoad() {
	p := CurrentProvider()
	if !p.IsReady() {
		if sig, ok := p.(ReadySignaler); ok {
			ready := make(chan struct{}, 1)
			cancel := sig.NotifyReady(func() {
				select {
				case ready <- struct{}{}:
				default:
				}
			})
			defer cancel()
			if !p.IsReady() {
				select {
				case <-ready:
				case <-vm.ctx.Done():
					return
				}
			}
		} else {
			ticker := time.NewTicker(contextPollInterval)
			defer ticker.Stop()
			for !p.IsReady() {
				select {
				case <-ticker.C:
				case <-vm.ctx.Done():
					return
				}
			}
		}
	}
	vm.load()
}

// load runs one init cycle: loading, then success or error. Results
// arriving after disposal are discarded, never retried or replayed.
func (vm *AsyncViewModel[T]) load() {
	if !vm.apply(Loading[T]()) {
		return
	}
	data, err, stack := vm.runInit()
	if err != nil {
		vm.apply(Failure[T](err, stack))
		return
	}
	if !vm.apply(Success(data)) {
		return
	}

	vm.mu.Lock()
	setup := !vm.listenersBound && !vm.disposed
	if setup {
		vm.listenersBound = true
	}
	vm.mu.Unlock()
	if setup {
		vm.model.SetupListeners(vm)
	}
}

// runInit invokes the model's Init inside the framework boundary: errors
// are returned, panics are recovered and reported with their stack.
func (vm *AsyncViewModel[T]) runInit() (data T, err error, stack string) {
	defer func() {
		if rec := recover(); rec != nil {
			stack = errors.CaptureStack()
			errors.ReportPanic(&errors.PanicError{
				Op:         "viewmodel.AsyncViewModel.load",
				Value:      rec,
				StackTrace: stack,
			})
			err = fmt.Errorf("panic in Init: %v", rec)
		}
	}()
	data, err = vm.model.Init(vm.ctx)
	if err != nil {
		stack = errors.CaptureStack()
	}
	return data, err, stack
}

// apply sets the state unless the holder was disposed since the task
// started. Reports whether the state was applied.
func (vm *AsyncViewModel[T]) apply(s AsyncState[T]) bool {
	vm.mu.Lock()
	if vm.disposed {
		vm.mu.Unlock()
		return false
	}
	vm.mu.Unlock()
	vm.UpdateState(s)
	return true
}

// OnValueReplaced implements reactive.StateMachine. Silent updates skip the
// model hook by contract.
func (vm *AsyncViewModel[T]) OnValueReplaced(prev, next AsyncState[T], silent bool) {
	if silent {
		return
	}
	vm.model.OnAsyncStateChanged(prev, next)
}

// DisposeMachine implements reactive.StateMachine. Cancellation of the
// in-flight task is advisory only. Idempotent.
func (vm *AsyncViewModel[T]) DisposeMachine() {
	vm.mu.Lock()
	if vm.disposed {
		vm.mu.Unlock()
		return
	}
	vm.disposed = true
	bound := vm.listenersBound
	vm.listenersBound = false
	vm.mu.Unlock()

	vm.cancel()
	if bound {
		vm.model.RemoveListeners(vm)
	}
	vm.model.OnDispose()
}

// VariantTag implements reactive.StateMachine.
func (vm *AsyncViewModel[T]) VariantTag() string {
	return vm.Value().Variant().String()
}
