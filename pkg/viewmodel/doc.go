// Package viewmodel layers state machines onto reactive holders.
//
// Two specializations share the holder's mutation and propagation path:
//
// ViewModel adds a one-time synchronous Init and an OnStateChanged hook
// that fires on every update variant, silent ones included. Implement
// Model and embed ModelBase for no-op defaults:
//
//	type counterModel struct {
//	    viewmodel.ModelBase[int]
//	}
//
//	func (counterModel) Init() int { return 0 }
//
//	vm, err := viewmodel.New[int](reg, counterModel{})
//	vm.UpdateState(1)
//
// AsyncViewModel holds an AsyncState tagged union (initial, loading,
// success, empty, error) and runs the model's Init as an independent task:
//
//	type feedModel struct {
//	    viewmodel.AsyncModelBase[[]Item]
//	}
//
//	func (feedModel) Init(ctx context.Context) ([]Item, error) {
//	    return fetchItems(ctx)
//	}
//
//	vm, err := viewmodel.NewAsync[[]Item](reg, feedModel{},
//	    viewmodel.Config{LoadOnInit: true})
//
// Errors and panics inside Init become the error variant; they are never
// thrown across the framework boundary. Disposing a holder while its task
// is in flight discards the eventual result.
//
// # Listener registrations
//
// SetupListeners and RemoveListeners give async models a single place to
// attach and detach listeners on other instances without leaking them
// across reloads. Record teardowns with Bind inside SetupListeners; the
// default RemoveListeners stops them all.
//
// # Context gating
//
// With Config.WaitForContext the initial load waits until the Provider
// installed via SetProvider reports ready. The invariant is simply that
// Init does not run before IsReady is true; providers may push readiness
// (ReadySignaler) or be polled.
package viewmodel
