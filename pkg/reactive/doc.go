// Package reactive provides singleton-oriented reactive state holders.
//
// Each logical piece of application state lives in exactly one Notifier
// instance, owned by a Registry and identified by its (type, key) pair.
// Callers mutate through controlled update operations and dependent
// observers, including other holders, are notified automatically.
//
// # Instances
//
// Holders are created lazily and reused by identity:
//
//	counter, err := reactive.GetOrCreate(reg, "counter", func() int { return 0 })
//	counter.UpdateState(counter.Value() + 1)
//
// A second GetOrCreate with the same type and key returns the same
// instance without calling the factory again.
//
// # Related state
//
// Holders can republish changes from other holders. A parent constructed
// with WithRelated is notified whenever one of its related children
// updates:
//
//	cart, _ := reactive.GetOrCreate(reg, "cart", newCart,
//	    reactive.WithRelated[Cart](items, totals))
//
// The related-state graph must stay acyclic; a link that would make a
// holder reachable from itself fails with CircularDependencyError before
// any edge is added.
//
// # Update variants
//
// UpdateState and TransformState notify the holder's own listeners and
// propagate to parents. UpdateSilently and TransformStateSilently skip the
// holder's own listeners but still propagate. All four are no-ops when the
// new value equals the current one.
//
// # Lifecycle
//
// Observers attach with Attach/Detach (or AddReference/RemoveReference).
// With WithAutoDispose, a holder whose reference count stays at zero past
// the timeout is removed from the registry and disposed automatically.
//
// # Threading
//
// Holders are NOT thread-safe. Mutation and propagation run synchronously
// on the calling goroutine; keep all access to a holder on one goroutine.
package reactive
