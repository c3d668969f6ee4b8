package reactive

import "time"

// AddReference records an external observer attachment. A pending dispose
// timer is cancelled.
func (n *Notifier[T]) AddReference(referenceID string) {
	n.core.addReference(referenceID)
}

// RemoveReference drops an observer attachment. When auto-dispose is
// enabled and this was the last reference, the dispose timer starts.
func (n *Notifier[T]) RemoveReference(referenceID string) {
	n.core.removeReference(referenceID)
}

// ReferenceCount returns the number of attached references.
func (n *Notifier[T]) ReferenceCount() int {
	c := n.core
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.referenceIDs)
}

// Attach registers referenceID on any holder. Rendering-layer observers use
// this with Detach to drive the reference-counted lifecycle.
func Attach(h Holder, referenceID string) {
	h.holder().addReference(referenceID)
}

// Detach removes referenceID from any holder.
func Detach(h Holder, referenceID string) {
	h.holder().removeReference(referenceID)
}

func (c *holderCore) addReference(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.referenceIDs[id] = struct{}{}
	if c.disposeTimer != nil {
		c.disposeTimer.Stop()
		c.disposeTimer = nil
	}
}

func (c *holderCore) removeReference(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	delete(c.referenceIDs, id)
	if c.autoDispose && len(c.referenceIDs) == 0 {
		c.scheduleDispose()
	}
}

// scheduleDispose arms the expiry timer. Caller holds c.mu.
func (c *holderCore) scheduleDispose() {
	if c.disposeTimer != nil {
		c.disposeTimer.Stop()
	}
	timeout := c.disposeTimeout
	if timeout <= 0 {
		timeout = c.registry.disposeTimeout
	}
	c.disposeTimer = time.AfterFunc(timeout, func() {
		c.registry.expireIfUnreferenced(c)
	})
}

// expireIfUnreferenced completes a deferred disposal on the timer goroutine.
// The still-unreferenced check and the disposed transition are one atomic
// step under the lifecycle lock, so a reference attached at expiry either
// cancels the disposal or lands on an already-disposed holder as a no-op.
func (r *Registry) expireIfUnreferenced(c *holderCore) {
	if !c.beginDispose(true) {
		return
	}
	r.mu.Lock()
	delete(r.instances, c.identity)
	r.mu.Unlock()
	c.teardown()
}

// Reinitialize replaces the value of the holder registered under (T, key)
// with a fresh factory result while preserving identity, reference tracking
// and parent edges. An attached machine is disposed and detached before the
// swap; the fresh value carries no machine. Existing observers stay attached
// and are notified of the replacement.
func Reinitialize[T any](r *Registry, key string, create func() T) (*Notifier[T], error) {
	n, err := GetByKey[T](r, key)
	if err != nil {
		return nil, err
	}
	c := n.core
	if c.machineDispose != nil {
		c.machineDispose()
	}
	n.machine = nil
	c.machineDispose = nil
	c.variantTag = nil
	n.value = create()

	root := r.enterMutation(c)
	c.notifyOwn()
	c.propagateToParents()
	if root {
		r.leaveMutation(c)
	}
	return n, nil
}
