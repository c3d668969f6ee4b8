package reactive

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a lookup by identity or key finds nothing
// registered.
type NotFoundError struct {
	// Identity is the identity that was requested.
	Identity Identity
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no state instance registered for %s", e.Identity)
}

// CircularDependencyError is returned when linking related holders would make
// a holder reachable from itself. The attempted edges are never linked.
type CircularDependencyError struct {
	// Chain is the offending path, ordered from the new node back to the
	// repeated node. For A related to B and B related back to A the chain
	// is [B, A, B].
	Chain []Identity
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		parts[i] = id.String()
	}
	return "circular related-state dependency: " + strings.Join(parts, " -> ")
}

// RelatedStateNotFoundError is returned by From when no related holder of the
// requested type (and key, if given) exists.
type RelatedStateNotFoundError struct {
	// Holder is the identity of the holder whose related set was searched.
	Holder Identity
	// Requested is the type tag that was asked for.
	Requested string
	// Key is the disambiguating key, if one was given.
	Key string
	// Available lists the type tags actually present in the related set.
	Available []string
}

func (e *RelatedStateNotFoundError) Error() string {
	avail := "none"
	if len(e.Available) > 0 {
		avail = strings.Join(e.Available, ", ")
	}
	if e.Key != "" {
		return fmt.Sprintf("%s has no related state of type %s with key %q (available: %s)",
			e.Holder, e.Requested, e.Key, avail)
	}
	return fmt.Sprintf("%s has no related state of type %s (available: %s)",
		e.Holder, e.Requested, avail)
}
