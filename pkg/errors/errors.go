// Package errors provides structured error reporting for the reactive state container.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindLookup indicates a failed instance lookup by identity or key.
	KindLookup
	// KindGraph indicates a related-state graph violation.
	KindGraph
	// KindLifecycle indicates a reference-counting or disposal error.
	KindLifecycle
	// KindContext indicates that a required external context was not ready.
	KindContext
	// KindTask indicates a failure in an asynchronous initialization task.
	KindTask
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindLookup:
		return "lookup"
	case KindGraph:
		return "graph"
	case KindLifecycle:
		return "lifecycle"
	case KindContext:
		return "context"
	case KindTask:
		return "task"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// StateError represents a structured error in the reactive framework.
type StateError struct {
	// Op is the operation that failed (e.g., "reactive.GetByKey").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Instance is the identity of the state instance involved, if applicable.
	Instance string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *StateError) Error() string {
	if e.Instance != "" {
		return fmt.Sprintf("%s [%s] instance=%s: %v", e.Op, e.Kind, e.Instance, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "viewmodel.AsyncViewModel.load").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the reactive framework.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *StateError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
