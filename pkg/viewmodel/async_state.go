package viewmodel

import "fmt"

// Variant tags the active branch of an AsyncState.
type Variant int

const (
	// VariantInitial means no load has been attempted.
	VariantInitial Variant = iota
	// VariantLoading means a load is in flight.
	VariantLoading
	// VariantSuccess means the last load produced data.
	VariantSuccess
	// VariantEmpty means the last load produced no data.
	VariantEmpty
	// VariantError means the last load failed.
	VariantError
)

func (v Variant) String() string {
	switch v {
	case VariantInitial:
		return "initial"
	case VariantLoading:
		return "loading"
	case VariantSuccess:
		return "success"
	case VariantEmpty:
		return "empty"
	case VariantError:
		return "error"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// AsyncState is a closed tagged union over the load lifecycle of an async
// view model. Exactly one variant is active at a time; transitions are
// caller-driven. The data, error and stack accessors report values only
// for the matching variant.
type AsyncState[T any] struct {
	variant Variant
	data    T
	err     error
	stack   string
}

// Initial returns the initial variant.
func Initial[T any]() AsyncState[T] {
	return AsyncState[T]{variant: VariantInitial}
}

// Loading returns the loading variant.
func Loading[T any]() AsyncState[T] {
	return AsyncState[T]{variant: VariantLoading}
}

// Success returns the success variant carrying data.
func Success[T any](data T) AsyncState[T] {
	return AsyncState[T]{variant: VariantSuccess, data: data}
}

// Empty returns the empty variant.
func Empty[T any]() AsyncState[T] {
	return AsyncState[T]{variant: VariantEmpty}
}

// Failure returns the error variant carrying err and an optional stack
// trace captured at the failure boundary.
func Failure[T any](err error, stack string) AsyncState[T] {
	return AsyncState[T]{variant: VariantError, err: err, stack: stack}
}

// Variant returns the active variant tag.
func (s AsyncState[T]) Variant() Variant { return s.variant }

// IsInitial reports whether no load has been attempted.
func (s AsyncState[T]) IsInitial() bool { return s.variant == VariantInitial }

// IsLoading reports whether a load is in flight.
func (s AsyncState[T]) IsLoading() bool { return s.variant == VariantLoading }

// IsSuccess reports whether the state carries data.
func (s AsyncState[T]) IsSuccess() bool { return s.variant == VariantSuccess }

// IsEmpty reports whether the last load produced no data.
func (s AsyncState[T]) IsEmpty() bool { return s.variant == VariantEmpty }

// IsError reports whether the last load failed.
func (s AsyncState[T]) IsError() bool { return s.variant == VariantError }

// Data returns the payload and true for the success variant, and the zero
// value and false otherwise.
func (s AsyncState[T]) Data() (T, bool) {
	if s.variant != VariantSuccess {
		var zero T
		return zero, false
	}
	return s.data, true
}

// DataOr returns the payload for the success variant and fallback otherwise.
func (s AsyncState[T]) DataOr(fallback T) T {
	if s.variant != VariantSuccess {
		return fallback
	}
	return s.data
}

// Err returns the failure for the error variant and nil otherwise.
func (s AsyncState[T]) Err() error {
	if s.variant != VariantError {
		return nil
	}
	return s.err
}

// StackTrace returns the captured stack for the error variant, if any.
func (s AsyncState[T]) StackTrace() string {
	if s.variant != VariantError {
		return ""
	}
	return s.stack
}

func (s AsyncState[T]) String() string {
	switch s.variant {
	case VariantSuccess:
		return fmt.Sprintf("success(%v)", s.data)
	case VariantError:
		return fmt.Sprintf("error(%v)", s.err)
	default:
		return s.variant.String()
	}
}
