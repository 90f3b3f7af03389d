package asyncstream

import (
	"context"
	"errors"
	"fmt"
)

// Result represents a value that may be either a success (Ok) or a
// failure (Err). Used to model the outcome of an async callback inline
// with the value it produced, ahead of the stream's own error channel
// taking over at the runner boundary.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result containing the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed Result containing the given error.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// ErrMsg creates a failed Result with an error message.
func ErrMsg[T any](msg string) Result[T] {
	return Result[T]{err: errors.New(msg)}
}

// IsOk returns true if the Result is successful.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsErr returns true if the Result is a failure.
func (r Result[T]) IsErr() bool {
	return r.err != nil
}

// Unwrap returns the value if Ok, or panics if Err.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(fmt.Sprintf("called Unwrap on Err: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value if Ok, or the default value if Err.
func (r Result[T]) UnwrapOr(defaultVal T) T {
	if r.err != nil {
		return defaultVal
	}
	return r.value
}

// UnwrapOrElse returns the value if Ok, or calls the function if Err.
func (r Result[T]) UnwrapOrElse(fn func(error) T) T {
	if r.err != nil {
		return fn(r.err)
	}
	return r.value
}

// UnwrapErr returns the error if Err, or panics if Ok.
func (r Result[T]) UnwrapErr() error {
	if r.err == nil {
		panic("called UnwrapErr on Ok")
	}
	return r.err
}

// Error returns the error (or nil if Ok).
func (r Result[T]) Error() error {
	return r.err
}

// Value returns the value (zero value if Err).
func (r Result[T]) Value() T {
	return r.value
}

// Get returns both value and error.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// ToOptional converts Result to Optional, discarding the error.
func (r Result[T]) ToOptional() Optional[T] {
	if r.err != nil {
		return None[T]()
	}
	return Some(r.value)
}

// Map transforms the value if Ok, passes through Err unchanged.
func (r Result[T]) Map(fn func(T) T) Result[T] {
	if r.err != nil {
		return r
	}
	return Ok(fn(r.value))
}

// MapErr transforms the error if Err, passes through Ok unchanged.
func (r Result[T]) MapErr(fn func(error) error) Result[T] {
	if r.err == nil {
		return r
	}
	return Err[T](fn(r.err))
}

// And returns the other Result if this is Ok, otherwise returns this Err.
func (r Result[T]) And(other Result[T]) Result[T] {
	if r.err != nil {
		return r
	}
	return other
}

// Or returns this Result if Ok, otherwise returns the other Result.
func (r Result[T]) Or(other Result[T]) Result[T] {
	if r.err == nil {
		return r
	}
	return other
}

// MapResultTo transforms Result[T] to Result[U] using the given function.
func MapResultTo[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// FlatMapResult transforms Result[T] to Result[U], allowing the function
// to fail.
func FlatMapResult[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return fn(r.value)
}

// --- Error-aware Stream operations ---
//
// These bridge a fallible callback into the Stream world by carrying its
// outcome as a Result rather than aborting the stream outright, for
// pipelines that want to inspect or collect failures alongside values
// instead of treating every failure as a CallbackError (§7).

// MapErrTo projects each element using a function that may fail; the
// resulting stream carries a Result per element instead of aborting on
// the first error.
func MapErrTo[T, U any](s Stream[T], fn func(T) (U, error)) Stream[Result[U]] {
	return SelectAsync(s, func(_ context.Context, v T) (Result[U], error) {
		out, err := fn(v)
		if err != nil {
			return Err[U](err), nil
		}
		return Ok(out), nil
	})
}

// FilterErr filters using a predicate that may fail; a failing predicate
// yields Err instead of dropping the element, while a predicate that
// simply returns false drops it as an ordinary Where would.
func FilterErr[T any](s Stream[T], pred func(T) (bool, error)) Stream[Result[T]] {
	return wrap[Result[T]](applyFilterMap(s.op, func(_ context.Context, v T) (bool, Result[T], error) {
		ok, err := pred(v)
		if err != nil {
			return true, Err[T](err), nil
		}
		if !ok {
			return false, Result[T]{}, nil
		}
		return true, Ok(v), nil
	}))
}

// FlatMapErr maps each element to a stream using a function that may
// fail, flattening the result; a failing mapper yields a single Err
// element instead of aborting.
func FlatMapErr[T, U any](s Stream[T], fn func(T) (Stream[U], error)) Stream[Result[U]] {
	mapped := Select(s, func(v T) Stream[Result[U]] {
		inner, err := fn(v)
		if err != nil {
			return Singleton(Err[U](err))
		}
		return Select(inner, func(u U) Result[U] { return Ok(u) })
	})
	return Flatten(mapped)
}

// CollectResults collects a stream of Results into a slice and error.
// Returns the first error encountered, or nil if all succeeded.
func CollectResults[T any](ctx context.Context, s Stream[Result[T]]) ([]T, error) {
	items, err := s.ToList(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]T, 0, len(items))
	for _, r := range items {
		if r.IsErr() {
			return results, r.err
		}
		results = append(results, r.value)
	}
	return results, nil
}

// CollectResultsAll collects all Results, continuing even after errors.
// Returns all successful values and all errors encountered.
func CollectResultsAll[T any](ctx context.Context, s Stream[Result[T]]) ([]T, []error) {
	items, err := s.ToList(ctx)
	if err != nil {
		return nil, []error{err}
	}
	var results []T
	var errs []error
	for _, r := range items {
		if r.IsErr() {
			errs = append(errs, r.err)
		} else {
			results = append(results, r.value)
		}
	}
	return results, errs
}

// PartitionResults separates a stream of Results into successes and
// failures.
func PartitionResults[T any](ctx context.Context, s Stream[Result[T]]) ([]T, []error) {
	return CollectResultsAll(ctx, s)
}

// FilterOk filters a stream of Results to only include successful
// values.
func FilterOk[T any](s Stream[Result[T]]) Stream[T] {
	return Select(
		s.Where(func(r Result[T]) bool { return r.IsOk() }),
		func(r Result[T]) T { return r.value },
	)
}

// FilterErrs filters a stream of Results to only include errors.
func FilterErrs[T any](s Stream[Result[T]]) Stream[error] {
	return Select(
		s.Where(func(r Result[T]) bool { return r.IsErr() }),
		func(r Result[T]) error { return r.err },
	)
}

// UnwrapResults unwraps all Results; a failing element surfaces as a
// CallbackError rather than panicking the runner goroutine.
func UnwrapResults[T any](s Stream[Result[T]]) Stream[T] {
	return SelectAsync(s, func(_ context.Context, r Result[T]) (T, error) {
		if r.IsErr() {
			return r.value, r.err
		}
		return r.value, nil
	})
}

// UnwrapOrDefault unwraps Results, using a default value for errors.
func UnwrapOrDefault[T any](s Stream[Result[T]], defaultVal T) Stream[T] {
	return Select(s, func(r Result[T]) T { return r.UnwrapOr(defaultVal) })
}

// TakeUntilErr takes elements until the first error is encountered. The
// error itself is not yielded.
func TakeUntilErr[T any](ctx context.Context, s Stream[Result[T]]) Stream[T] {
	items, _ := s.ToList(ctx)
	var out []T
	for _, r := range items {
		if r.IsErr() {
			break
		}
		out = append(out, r.value)
	}
	return FromSlice(out)
}

// FromResults creates a Stream of Results from variadic Results.
func FromResults[T any](results ...Result[T]) Stream[Result[T]] {
	return FromSlice(results)
}

// TryCollect attempts to collect a stream, wrapping any panic or error
// as a Result instead of propagating it.
func TryCollect[T any](ctx context.Context, s Stream[T]) (result Result[[]T]) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				result = Err[[]T](err)
			} else {
				result = Err[[]T](fmt.Errorf("panic: %v", r))
			}
		}
	}()
	items, err := s.ToList(ctx)
	if err != nil {
		return Err[[]T](err)
	}
	return Ok(items)
}
