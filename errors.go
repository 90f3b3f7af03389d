package asyncstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ArgumentError reports an invalid argument rejected synchronously at
// construction time (e.g. a negative Take count, a nil source).
type ArgumentError struct {
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("asyncstream: invalid argument %q: %s", e.Arg, e.Reason)
}

func NewArgumentError(arg, reason string) error {
	return &ArgumentError{Arg: arg, Reason: reason}
}

// argErrorOp is a leaf operator that fails every iteration attempt with a
// fixed error, without ever touching an upstream source. It is how a
// combinator rejects an invalid argument (a negative count, a nil source
// or callback) synchronously and before any iteration begins, while
// still returning a plain Operator — the fluent Stream surface has no
// room for a (Stream, error) return.
type argErrorOp[T any] struct {
	err    error
	params ExecParams
}

func argErrorSource[T any](err error) Operator[T] {
	return argErrorOp[T]{err: err, params: DefaultParams()}
}

func (o argErrorOp[T]) Params() ExecParams { return o.params }
func (o argErrorOp[T]) WithParams(p ExecParams) Operator[T] {
	o.params = p
	return o
}

func (o argErrorOp[T]) Iterate(context.Context) AsyncIterator[T] {
	return &errOnlyIter[T]{err: o.err}
}

// CanceledError wraps the cause of a pipeline ending because its context
// (or an internal derived cancellation source) was canceled, rather than
// because the source was exhausted or a callback failed.
type CanceledError struct {
	Cause error
}

func (e *CanceledError) Error() string {
	if e.Cause == nil {
		return "asyncstream: operation canceled"
	}
	return fmt.Sprintf("asyncstream: operation canceled: %v", e.Cause)
}

func (e *CanceledError) Unwrap() error { return e.Cause }

func NewCanceledError(cause error) error {
	return &CanceledError{Cause: cause}
}

// CallbackError wraps a panic or error raised from user-supplied code
// (a predicate, projection, key extractor, or observer callback).
type CallbackError struct {
	Cause error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("asyncstream: callback failed: %v", e.Cause)
}

func (e *CallbackError) Unwrap() error { return e.Cause }

func NewCallbackError(cause error) error {
	return &CallbackError{Cause: cause}
}

// SourceError wraps a failure raised by a leaf source (an Observable's
// OnError; slice sources cannot fail) as distinct from a failure in a
// downstream callback.
type SourceError struct {
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("asyncstream: source failed: %v", e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }

func NewSourceError(cause error) error {
	return &SourceError{Cause: cause}
}

// AggregateError collects every error observed by a runner that keeps
// going to completion instead of stopping at the first failure (the
// Unordered/Ordered transform, flatten and join runners all do this: a
// failing callback does not stop sibling work already in flight). A
// single collected cause collapses to that cause directly, so callers
// that only ever see one failure are not forced to unwrap an aggregate.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("asyncstream: %d errors occurred:\n\t%s", len(e.Errors), strings.Join(parts, "\n\t"))
}

// Unwrap exposes every collected error to errors.Is/errors.As via the
// multi-error Unwrap() []error convention.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// Collapse returns a single error representing errs: nil if empty, the
// bare cause if there is exactly one, or an *AggregateError otherwise.
func Collapse(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errors: errs}
	}
}

// errorCollector accumulates errors from concurrent goroutines behind a
// mutex; the zero value is ready to use. Grounded on the teacher's
// CollectResultsAll "gather everything, report the whole batch" shape,
// generalized from (values, errors) to errors-only.
//
// cancel, when set, is tripped the first time a real (non-cancellation)
// error is recorded — the shared cancellation source every runner's
// worker/feeder goroutines already watch via iterCtx. Without this, a
// sibling callback that suspends on ctx.Done() to bail out cooperatively
// would never see the failure until Close() calls cancel() itself, and
// Close() blocks on those same goroutines finishing: a deadlock. Callers
// that don't need this (errors_test.go's standalone unit test) leave
// cancel nil and get a collector with no cancellation side effect.
type errorCollector struct {
	mu     sync.Mutex
	errs   []error
	cancel context.CancelFunc
	once   sync.Once
}

func (c *errorCollector) add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
	if c.cancel != nil {
		c.once.Do(c.cancel)
	}
}

func (c *errorCollector) collapse() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Collapse(c.errs)
}

// errIsCanceled reports whether err indicates context cancellation,
// looking through our own wrapper types as well as context's sentinels.
func errIsCanceled(err error) bool {
	if err == nil {
		return false
	}
	var ce *CanceledError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
