package asyncstream

import "context"

// Stream is the fluent public combinator surface over an Operator (§6).
// It carries no state of its own beyond the operator it wraps: every
// combinator below either fuses into that operator or wraps it in a new
// one, and Stream values are safe to reuse and iterate more than once.
type Stream[T any] struct {
	op Operator[T]
}

func wrap[T any](op Operator[T]) Stream[T] { return Stream[T]{op: op} }

// Empty returns a Stream with no elements.
func Empty[T any]() Stream[T] { return wrap[T](emptySource[T]()) }

// Singleton returns a Stream containing exactly one element.
func Singleton[T any](v T) Stream[T] { return wrap[T](singletonSource(v)) }

// FromSlice builds a Stream from an in-memory slice.
func FromSlice[T any](items []T) Stream[T] { return wrap[T](sliceSource(items)) }

// FromEnumerable is an alias of FromSlice, named after the source
// abstraction it adapts (§4.3).
func FromEnumerable[T any](items []T) Stream[T] { return FromSlice(items) }

// Of builds a Stream from a fixed list of elements.
func Of[T any](items ...T) Stream[T] { return FromSlice(items) }

// FromObservable bridges a push-based Observable into a Stream (§4.8).
// maxBuffer bounds the internal queue; <= 0 means unbounded. Once the
// queue is full, newly arriving values are dropped rather than blocking
// the producer or evicting already-queued values. A terminal OnError is
// surfaced to the consumer as a SourceError once buffered values are
// drained, never silently discarded.
func FromObservable[T any](o Observable[T], maxBuffer int) Stream[T] {
	if o == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("o", "must not be nil")))
	}
	return wrap[T](fromObservableSource[T](o, maxBuffer))
}

// --- Execution-parameter combinators (§4.1) ---
//
// Each of these rebinds the execution parameters already carried by the
// wrapped operator rather than inserting a new node, so chained calls
// collapse: s.AsConcurrent().AsParallel() ends up Parallel, not a
// Concurrent node wrapping a Parallel node.

func (s Stream[T]) AsSequential() Stream[T] {
	return wrap[T](s.op.WithParams(s.op.Params().WithMode(ModeSequential)))
}

func (s Stream[T]) AsConcurrent() Stream[T] {
	return wrap[T](s.op.WithParams(s.op.Params().WithMode(ModeConcurrent)))
}

func (s Stream[T]) AsParallel() Stream[T] {
	return wrap[T](s.op.WithParams(s.op.Params().WithMode(ModeParallel)))
}

func (s Stream[T]) AsOrdered() Stream[T] {
	return wrap[T](s.op.WithParams(s.op.Params().WithOrdered(true)))
}

func (s Stream[T]) AsUnordered() Stream[T] {
	return wrap[T](s.op.WithParams(s.op.Params().WithOrdered(false)))
}

// Configure applies RunnerOptions (concurrency, queue buffer sizing) to
// the wrapped operator, if it supports tuning; operators with nothing
// to tune (sources, Concat, Take/Skip) ignore it.
func (s Stream[T]) Configure(opts ...RunnerOption) Stream[T] {
	if cfgable, ok := s.op.(configurable[T]); ok {
		return wrap[T](cfgable.withRunnerConfig(buildRunnerConfig(opts...)))
	}
	return s
}

type configurable[T any] interface {
	withRunnerConfig(cfg RunnerConfig) Operator[T]
}

func (o transformOp[In, Out]) withRunnerConfig(cfg RunnerConfig) Operator[Out] {
	o.cfg = cfg
	return o
}

func (o flattenOp[T]) withRunnerConfig(cfg RunnerConfig) Operator[T] {
	o.cfg = cfg
	return o
}

func (o joinOp[K, V1, V2]) withRunnerConfig(cfg RunnerConfig) Operator[JoinResult[K, V1, V2]] {
	o.cfg = cfg
	return o
}

// --- Transform: select-where (§4.5) ---

// Where filters elements synchronously.
func (s Stream[T]) Where(pred func(T) bool) Stream[T] {
	if pred == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("pred", "must not be nil")))
	}
	return wrap[T](applySelectWhere(s.op, selectWhereStep[T]{
		call: func(_ context.Context, v T) (bool, T, error) {
			return pred(v), v, nil
		},
	}))
}

// WhereAsync filters elements with a predicate that may itself suspend
// (perform I/O, respect ctx cancellation).
func (s Stream[T]) WhereAsync(pred func(ctx context.Context, v T) (bool, error)) Stream[T] {
	if pred == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("pred", "must not be nil")))
	}
	return wrap[T](applySelectWhere(s.op, selectWhereStep[T]{
		async: true,
		call: func(ctx context.Context, v T) (bool, T, error) {
			ok, err := pred(ctx, v)
			return ok, v, err
		},
	}))
}

// Select projects elements synchronously, possibly changing the element
// type.
func Select[In, Out any](s Stream[In], proj func(In) Out) Stream[Out] {
	if proj == nil {
		return wrap[Out](argErrorSource[Out](NewArgumentError("proj", "must not be nil")))
	}
	return wrap[Out](applySelect(s.op, func(_ context.Context, v In) (Out, error) {
		return proj(v), nil
	}))
}

// SelectAsync projects elements with a projection that may itself
// suspend.
func SelectAsync[In, Out any](s Stream[In], proj func(ctx context.Context, v In) (Out, error)) Stream[Out] {
	if proj == nil {
		return wrap[Out](argErrorSource[Out](NewArgumentError("proj", "must not be nil")))
	}
	return wrap[Out](applySelect(s.op, proj))
}

// Tap runs a side-effecting action on each element without changing the
// stream. It fuses into the select-where node like Where and runs under
// the stream's execution parameters: under Concurrent/Parallel the
// action may be called from several goroutines at once, and under
// Unordered not in source order.
func (s Stream[T]) Tap(action func(T)) Stream[T] {
	return wrap[T](applySelectWhere(s.op, selectWhereStep[T]{
		call: func(_ context.Context, v T) (bool, T, error) {
			action(v)
			return true, v, nil
		},
	}))
}

// --- Structural (§4.4) ---

func (s Stream[T]) Prepend(items ...T) Stream[T] { return wrap[T](prependOp(s.op, items)) }
func (s Stream[T]) Append(items ...T) Stream[T]  { return wrap[T](appendOp(s.op, items)) }

func (s Stream[T]) PrependAsync(fn func(ctx context.Context) (T, error)) Stream[T] {
	if fn == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("fn", "must not be nil")))
	}
	return wrap[T](prependAsyncOp(s.op, fn))
}

func (s Stream[T]) AppendAsync(fn func(ctx context.Context) (T, error)) Stream[T] {
	if fn == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("fn", "must not be nil")))
	}
	return wrap[T](appendAsyncOp(s.op, fn))
}

// Concat appends other's elements after s's.
func (s Stream[T]) Concat(other Stream[T]) Stream[T] {
	if other.op == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("other", "must not be nil")))
	}
	return wrap[T](concatWithParams[T](s.op.Params(), s.op, other.op))
}

// Take keeps at most n elements.
func (s Stream[T]) Take(n int) Stream[T] { return wrap[T](applyTake(s.op, n)) }

// Skip discards the first n elements.
func (s Stream[T]) Skip(n int) Stream[T] { return wrap[T](applySkip(s.op, n)) }

// --- Flatten (§4.6) ---

// Flatten merges a stream of streams into one stream, per the execution
// parameters on the OUTER stream (which govern how much inner-stream
// drainage overlaps).
func Flatten[T any](s Stream[Stream[T]]) Stream[T] {
	if s.op == nil {
		return wrap[T](argErrorSource[T](NewArgumentError("s", "must not be nil")))
	}
	inner := applySelect(s.op, func(_ context.Context, v Stream[T]) (Operator[T], error) {
		return v.op, nil
	})
	return wrap[T](newFlattenOp[T](inner).WithParams(s.op.Params()))
}

// --- Join (§4.7) ---

// Join performs a symmetric hash join of left and right on a shared
// comparable key, under the execution parameters of left.
func Join[K comparable, V1, V2 any](
	left Stream[V1], right Stream[V2],
	leftKey func(V1) K, rightKey func(V2) K,
) Stream[JoinResult[K, V1, V2]] {
	switch {
	case left.op == nil:
		return wrap[JoinResult[K, V1, V2]](argErrorSource[JoinResult[K, V1, V2]](NewArgumentError("left", "must not be nil")))
	case right.op == nil:
		return wrap[JoinResult[K, V1, V2]](argErrorSource[JoinResult[K, V1, V2]](NewArgumentError("right", "must not be nil")))
	case leftKey == nil:
		return wrap[JoinResult[K, V1, V2]](argErrorSource[JoinResult[K, V1, V2]](NewArgumentError("leftKey", "must not be nil")))
	case rightKey == nil:
		return wrap[JoinResult[K, V1, V2]](argErrorSource[JoinResult[K, V1, V2]](NewArgumentError("rightKey", "must not be nil")))
	}
	return wrap[JoinResult[K, V1, V2]](newJoinOp(left.op, right.op, leftKey, rightKey).WithParams(left.op.Params()))
}

// --- Terminal operations (§6) ---

// Any reports whether any element matches pred, short-circuiting as soon
// as one is found (subject to the operator's execution discipline: a
// Concurrent/Parallel upstream may have already started adjacent work
// that is discarded once a match is found).
func (s Stream[T]) Any(ctx context.Context, pred func(T) bool) (bool, error) {
	it := s.op.Iterate(ctx)
	defer it.Close()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if pred(v) {
			return true, nil
		}
	}
}

// Count consumes the stream and returns the number of elements.
func (s Stream[T]) Count(ctx context.Context) (int, error) {
	it := s.op.Iterate(ctx)
	defer it.Close()
	n := 0
	for {
		_, ok, err := it.Next(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// ToList consumes the stream into a plain slice. On failure it returns
// the elements received so far together with the error; ctx is checked
// before every pull, so a canceled ctx ends it with a CanceledError.
func (s Stream[T]) ToList(ctx context.Context) ([]T, error) {
	it := s.op.Iterate(ctx)
	defer it.Close()
	var out []T
	for {
		if err := ctx.Err(); err != nil {
			return out, NewCanceledError(err)
		}
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Collect is an alias of ToList, named after the teacher's terminal
// reduction naming (terminators.go).
func (s Stream[T]) Collect(ctx context.Context) ([]T, error) {
	return s.ToList(ctx)
}

// ForEach consumes the stream, invoking action on every element in
// whatever order the stream delivers them.
func (s Stream[T]) ForEach(ctx context.Context, action func(T)) error {
	it := s.op.Iterate(ctx)
	defer it.Close()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		action(v)
	}
}
