package asyncstream

import "context"

// --- Concat / Prepend / Append ---

// concatOp chains n independent sources in order. Under Sequential it
// walks them one at a time, source-major, with no concurrency of its
// own. Under Concurrent/Parallel it delegates to a Flatten over its own
// sources instead, so the sources prefetch/drain the way Flatten does —
// concurrently under Unordered, outer-major with concurrent prefetch
// under Ordered — rather than concat ever spawning its own runner.
type concatOp[T any] struct {
	sources []Operator[T]
	params  ExecParams
}

func newConcatOp[T any](sources ...Operator[T]) Operator[T] {
	return concatOp[T]{sources: sources, params: DefaultParams()}
}

func (o concatOp[T]) Params() ExecParams { return o.params }
func (o concatOp[T]) WithParams(p ExecParams) Operator[T] {
	o.params = p
	return o
}

func (o concatOp[T]) Iterate(ctx context.Context) AsyncIterator[T] {
	if o.params.Mode == ModeSequential {
		return &concatIter[T]{ctx: ctx, sources: o.sources}
	}
	inner := sliceSource[Operator[T]](o.sources)
	return flattenOp[T]{src: inner, params: o.params, cfg: DefaultRunnerConfig()}.Iterate(ctx)
}

func (o concatOp[T]) knownLen() (int, bool) {
	total := 0
	for _, s := range o.sources {
		if sl, ok := s.(sliceLen); ok {
			n, known := sl.knownLen()
			if !known {
				return 0, false
			}
			total += n
			continue
		}
		return 0, false
	}
	return total, true
}

// FuseConcat appends next's sources onto o instead of nesting another
// concatOp, so Concat(Concat(a, b), c) collapses to Concat(a, b, c).
func (o concatOp[T]) FuseConcat(next Operator[T]) (Operator[T], bool) {
	if nc, ok := next.(concatOp[T]); ok {
		o.sources = append(append([]Operator[T]{}, o.sources...), nc.sources...)
		return o, true
	}
	o.sources = append(append([]Operator[T]{}, o.sources...), next)
	return o, true
}

func concatTwo[T any](a, b Operator[T]) Operator[T] {
	if ca, ok := a.(Concatable[T]); ok {
		if fused, ok2 := ca.FuseConcat(b); ok2 {
			return fused
		}
	}
	return newConcatOp(a, b)
}

// concatWithParams concatenates a and b (fusing where possible) and then
// rebinds the result to params explicitly, rather than leaving it at
// whichever default newConcatOp/FuseConcat happened to produce. Every
// production call site (Prepend/Append/PrependAsync/AppendAsync/Concat)
// uses this so the concatenated node's Mode follows the host stream it
// is attached to, instead of always defaulting to Sequential.
func concatWithParams[T any](params ExecParams, a, b Operator[T]) Operator[T] {
	return concatTwo[T](a, b).WithParams(params)
}

type concatIter[T any] struct {
	ctx     context.Context
	sources []Operator[T]
	pos     int
	cur     AsyncIterator[T]
}

func (it *concatIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		if it.cur == nil {
			if it.pos >= len(it.sources) {
				var zero T
				return zero, false, nil
			}
			it.cur = it.sources[it.pos].Iterate(it.ctx)
			it.pos++
		}
		v, ok, err := it.cur.Next(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if !ok {
			closeErr := it.cur.Close()
			it.cur = nil
			if closeErr != nil {
				var zero T
				return zero, false, closeErr
			}
			continue
		}
		return v, true, nil
	}
}

func (it *concatIter[T]) Close() error {
	if it.cur != nil {
		return it.cur.Close()
	}
	return nil
}

// Prepend inserts items before src.
func prependOp[T any](src Operator[T], items []T) Operator[T] {
	return concatWithParams[T](src.Params(), sliceSource(items), src)
}

// Append inserts items after src.
func appendOp[T any](src Operator[T], items []T) Operator[T] {
	return concatWithParams[T](src.Params(), src, sliceSource(items))
}

// asyncSingletonOp produces one element by calling fn, used by
// PrependAsync/AppendAsync (§4.4) where the inserted element is itself
// the result of an asynchronous computation. Under Sequential it defers
// the call to the first Next() pull, same as any other lazy leaf. Under
// Concurrent/Parallel it starts fn in its own goroutine at Iterate time,
// before the caller ever pulls — so its latency overlaps whatever the
// parent stream is doing instead of blocking the very first element.
type asyncSingletonOp[T any] struct {
	fn     func(ctx context.Context) (T, error)
	params ExecParams
}

func (o asyncSingletonOp[T]) Params() ExecParams { return o.params }
func (o asyncSingletonOp[T]) WithParams(p ExecParams) Operator[T] {
	o.params = p
	return o
}

func (o asyncSingletonOp[T]) Iterate(ctx context.Context) AsyncIterator[T] {
	if o.params.Mode == ModeSequential {
		return &asyncSingletonIter[T]{fn: o.fn, remaining: true}
	}
	resultCh := make(chan asyncSingletonResult[T], 1)
	go func() {
		v, err := o.fn(ctx)
		resultCh <- asyncSingletonResult[T]{value: v, err: err}
	}()
	return &eagerSingletonIter[T]{resultCh: resultCh, remaining: true}
}

type asyncSingletonIter[T any] struct {
	fn        func(ctx context.Context) (T, error)
	remaining bool
}

func (it *asyncSingletonIter[T]) Next(ctx context.Context) (T, bool, error) {
	if !it.remaining {
		var zero T
		return zero, false, nil
	}
	it.remaining = false
	v, err := it.fn(ctx)
	if err != nil {
		var zero T
		return zero, false, NewCallbackError(err)
	}
	return v, true, nil
}
func (it *asyncSingletonIter[T]) Close() error { return nil }

type asyncSingletonResult[T any] struct {
	value T
	err   error
}

// eagerSingletonIter wraps a thunk that was already started as a
// goroutine at Iterate time; Next just waits for it to land.
type eagerSingletonIter[T any] struct {
	resultCh  chan asyncSingletonResult[T]
	remaining bool
}

func (it *eagerSingletonIter[T]) Next(ctx context.Context) (T, bool, error) {
	if !it.remaining {
		var zero T
		return zero, false, nil
	}
	it.remaining = false
	select {
	case r := <-it.resultCh:
		if r.err != nil {
			var zero T
			return zero, false, NewCallbackError(r.err)
		}
		return r.value, true, nil
	case <-ctx.Done():
		var zero T
		return zero, false, NewCanceledError(ctx.Err())
	}
}
func (it *eagerSingletonIter[T]) Close() error { return nil }

func prependAsyncOp[T any](src Operator[T], fn func(ctx context.Context) (T, error)) Operator[T] {
	return concatWithParams[T](src.Params(), asyncSingletonOp[T]{fn: fn, params: src.Params()}, src)
}

func appendAsyncOp[T any](src Operator[T], fn func(ctx context.Context) (T, error)) Operator[T] {
	return concatWithParams[T](src.Params(), src, asyncSingletonOp[T]{fn: fn, params: src.Params()})
}

// --- Take / Skip ---

// limitOp applies a skip offset and an optional take bound (take < 0
// means unbounded) to src. Adjacent limitOps, and sources implementing
// SkipTaker directly (e.g. a slice source), fuse into one node.
type limitOp[T any] struct {
	src    Operator[T]
	skip   int
	take   int // -1 = unbounded
	params ExecParams
}

func (o limitOp[T]) Params() ExecParams { return o.params }
func (o limitOp[T]) WithParams(p ExecParams) Operator[T] {
	o.params = p
	return o
}

func (o limitOp[T]) Iterate(ctx context.Context) AsyncIterator[T] {
	return &limitIter[T]{srcIt: o.src.Iterate(ctx), skip: o.skip, take: o.take}
}

func (o limitOp[T]) knownLen() (int, bool) {
	if sl, ok := o.src.(sliceLen); ok {
		n, known := sl.knownLen()
		if !known {
			return 0, false
		}
		n -= o.skip
		if n < 0 {
			n = 0
		}
		if o.take >= 0 && o.take < n {
			n = o.take
		}
		return n, true
	}
	return 0, false
}

// FuseSkipTake composes an additional skip/take window on top of this
// node's own window instead of nesting another limitOp.
func (o limitOp[T]) FuseSkipTake(skip, take int) (Operator[T], bool) {
	// Applying (skip, take) after (o.skip, o.take): new window starts
	// `skip` further into what o already yields, and its length is
	// bounded by both limits.
	o.skip += skip
	remaining := -1
	if o.take >= 0 {
		remaining = o.take - skip
		if remaining < 0 {
			remaining = 0
		}
	}
	switch {
	case remaining >= 0 && take >= 0:
		if take < remaining {
			o.take = take
		} else {
			o.take = remaining
		}
	case take >= 0:
		o.take = take
	default:
		o.take = remaining
	}
	return o, true
}

func applySkipTake[T any](src Operator[T], skip, take int) Operator[T] {
	if st, ok := src.(SkipTaker[T]); ok {
		if fused, ok2 := st.FuseSkipTake(skip, take); ok2 {
			return fused
		}
	}
	return limitOp[T]{src: src, skip: skip, take: take, params: src.Params()}
}

func applyTake[T any](src Operator[T], n int) Operator[T] {
	if n < 0 {
		return argErrorSource[T](NewArgumentError("n", "take count must be >= 0"))
	}
	if n == 0 {
		return emptySource[T]()
	}
	return applySkipTake(src, 0, n)
}

func applySkip[T any](src Operator[T], n int) Operator[T] {
	if n < 0 {
		return argErrorSource[T](NewArgumentError("n", "skip count must be >= 0"))
	}
	if n == 0 {
		return src
	}
	return applySkipTake(src, n, -1)
}

type limitIter[T any] struct {
	srcIt   AsyncIterator[T]
	skip    int
	take    int
	skipped int
	taken   int
}

func (it *limitIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.take >= 0 && it.taken >= it.take {
		var zero T
		return zero, false, nil
	}
	for it.skipped < it.skip {
		_, ok, err := it.srcIt.Next(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if !ok {
			var zero T
			return zero, false, nil
		}
		it.skipped++
	}
	v, ok, err := it.srcIt.Next(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if !ok {
		var zero T
		return zero, false, nil
	}
	it.taken++
	return v, true, nil
}

func (it *limitIter[T]) Close() error { return it.srcIt.Close() }
