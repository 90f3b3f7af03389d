package asyncstream

import (
	"sync"

	"context"

	"golang.org/x/sync/errgroup"
)

// flattenOp merges a stream-of-streams (src yields Operator[T] values,
// one per inner stream) into a single Operator[T] (§4.6).
type flattenOp[T any] struct {
	src    Operator[Operator[T]]
	params ExecParams
	cfg    RunnerConfig
}

func newFlattenOp[T any](src Operator[Operator[T]]) Operator[T] {
	return flattenOp[T]{src: src, params: DefaultParams(), cfg: DefaultRunnerConfig()}
}

func (o flattenOp[T]) Params() ExecParams { return o.params }
func (o flattenOp[T]) WithParams(p ExecParams) Operator[T] {
	o.params = p
	return o
}

func (o flattenOp[T]) Iterate(ctx context.Context) AsyncIterator[T] {
	switch o.params.Mode {
	case ModeSequential:
		return &sequentialFlattenIter[T]{ctx: ctx, outerIt: o.src.Iterate(ctx)}
	default:
		if o.params.Ordered {
			return newOrderedFlattenIter(ctx, o)
		}
		return newUnorderedFlattenIter(ctx, o)
	}
}

// --- Sequential: nested iteration, one inner stream fully drained
// before the next is requested from the outer stream. ---

type sequentialFlattenIter[T any] struct {
	ctx     context.Context
	outerIt AsyncIterator[Operator[T]]
	innerIt AsyncIterator[T]
}

func (it *sequentialFlattenIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		if it.innerIt == nil {
			inner, ok, err := it.outerIt.Next(ctx)
			if err != nil {
				var zero T
				return zero, false, err
			}
			if !ok {
				var zero T
				return zero, false, nil
			}
			it.innerIt = inner.Iterate(it.ctx)
		}
		v, ok, err := it.innerIt.Next(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if !ok {
			closeErr := it.innerIt.Close()
			it.innerIt = nil
			if closeErr != nil {
				var zero T
				return zero, false, closeErr
			}
			continue
		}
		return v, true, nil
	}
}

func (it *sequentialFlattenIter[T]) Close() error {
	if it.innerIt != nil {
		return it.innerIt.Close()
	}
	return nil
}

// --- Unordered: a shared completion queue that every inner stream's
// drainer goroutine pushes onto directly, so results surface in
// whichever order the (possibly many) inner streams actually produce
// them, interleaved across inner streams. ---

type unorderedFlattenIter[T any] struct {
	queue  *unboundedQueue[T]
	cancel context.CancelFunc
	group  *errgroup.Group
	outer  interface{ Close() error }
	errs   *errorCollector
}

func newUnorderedFlattenIter[T any](ctx context.Context, o flattenOp[T]) AsyncIterator[T] {
	iterCtx, cancel := context.WithCancel(ctx)
	outerIt := o.src.Iterate(iterCtx)

	workers := o.cfg.Concurrency
	if workers <= 0 {
		workers = DefaultRunnerConfig().Concurrency
	}
	if o.params.Mode == ModeConcurrent {
		workers *= concurrentPacingFactor
	}

	innerCh := make(chan Operator[T])
	queue := newUnboundedQueue[T]()
	errs := &errorCollector{cancel: cancel}
	g, gctx := errgroup.WithContext(iterCtx)

	g.Go(func() error {
		defer close(innerCh)
		for {
			inner, ok, err := outerIt.Next(iterCtx)
			if err != nil {
				if !errIsCanceled(err) {
					errs.add(err)
				}
				return nil
			}
			if !ok {
				return nil
			}
			select {
			case innerCh <- inner:
			case <-gctx.Done():
				return nil
			}
		}
	})

	var workerWG sync.WaitGroup
	workerWG.Add(workers)
	for range workers {
		g.Go(func() error {
			defer workerWG.Done()
			for inner := range innerCh {
				drainInto(iterCtx, inner, queue, errs)
			}
			return nil
		})
	}

	go func() {
		workerWG.Wait()
		queue.closeQueue()
	}()

	return &unorderedFlattenIter[T]{queue: queue, cancel: cancel, group: g, outer: outerIt, errs: errs}
}

func drainInto[T any](ctx context.Context, op Operator[T], queue *unboundedQueue[T], errs *errorCollector) {
	it := op.Iterate(ctx)
	defer it.Close()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			if !errIsCanceled(err) {
				errs.add(err)
			}
			return
		}
		if !ok {
			return
		}
		queue.push(v)
	}
}

func (it *unorderedFlattenIter[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := it.queue.pop(ctx)
	if err != nil {
		var zero T
		if errIsCanceled(err) {
			return zero, false, NewCanceledError(err)
		}
		return zero, false, err
	}
	if !ok {
		var zero T
		if agg := it.errs.collapse(); agg != nil {
			return zero, false, agg
		}
		return zero, false, nil
	}
	return v, true, nil
}

func (it *unorderedFlattenIter[T]) Close() error {
	it.cancel()
	_ = it.group.Wait()
	return it.outer.Close()
}

// --- Ordered: inner streams may be prefetched/drained concurrently,
// but their contents are only released to the consumer once every
// earlier inner stream (in outer arrival order) has released all of
// its own elements — outer-major, inner-minor ordering, à la Concat,
// but with concurrent prefetch of the inner streams underneath it. ---

type flattenSlot[T any] struct {
	values []T
	err    error
}

type orderedFlattenBuffer[T any] struct {
	mu      sync.Mutex
	pending map[int]flattenSlot[T]
	nextIdx int
	queue   *unboundedQueue[T]
	errs    *errorCollector
}

func (b *orderedFlattenBuffer[T]) complete(idx int, slot flattenSlot[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[idx] = slot
	for {
		s, ok := b.pending[b.nextIdx]
		if !ok {
			return
		}
		delete(b.pending, b.nextIdx)
		b.nextIdx++
		for _, v := range s.values {
			b.queue.push(v)
		}
		if s.err != nil {
			b.errs.add(s.err)
		}
	}
}

func newOrderedFlattenIter[T any](ctx context.Context, o flattenOp[T]) AsyncIterator[T] {
	iterCtx, cancel := context.WithCancel(ctx)
	outerIt := o.src.Iterate(iterCtx)

	workers := o.cfg.Concurrency
	if workers <= 0 {
		workers = DefaultRunnerConfig().Concurrency
	}
	if o.params.Mode == ModeConcurrent {
		workers *= concurrentPacingFactor
	}

	type indexedInner struct {
		idx   int
		inner Operator[T]
	}
	innerCh := make(chan indexedInner)
	queue := newUnboundedQueue[T]()
	errs := &errorCollector{cancel: cancel}
	buf := &orderedFlattenBuffer[T]{pending: make(map[int]flattenSlot[T]), queue: queue, errs: errs}
	g, gctx := errgroup.WithContext(iterCtx)

	g.Go(func() error {
		defer close(innerCh)
		idx := 0
		for {
			inner, ok, err := outerIt.Next(iterCtx)
			if err != nil {
				if !errIsCanceled(err) {
					errs.add(err)
				}
				return nil
			}
			if !ok {
				return nil
			}
			select {
			case innerCh <- indexedInner{idx: idx, inner: inner}:
				idx++
			case <-gctx.Done():
				return nil
			}
		}
	})

	var workerWG sync.WaitGroup
	workerWG.Add(workers)
	for range workers {
		g.Go(func() error {
			defer workerWG.Done()
			for item := range innerCh {
				values, err := materialize(iterCtx, item.inner)
				buf.complete(item.idx, flattenSlot[T]{values: values, err: err})
			}
			return nil
		})
	}

	go func() {
		workerWG.Wait()
		queue.closeQueue()
	}()

	return &unorderedFlattenIter[T]{queue: queue, cancel: cancel, group: g, outer: outerIt, errs: errs}
}

func materialize[T any](ctx context.Context, op Operator[T]) ([]T, error) {
	it := op.Iterate(ctx)
	defer it.Close()
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			if errIsCanceled(err) {
				return out, nil
			}
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}
