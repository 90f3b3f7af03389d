package asyncstream

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// concurrentPacingFactor widens the worker count used under ModeConcurrent
// relative to ModeParallel's strict CPU-bound pool: Concurrent callbacks
// are expected to spend most of their time waiting (I/O), so more of them
// can usefully overlap than there are CPUs.
const concurrentPacingFactor = 4

// selectWhereStep is one fused predicate/projection step of a transform
// chain (§4.2). call returns keep=false to drop the element (Where),
// or a transformed value to keep it (Select); err aborts the element
// (wrapped as a CallbackError by the runner) rather than silently
// dropping it, so a failing projection is distinguishable from a
// not-matching predicate.
type selectWhereStep[T any] struct {
	async bool
	call  func(ctx context.Context, v T) (keep bool, out T, err error)
}

// transformOp is the select-where node: a source plus one fused step
// function from In to Out. Repeated Where (and Tap) calls fuse into this
// node's step (FuseSelectWhere); every Select, including one that keeps
// the element type, starts a fresh transformOp wrapping the previous one
// as src.
type transformOp[In, Out any] struct {
	src    Operator[In]
	step   func(ctx context.Context, v In) (keep bool, out Out, err error)
	params ExecParams
	cfg    RunnerConfig
}

func (o transformOp[In, Out]) Params() ExecParams { return o.params }

func (o transformOp[In, Out]) WithParams(p ExecParams) Operator[Out] {
	o.params = p
	return o
}

func (o transformOp[In, Out]) Iterate(ctx context.Context) AsyncIterator[Out] {
	switch o.params.Mode {
	case ModeSequential:
		return &sequentialTransformIter[In, Out]{srcIt: o.src.Iterate(ctx), step: o.step}
	default:
		if o.params.Ordered {
			return newOrderedTransformIter(ctx, o)
		}
		return newUnorderedTransformIter(ctx, o)
	}
}

// FuseSelectWhere composes next on top of o's existing step, producing a
// single transformOp instead of stacking a wrapper.
func (o transformOp[In, Out]) FuseSelectWhere(next selectWhereStep[Out]) (Operator[Out], bool) {
	prevStep := o.step
	nextCall := next.call
	o.step = func(ctx context.Context, v In) (bool, Out, error) {
		keep, mid, err := prevStep(ctx, v)
		if err != nil || !keep {
			return false, mid, err
		}
		return nextCall(ctx, mid)
	}
	return o, true
}

// applySelectWhere attaches step to src, fusing into an existing
// transformOp when possible.
func applySelectWhere[T any](src Operator[T], step selectWhereStep[T]) Operator[T] {
	if sw, ok := src.(SelectWherer[T]); ok {
		if fused, ok2 := sw.FuseSelectWhere(step); ok2 {
			return fused
		}
	}
	return transformOp[T, T]{
		src:    src,
		params: src.Params(),
		cfg:    DefaultRunnerConfig(),
		step: func(ctx context.Context, v T) (bool, T, error) {
			return step.call(ctx, v)
		},
	}
}

// applyFilterMap builds a type-changing node from In to Out where step
// may also drop the element (keep=false), e.g. a filter whose predicate
// itself produces a different element type than its input.
func applyFilterMap[In, Out any](src Operator[In], step func(ctx context.Context, v In) (keep bool, out Out, err error)) Operator[Out] {
	return transformOp[In, Out]{
		src:    src,
		params: src.Params(),
		cfg:    DefaultRunnerConfig(),
		step:   step,
	}
}

// applySelect builds a type-changing projection node from In to Out.
func applySelect[In, Out any](src Operator[In], proj func(ctx context.Context, v In) (Out, error)) Operator[Out] {
	return transformOp[In, Out]{
		src:    src,
		params: src.Params(),
		cfg:    DefaultRunnerConfig(),
		step: func(ctx context.Context, v In) (bool, Out, error) {
			out, err := proj(ctx, v)
			return err == nil, out, err
		},
	}
}

// safeStep wraps a user callback invocation, turning a panic into a
// CallbackError rather than crashing the runner goroutine, and wrapping
// any plain error the callback returns as a CallbackError too (§7) —
// unless it is already one of our own typed errors (e.g. a CanceledError
// surfaced through a context-aware callback), which passes through
// unchanged so its kind is preserved.
func safeStep[In, Out any](ctx context.Context, step func(context.Context, In) (bool, Out, error), v In) (keep bool, out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			out = zero
			keep = false
			err = NewCallbackError(fmt.Errorf("%v", r))
		}
	}()
	keep, out, err = step(ctx, v)
	if err != nil {
		err = wrapCallbackErr(err)
	}
	return keep, out, err
}

func wrapCallbackErr(err error) error {
	switch err.(type) {
	case *CallbackError, *CanceledError, *SourceError, *ArgumentError, *AggregateError:
		return err
	}
	if errIsCanceled(err) {
		return NewCanceledError(err)
	}
	return NewCallbackError(err)
}

// --- Sequential runner ---

type sequentialTransformIter[In, Out any] struct {
	srcIt AsyncIterator[In]
	step  func(ctx context.Context, v In) (bool, Out, error)
}

func (it *sequentialTransformIter[In, Out]) Next(ctx context.Context) (Out, bool, error) {
	for {
		v, ok, err := it.srcIt.Next(ctx)
		if err != nil {
			var zero Out
			return zero, false, err
		}
		if !ok {
			var zero Out
			return zero, false, nil
		}
		keep, out, err := safeStep(ctx, it.step, v)
		if err != nil {
			var zero Out
			return zero, false, err
		}
		if keep {
			return out, true, nil
		}
	}
}

func (it *sequentialTransformIter[In, Out]) Close() error { return it.srcIt.Close() }

// --- Unordered runner ---
//
// A feeder goroutine drains the source onto an input channel; a pool of
// workers (sized per Mode/RunnerConfig) apply the step and push kept
// results onto a completion-order queue. Every callback error is
// collected rather than stopping sibling work (continue-to-completion);
// the aggregate is delivered once the queue is fully drained. Grounded
// on the teacher's parallelMapUnordered (parallel.go), generalized to
// collect errors instead of stopping at the first one, and built on
// errgroup for worker-goroutine lifecycle instead of a hand-rolled
// WaitGroup + done-channel pair. The first real error recorded trips
// iterCtx's cancel func immediately (via errorCollector.cancel) rather
// than waiting for Close(), so a sibling callback suspended on
// ctx.Done() is woken up right away instead of deadlocking against
// Close()'s own group.Wait(); errors caused by that cancellation
// cascading through still-running callbacks are filtered out via
// errIsCanceled before being added, so they don't show up as spurious
// entries in the aggregate.

type unorderedTransformIter[Out any] struct {
	queue  *unboundedQueue[Out]
	cancel context.CancelFunc
	group  *errgroup.Group
	srcIt  interface{ Close() error }
	errs   *errorCollector
}

func newUnorderedTransformIter[In, Out any](ctx context.Context, o transformOp[In, Out]) AsyncIterator[Out] {
	iterCtx, cancel := context.WithCancel(ctx)
	srcIt := o.src.Iterate(iterCtx)

	workers := o.cfg.Concurrency
	if workers <= 0 {
		workers = DefaultRunnerConfig().Concurrency
	}
	if o.params.Mode == ModeConcurrent {
		workers *= concurrentPacingFactor
	}

	inputCh := make(chan In)
	queue := newUnboundedQueue[Out]()
	errs := &errorCollector{cancel: cancel}
	g, gctx := errgroup.WithContext(iterCtx)

	g.Go(func() error {
		defer close(inputCh)
		for {
			v, ok, err := srcIt.Next(iterCtx)
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
			case inputCh <- v:
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
			for v := range inputCh {
				keep, out, err := safeStep(iterCtx, o.step, v)
				if err != nil {
					if !errIsCanceled(err) {
						errs.add(err)
					}
					continue
				}
				if keep {
					queue.push(out)
				}
			}
			return nil
		})
	}

	go func() {
		workerWG.Wait()
		queue.closeQueue()
	}()

	return &unorderedTransformIter[Out]{queue: queue, cancel: cancel, group: g, srcIt: srcIt, errs: errs}
}

func (it *unorderedTransformIter[Out]) Next(ctx context.Context) (Out, bool, error) {
	v, ok, err := it.queue.pop(ctx)
	if err != nil {
		var zero Out
		if errIsCanceled(err) {
			return zero, false, NewCanceledError(err)
		}
		return zero, false, err
	}
	if !ok {
		var zero Out
		if agg := it.errs.collapse(); agg != nil {
			return zero, false, agg
		}
		return zero, false, nil
	}
	return v, true, nil
}

func (it *unorderedTransformIter[Out]) Close() error {
	it.cancel()
	_ = it.group.Wait()
	return it.srcIt.Close()
}

// --- Ordered runner ---
//
// Same worker pool as the Unordered runner, but each item is tagged with
// its source position; a buffer keyed by position re-establishes
// enqueue order before handing results to the completion queue, so the
// consumer always observes them in the order the source produced them.
// Grounded on the teacher's parallelMapOrderedStreaming (parallel.go)
// indexed-value/nextIdx drain.

type orderedBuffer[Out any] struct {
	mu      sync.Mutex
	pending map[int]orderedResult[Out]
	nextIdx int
	queue   *unboundedQueue[Out]
	errs    *errorCollector
}

type orderedResult[Out any] struct {
	keep bool
	out  Out
	err  error
}

func (b *orderedBuffer[Out]) complete(idx int, keep bool, out Out, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[idx] = orderedResult[Out]{keep: keep, out: out, err: err}
	for {
		r, ok := b.pending[b.nextIdx]
		if !ok {
			return
		}
		delete(b.pending, b.nextIdx)
		b.nextIdx++
		if r.err != nil {
			if !errIsCanceled(r.err) {
				b.errs.add(r.err)
			}
			continue
		}
		if r.keep {
			b.queue.push(r.out)
		}
	}
}

type indexedIn[In any] struct {
	idx int
	val In
}

func newOrderedTransformIter[In, Out any](ctx context.Context, o transformOp[In, Out]) AsyncIterator[Out] {
	iterCtx, cancel := context.WithCancel(ctx)
	srcIt := o.src.Iterate(iterCtx)

	workers := o.cfg.Concurrency
	if workers <= 0 {
		workers = DefaultRunnerConfig().Concurrency
	}
	if o.params.Mode == ModeConcurrent {
		workers *= concurrentPacingFactor
	}

	inputCh := make(chan indexedIn[In])
	queue := newUnboundedQueue[Out]()
	errs := &errorCollector{cancel: cancel}
	buf := &orderedBuffer[Out]{pending: make(map[int]orderedResult[Out]), queue: queue, errs: errs}
	g, gctx := errgroup.WithContext(iterCtx)

	g.Go(func() error {
		defer close(inputCh)
		idx := 0
		for {
			v, ok, err := srcIt.Next(iterCtx)
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
			case inputCh <- indexedIn[In]{idx: idx, val: v}:
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
			for item := range inputCh {
				keep, out, err := safeStep(iterCtx, o.step, item.val)
				buf.complete(item.idx, keep, out, err)
			}
			return nil
		})
	}

	go func() {
		workerWG.Wait()
		queue.closeQueue()
	}()

	return &unorderedTransformIter[Out]{queue: queue, cancel: cancel, group: g, srcIt: srcIt, errs: errs}
}
