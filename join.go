package asyncstream

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// JoinResult is one matched pair produced by Join, grounded on the
// teacher's JoinResult[K,V1,V2] (join.go) shape.
type JoinResult[K comparable, V1, V2 any] struct {
	Key   K
	Left  V1
	Right V2
}

// joinOp is a symmetric hash join over two independently-typed sources
// sharing a comparable key (§4.7).
type joinOp[K comparable, V1, V2 any] struct {
	left     Operator[V1]
	right    Operator[V2]
	leftKey  func(V1) K
	rightKey func(V2) K
	params   ExecParams
	cfg      RunnerConfig
}

func newJoinOp[K comparable, V1, V2 any](
	left Operator[V1], right Operator[V2],
	leftKey func(V1) K, rightKey func(V2) K,
) Operator[JoinResult[K, V1, V2]] {
	return joinOp[K, V1, V2]{
		left: left, right: right, leftKey: leftKey, rightKey: rightKey,
		params: DefaultParams(), cfg: DefaultRunnerConfig(),
	}
}

func (o joinOp[K, V1, V2]) Params() ExecParams { return o.params }
func (o joinOp[K, V1, V2]) WithParams(p ExecParams) Operator[JoinResult[K, V1, V2]] {
	o.params = p
	return o
}

func (o joinOp[K, V1, V2]) Iterate(ctx context.Context) AsyncIterator[JoinResult[K, V1, V2]] {
	if o.params.Mode == ModeSequential {
		return newSequentialJoinIter(ctx, o)
	}
	return newConcurrentJoinIter(ctx, o)
}

// --- Sequential: materialize both sides, build a hash table of the left
// side, then collect every match in the right side's order and yield
// them from a slice. ---

func newSequentialJoinIter[K comparable, V1, V2 any](ctx context.Context, o joinOp[K, V1, V2]) AsyncIterator[JoinResult[K, V1, V2]] {
	leftVals, leftErr := materialize(ctx, o.left)
	rightVals, rightErr := materialize(ctx, o.right)
	if err := Collapse(nonNil(leftErr, rightErr)); err != nil {
		return &errOnlyIter[JoinResult[K, V1, V2]]{err: err}
	}

	leftBuckets := make(map[K][]V1)
	for _, v := range leftVals {
		k := o.leftKey(v)
		leftBuckets[k] = append(leftBuckets[k], v)
	}

	var results []JoinResult[K, V1, V2]
	for _, rv := range rightVals {
		k := o.rightKey(rv)
		for _, lv := range leftBuckets[k] {
			results = append(results, JoinResult[K, V1, V2]{Key: k, Left: lv, Right: rv})
		}
	}
	return &sliceIter[JoinResult[K, V1, V2]]{items: results}
}

func nonNil(errs ...error) []error {
	var out []error
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type errOnlyIter[T any] struct{ err error }

func (it *errOnlyIter[T]) Next(context.Context) (T, bool, error) {
	var zero T
	return zero, false, it.err
}
func (it *errOnlyIter[T]) Close() error { return nil }

// --- Concurrent / Parallel: two drainers feed a shared pair of hash
// tables behind one mutex (the "key lock"); a match is emitted the
// moment it is discovered, by whichever side's drainer is running at
// the time — so output order reflects discovery order, not either
// side's input order. This is a deliberate consequence of symmetric
// hashing, not fused with "outer order" the way Concat orders its
// sources. ---

type joinShared[K comparable, V1, V2 any] struct {
	mu           sync.Mutex
	leftBuckets  map[K][]V1
	rightBuckets map[K][]V2
	queue        *unboundedQueue[JoinResult[K, V1, V2]]
}

func (s *joinShared[K, V1, V2]) addLeft(v V1, key func(V1) K) {
	k := key(v)
	s.mu.Lock()
	s.leftBuckets[k] = append(s.leftBuckets[k], v)
	matches := s.rightBuckets[k]
	for _, rv := range matches {
		s.queue.push(JoinResult[K, V1, V2]{Key: k, Left: v, Right: rv})
	}
	s.mu.Unlock()
}

func (s *joinShared[K, V1, V2]) addRight(v V2, key func(V2) K) {
	k := key(v)
	s.mu.Lock()
	s.rightBuckets[k] = append(s.rightBuckets[k], v)
	matches := s.leftBuckets[k]
	for _, lv := range matches {
		s.queue.push(JoinResult[K, V1, V2]{Key: k, Left: lv, Right: v})
	}
	s.mu.Unlock()
}

type concurrentJoinIter[K comparable, V1, V2 any] struct {
	queue  *unboundedQueue[JoinResult[K, V1, V2]]
	cancel context.CancelFunc
	group  *errgroup.Group
	leftIt interface{ Close() error }
	rightIt interface{ Close() error }
	errs   *errorCollector
}

func newConcurrentJoinIter[K comparable, V1, V2 any](ctx context.Context, o joinOp[K, V1, V2]) AsyncIterator[JoinResult[K, V1, V2]] {
	iterCtx, cancel := context.WithCancel(ctx)
	leftIt := o.left.Iterate(iterCtx)
	rightIt := o.right.Iterate(iterCtx)

	queue := newUnboundedQueue[JoinResult[K, V1, V2]]()
	errs := &errorCollector{cancel: cancel}
	shared := &joinShared[K, V1, V2]{
		leftBuckets:  make(map[K][]V1),
		rightBuckets: make(map[K][]V2),
		queue:        queue,
	}

	g, _ := errgroup.WithContext(iterCtx)
	var sidesWG sync.WaitGroup
	sidesWG.Add(2)

	g.Go(func() error {
		defer sidesWG.Done()
		for {
			v, ok, err := leftIt.Next(iterCtx)
			if err != nil {
				if !errIsCanceled(err) {
					errs.add(err)
				}
				return nil
			}
			if !ok {
				return nil
			}
			shared.addLeft(v, o.leftKey)
		}
	})

	g.Go(func() error {
		defer sidesWG.Done()
		for {
			v, ok, err := rightIt.Next(iterCtx)
			if err != nil {
				if !errIsCanceled(err) {
					errs.add(err)
				}
				return nil
			}
			if !ok {
				return nil
			}
			shared.addRight(v, o.rightKey)
		}
	})

	go func() {
		sidesWG.Wait()
		queue.closeQueue()
	}()

	return &concurrentJoinIter[K, V1, V2]{queue: queue, cancel: cancel, group: g, leftIt: leftIt, rightIt: rightIt, errs: errs}
}

func (it *concurrentJoinIter[K, V1, V2]) Next(ctx context.Context) (JoinResult[K, V1, V2], bool, error) {
	v, ok, err := it.queue.pop(ctx)
	if err != nil {
		var zero JoinResult[K, V1, V2]
		if errIsCanceled(err) {
			return zero, false, NewCanceledError(err)
		}
		return zero, false, err
	}
	if !ok {
		var zero JoinResult[K, V1, V2]
		if agg := it.errs.collapse(); agg != nil {
			return zero, false, agg
		}
		return zero, false, nil
	}
	return v, true, nil
}

func (it *concurrentJoinIter[K, V1, V2]) Close() error {
	it.cancel()
	_ = it.group.Wait()
	errs := []error{}
	if err := it.leftIt.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := it.rightIt.Close(); err != nil {
		errs = append(errs, err)
	}
	return Collapse(errs)
}
