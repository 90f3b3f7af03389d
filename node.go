package asyncstream

import "context"

// AsyncIterator is the pull-based cursor over an operator's output. Next
// suspends until the next value is ready, the sequence ends, the cursor
// is canceled, or an error occurs; at most one of (value ready) / (ok ==
// false) / (err != nil) applies per call. Close releases any resources
// held by the iterator (worker goroutines, queues) and must be safe to
// call more than once.
type AsyncIterator[T any] interface {
	Next(ctx context.Context) (value T, ok bool, err error)
	Close() error
}

// Operator is the node protocol every combinator in this package
// implements. Params/WithParams carry the sticky execution-parameter
// axis (§4.1): calling an `as_*` combinator rebinds the parameters of
// the operator it is called on instead of inserting a wrapping node, so
// chains of `as_concurrent().as_parallel().as_unordered()` collapse to
// whatever the last call asked for. Iterate produces a fresh, single-use
// cursor bound to ctx; operators are themselves stateless and may be
// iterated multiple times (e.g. by Flatten's inner streams).
type Operator[T any] interface {
	Params() ExecParams
	WithParams(p ExecParams) Operator[T]
	Iterate(ctx context.Context) AsyncIterator[T]
}

// Concatable is implemented by operators that know how to fuse a
// subsequent Concat/Append directly into themselves instead of wrapping
// (e.g. a Concat node can append one more source onto its existing
// list rather than nesting another Concat around itself). ok is false
// when the receiver declines the fusion, in which case the caller falls
// back to wrapping.
type Concatable[T any] interface {
	FuseConcat(next Operator[T]) (fused Operator[T], ok bool)
}

// SkipTaker is implemented by operators that can answer a Skip/Take
// directly from their own definition, typically because they already
// know their exact length or already carry a skip/take window (e.g. a
// slice source can slice itself; a prior Take can shrink further in
// place rather than stacking two limiter nodes).
type SkipTaker[T any] interface {
	FuseSkipTake(skip, take int) (fused Operator[T], ok bool)
}

// SelectWherer is implemented by the select-where transform node so that
// chained Where calls compose their predicates into one node instead of
// stacking a wrapper per call (§4.2 fusion). Select does not use it: each
// Select adds its own transform node.
type SelectWherer[T any] interface {
	FuseSelectWhere(step selectWhereStep[T]) (Operator[T], bool)
}

// sliceLen is implemented by operators whose total element count is
// known without iterating (used by SkipTake fusion to clamp counts).
type sliceLen interface {
	knownLen() (n int, known bool)
}

// closeAll closes every iterator in its, collecting every close error.
func closeAll(its ...interface{ Close() error }) error {
	var errs []error
	for _, it := range its {
		if it == nil {
			continue
		}
		if err := it.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return Collapse(errs)
}
