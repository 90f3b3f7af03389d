package asyncstream

import "context"

// --- Empty ---

type emptyOp[T any] struct {
	params ExecParams
}

// emptySource builds a leaf with no elements.
func emptySource[T any]() Operator[T] {
	return emptyOp[T]{params: DefaultParams()}
}

func (o emptyOp[T]) Params() ExecParams          { return o.params }
func (o emptyOp[T]) WithParams(p ExecParams) Operator[T] { o.params = p; return o }
func (o emptyOp[T]) Iterate(context.Context) AsyncIterator[T] {
	return &emptyIter[T]{}
}
func (o emptyOp[T]) knownLen() (int, bool) { return 0, true }

type emptyIter[T any] struct{}

func (emptyIter[T]) Next(context.Context) (T, bool, error) {
	var zero T
	return zero, false, nil
}
func (emptyIter[T]) Close() error { return nil }

// --- Singleton ---

type singletonOp[T any] struct {
	value  T
	params ExecParams
}

func singletonSource[T any](v T) Operator[T] {
	return singletonOp[T]{value: v, params: DefaultParams()}
}

func (o singletonOp[T]) Params() ExecParams          { return o.params }
func (o singletonOp[T]) WithParams(p ExecParams) Operator[T] { o.params = p; return o }
func (o singletonOp[T]) Iterate(context.Context) AsyncIterator[T] {
	return &singletonIter[T]{value: o.value, remaining: true}
}
func (o singletonOp[T]) knownLen() (int, bool) { return 1, true }

type singletonIter[T any] struct {
	value     T
	remaining bool
}

func (it *singletonIter[T]) Next(context.Context) (T, bool, error) {
	if !it.remaining {
		var zero T
		return zero, false, nil
	}
	it.remaining = false
	return it.value, true, nil
}
func (it *singletonIter[T]) Close() error { return nil }

// --- FromSlice (FromEnumerable) ---

type sliceOp[T any] struct {
	items  []T
	params ExecParams
}

// sliceSource builds a leaf backed by an in-memory slice. Supports the
// SkipTaker fusion capability directly, since a slice already knows its
// exact length and can reslice itself rather than stacking a limiter.
func sliceSource[T any](items []T) Operator[T] {
	return sliceOp[T]{items: items, params: DefaultParams()}
}

func (o sliceOp[T]) Params() ExecParams          { return o.params }
func (o sliceOp[T]) WithParams(p ExecParams) Operator[T] { o.params = p; return o }
func (o sliceOp[T]) Iterate(context.Context) AsyncIterator[T] {
	return &sliceIter[T]{items: o.items}
}
func (o sliceOp[T]) knownLen() (int, bool) { return len(o.items), true }

func (o sliceOp[T]) FuseSkipTake(skip, take int) (Operator[T], bool) {
	n := len(o.items)
	if skip < 0 {
		skip = 0
	}
	if skip > n {
		skip = n
	}
	end := n
	if take >= 0 && skip+take < end {
		end = skip + take
	}
	o.items = o.items[skip:end]
	return o, true
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) {
	if it.pos >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, true, nil
}
func (it *sliceIter[T]) Close() error { return nil }

// --- FromObservable ---

// observableSourceOp adapts a push-based Observable into a pull-based
// leaf via the bridge queue defined in observable.go.
type observableSourceOp[T any] struct {
	observable Observable[T]
	maxBuffer  int
	params     ExecParams
}

func fromObservableSource[T any](o Observable[T], maxBuffer int) Operator[T] {
	return observableSourceOp[T]{observable: o, maxBuffer: maxBuffer, params: DefaultParams()}
}

func (o observableSourceOp[T]) Params() ExecParams { return o.params }
func (o observableSourceOp[T]) WithParams(p ExecParams) Operator[T] {
	o.params = p
	return o
}
func (o observableSourceOp[T]) Iterate(ctx context.Context) AsyncIterator[T] {
	return newObservableBridgeIter(ctx, o.observable, o.maxBuffer)
}
