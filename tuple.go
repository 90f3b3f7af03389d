package asyncstream

import "context"

// Pair represents a tuple of two values, a general two-value carrier
// (e.g. OptionalZip in optional.go). Join does not use it; it produces
// JoinResult values.
type Pair[T, U any] struct {
	First  T
	Second U
}

// NewPair creates a new Pair.
func NewPair[T, U any](first T, second U) Pair[T, U] {
	return Pair[T, U]{First: first, Second: second}
}

// Swap returns a new Pair with First and Second swapped.
func (p Pair[T, U]) Swap() Pair[U, T] {
	return Pair[U, T]{First: p.Second, Second: p.First}
}

// MapFirst transforms the First element.
func (p Pair[T, U]) MapFirst(fn func(T) T) Pair[T, U] {
	return Pair[T, U]{First: fn(p.First), Second: p.Second}
}

// MapSecond transforms the Second element.
func (p Pair[T, U]) MapSecond(fn func(U) U) Pair[T, U] {
	return Pair[T, U]{First: p.First, Second: fn(p.Second)}
}

// Unpack returns the pair's elements separately.
func (p Pair[T, U]) Unpack() (T, U) {
	return p.First, p.Second
}

// Triple represents a tuple of three values.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// NewTriple creates a new Triple.
func NewTriple[A, B, C any](first A, second B, third C) Triple[A, B, C] {
	return Triple[A, B, C]{First: first, Second: second, Third: third}
}

// ToPair converts Triple to Pair by dropping the third element.
func (t Triple[A, B, C]) ToPair() Pair[A, B] {
	return Pair[A, B]{First: t.First, Second: t.Second}
}

// Unpack returns the triple's elements separately.
func (t Triple[A, B, C]) Unpack() (A, B, C) {
	return t.First, t.Second, t.Third
}

// MapFirst transforms the First element.
func (t Triple[A, B, C]) MapFirst(fn func(A) A) Triple[A, B, C] {
	return Triple[A, B, C]{First: fn(t.First), Second: t.Second, Third: t.Third}
}

// MapSecond transforms the Second element.
func (t Triple[A, B, C]) MapSecond(fn func(B) B) Triple[A, B, C] {
	return Triple[A, B, C]{First: t.First, Second: fn(t.Second), Third: t.Third}
}

// MapThird transforms the Third element.
func (t Triple[A, B, C]) MapThird(fn func(C) C) Triple[A, B, C] {
	return Triple[A, B, C]{First: t.First, Second: t.Second, Third: fn(t.Third)}
}

// Quad represents a tuple of four values.
type Quad[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

// NewQuad creates a new Quad.
func NewQuad[A, B, C, D any](first A, second B, third C, fourth D) Quad[A, B, C, D] {
	return Quad[A, B, C, D]{First: first, Second: second, Third: third, Fourth: fourth}
}

// ToTriple converts Quad to Triple by dropping the fourth element.
func (q Quad[A, B, C, D]) ToTriple() Triple[A, B, C] {
	return Triple[A, B, C]{First: q.First, Second: q.Second, Third: q.Third}
}

// ToPair converts Quad to Pair by dropping the third and fourth elements.
func (q Quad[A, B, C, D]) ToPair() Pair[A, B] {
	return Pair[A, B]{First: q.First, Second: q.Second}
}

// Unpack returns the quad's elements separately.
func (q Quad[A, B, C, D]) Unpack() (A, B, C, D) {
	return q.First, q.Second, q.Third, q.Fourth
}

// --- Zip variants for tuples ---

// Zip3 combines three Streams into a Stream of Triples, pulling one
// element from each in lockstep and ending as soon as any one of them
// ends.
func Zip3[A, B, C any](s1 Stream[A], s2 Stream[B], s3 Stream[C]) Stream[Triple[A, B, C]] {
	return wrap[Triple[A, B, C]](zip3Op[A, B, C]{a: s1.op, b: s2.op, c: s3.op, params: DefaultParams()})
}

type zip3Op[A, B, C any] struct {
	a      Operator[A]
	b      Operator[B]
	c      Operator[C]
	params ExecParams
}

func (o zip3Op[A, B, C]) Params() ExecParams { return o.params }
func (o zip3Op[A, B, C]) WithParams(p ExecParams) Operator[Triple[A, B, C]] {
	o.params = p
	return o
}

func (o zip3Op[A, B, C]) Iterate(ctx context.Context) AsyncIterator[Triple[A, B, C]] {
	return &zip3Iter[A, B, C]{a: o.a.Iterate(ctx), b: o.b.Iterate(ctx), c: o.c.Iterate(ctx)}
}

type zip3Iter[A, B, C any] struct {
	a AsyncIterator[A]
	b AsyncIterator[B]
	c AsyncIterator[C]
}

func (it *zip3Iter[A, B, C]) Next(ctx context.Context) (Triple[A, B, C], bool, error) {
	va, oka, erra := it.a.Next(ctx)
	if erra != nil {
		var zero Triple[A, B, C]
		return zero, false, erra
	}
	vb, okb, errb := it.b.Next(ctx)
	if errb != nil {
		var zero Triple[A, B, C]
		return zero, false, errb
	}
	vc, okc, errc := it.c.Next(ctx)
	if errc != nil {
		var zero Triple[A, B, C]
		return zero, false, errc
	}
	if !oka || !okb || !okc {
		var zero Triple[A, B, C]
		return zero, false, nil
	}
	return Triple[A, B, C]{First: va, Second: vb, Third: vc}, true, nil
}

func (it *zip3Iter[A, B, C]) Close() error {
	return Collapse(nonNil(it.a.Close(), it.b.Close(), it.c.Close()))
}

// Unzip consumes a Stream of Pairs into two separate slices.
func Unzip[T, U any](ctx context.Context, s Stream[Pair[T, U]]) ([]T, []U, error) {
	items, err := s.ToList(ctx)
	if err != nil {
		return nil, nil, err
	}
	firsts := make([]T, 0, len(items))
	seconds := make([]U, 0, len(items))
	for _, p := range items {
		firsts = append(firsts, p.First)
		seconds = append(seconds, p.Second)
	}
	return firsts, seconds, nil
}
