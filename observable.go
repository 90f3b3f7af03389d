package asyncstream

import "context"

// Observer receives push-based notifications from an Observable: zero or
// more OnNext calls, then exactly one of OnError or OnComplete.
type Observer[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Observable is the push-based source side of the bridge (§4.8).
// Subscribe registers o and returns a function that cancels the
// subscription; an Observable may be subscribed to more than once.
type Observable[T any] interface {
	Subscribe(o Observer[T]) (unsubscribe func())
}

// observableBridgeIter adapts a push-based Observable into the pull-based
// AsyncIterator protocol via a queue. maxBuffer<=0 means unbounded;
// otherwise the queue drops newest-arriving items once full, matching
// the bounded-queue policy named in §4.8 — a source that out-paces its
// consumer loses its most recent values rather than blocking the
// producer or evicting what is already queued.
//
// Unlike a naive bridge, OnError is NOT swallowed: it is recorded on the
// queue as a terminal failure (wrapped as a SourceError) and surfaced to
// the consumer once buffered items are drained, instead of being
// discarded after the subscription is torn down.
type observableBridgeIter[T any] struct {
	queue       *boundedDropNewestQueue[T]
	unsubscribe func()
	closeOnce   bool
}

func newObservableBridgeIter[T any](ctx context.Context, obs Observable[T], maxBuffer int) *observableBridgeIter[T] {
	bridge := &observableBridgeIter[T]{
		queue: newBoundedDropNewestQueue[T](maxBuffer),
	}
	bridge.unsubscribe = obs.Subscribe(&bridgeObserver[T]{queue: bridge.queue})

	// Close the queue once ctx is canceled, so a pending Next wakes and
	// ends. The subscription itself is only released by Close.
	go func() {
		<-ctx.Done()
		bridge.queue.closeQueue()
	}()

	return bridge
}

func (b *observableBridgeIter[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := b.queue.pop(ctx)
	if err != nil {
		if !errIsCanceled(err) {
			return v, false, err
		}
		return v, false, NewCanceledError(err)
	}
	return v, ok, nil
}

func (b *observableBridgeIter[T]) Close() error {
	if b.closeOnce {
		return nil
	}
	b.closeOnce = true
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.queue.closeQueue()
	return nil
}

type bridgeObserver[T any] struct {
	queue *boundedDropNewestQueue[T]
}

func (b *bridgeObserver[T]) OnNext(value T) { b.queue.offer(value) }
func (b *bridgeObserver[T]) OnError(err error) {
	b.queue.fail(NewSourceError(err))
}
func (b *bridgeObserver[T]) OnComplete() { b.queue.closeQueue() }

// --- A minimal Observable implementation used for tests and for bridging
// the other direction (Stream -> push consumers is out of scope per the
// non-goals; this file only builds the pull side). ---

// simpleObservable is a reusable push-source: each Subscribe call spawns
// a fresh producer goroutine that calls emit against the given Observer.
type simpleObservable[T any] struct {
	emit func(ctx context.Context, o Observer[T])
}

// NewObservable builds an Observable whose producer logic is emit: it
// should call o.OnNext for each value and must end by calling exactly
// one of o.OnError or o.OnComplete.
func NewObservable[T any](emit func(ctx context.Context, o Observer[T])) Observable[T] {
	return &simpleObservable[T]{emit: emit}
}

func (s *simpleObservable[T]) Subscribe(o Observer[T]) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(context.Background())
	go s.emit(ctx, o)
	return cancel
}
