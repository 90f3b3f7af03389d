package asyncstream

import (
	"context"
	"slices"

	collections "github.com/ilxqx/go-collections"
)

// FromCollectionsList builds a Stream from a collections.List, draining
// it eagerly into a slice source (go-collections' iteration is
// synchronous, so there is nothing to bridge asynchronously here).
func FromCollectionsList[T any](list collections.List[T]) Stream[T] {
	return FromSlice(slices.Collect(list.Seq()))
}

// FromCollectionsSet builds a Stream from a collections.Set.
func FromCollectionsSet[T any](set collections.Set[T]) Stream[T] {
	return FromSlice(slices.Collect(set.Seq()))
}

// ToCollectionsList consumes the stream into a collections.List[T],
// materializing an ArrayList the way the teacher's ToArrayList does
// (collections.go), but as a terminal operation on an async Stream
// rather than a synchronous one.
func (s Stream[T]) ToCollectionsList(ctx context.Context) (collections.List[T], error) {
	items, err := s.ToList(ctx)
	if err != nil {
		return nil, err
	}
	list := collections.NewArrayList[T]()
	list.AddSeq(slices.Values(items))
	return list, nil
}

// ToCollectionsSet consumes the stream into a collections.Set[T],
// deduplicating along the way.
func ToCollectionsSet[T comparable](ctx context.Context, s Stream[T]) (collections.Set[T], error) {
	items, err := s.ToList(ctx)
	if err != nil {
		return nil, err
	}
	set := collections.NewHashSet[T]()
	set.AddSeq(slices.Values(items))
	return set, nil
}
