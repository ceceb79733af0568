package algo

import "github.com/oleiade/lane/v2"

// frontier is a min-priority open list ordered by f, ties broken by lower h.
type frontier[T any] struct {
	pq *lane.PriorityQueue[T, int64]
}

func newFrontier[T any]() *frontier[T] {
	return &frontier[T]{pq: lane.NewMinPriorityQueue[T, int64]()}
}

func priority(f, h int) int64 {
	return int64(f)<<32 | int64(h)
}

func (fr *frontier[T]) push(v T, f, h int) {
	fr.pq.Push(v, priority(f, h))
}

func (fr *frontier[T]) pop() (T, bool) {
	v, _, ok := fr.pq.Pop()
	return v, ok
}

func (fr *frontier[T]) empty() bool {
	return fr.pq.Empty()
}
