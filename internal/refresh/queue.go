package refresh

import "time"

type task[K comparable] struct {
	key K
	at  time.Time
	seq uint64
}

// taskQueue is a min-heap ordered by due time; see container/heap.
type taskQueue[K comparable] []task[K]

func (q taskQueue[K]) Len() int { return len(q) }

func (q taskQueue[K]) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue[K]) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue[K]) Push(x any) { *q = append(*q, x.(task[K])) }

func (q *taskQueue[K]) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	*q = old[:n-1]
	return t
}
