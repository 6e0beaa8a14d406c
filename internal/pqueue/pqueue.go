// Package pqueue provides the binary min-heap used by the pixel-grid
// Dijkstra passes.
//
// The queue does not support decrease-key. Callers push a new entry when a
// pixel's cost improves and skip stale entries on pop:
//
//	for q.Len() > 0 {
//		e := q.Pop()
//		if e.Cost > cost[e.Index] {
//			continue // stale
//		}
//		...
//	}
package pqueue

import "container/heap"

// Entry is a queued pixel (or any integer handle) with its tentative cost.
type Entry struct {
	Cost  float64
	Index int
}

type entries []Entry

func (e entries) Len() int { return len(e) }

// Less breaks cost ties by index so that pop order is deterministic.
func (e entries) Less(i, j int) bool {
	if e[i].Cost != e[j].Cost {
		return e[i].Cost < e[j].Cost
	}
	return e[i].Index < e[j].Index
}

func (e entries) Swap(i, j int) { e[i], e[j] = e[j], e[i] }

func (e *entries) Push(x any) { *e = append(*e, x.(Entry)) }

func (e *entries) Pop() any {
	old := *e
	x := old[len(old)-1]
	*e = old[:len(old)-1]
	return x
}

// Queue is a min-heap of entries ordered by cost.
type Queue struct {
	h entries
}

// New returns an empty queue with room for capacity entries.
func New(capacity int) *Queue {
	return &Queue{h: make(entries, 0, capacity)}
}

// Len returns the number of queued entries, stale ones included.
func (q *Queue) Len() int { return len(q.h) }

// Push queues index at cost.
func (q *Queue) Push(cost float64, index int) {
	heap.Push(&q.h, Entry{Cost: cost, Index: index})
}

// Pop removes and returns the cheapest entry. It panics on an empty queue.
func (q *Queue) Pop() Entry {
	return heap.Pop(&q.h).(Entry)
}
