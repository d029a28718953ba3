// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import "container/heap"

// A ThreadQueue holds threads waiting for a resource: the processor,
// a lock, or another thread to finish. Its methods must be called with
// interrupts disabled.
type ThreadQueue interface {
	// WaitForAccess adds t, which wants the resource.
	WaitForAccess(t *KThread)

	// NextThread removes and returns the thread that should get the
	// resource next, or nil if the queue is empty.
	NextThread() *KThread

	// Acquire records that t got the resource without waiting.
	// The queue must be empty.
	Acquire(t *KThread)

	// Len returns the number of waiting threads.
	Len() int
}

// A Scheduler is a queueing policy: it makes the thread queues a kernel
// uses for its ready list, locks and joins.
type Scheduler interface {
	// NewThreadQueue returns an empty queue. TransferPriority asks that
	// waiters lend their priority to the resource holder; policies
	// without donation ignore it.
	NewThreadQueue(transferPriority bool) ThreadQueue
}

// A RoundRobinScheduler serves every queue in FIFO order.
type RoundRobinScheduler struct{}

func NewRoundRobinScheduler() *RoundRobinScheduler { return new(RoundRobinScheduler) }

func (s *RoundRobinScheduler) NewThreadQueue(transferPriority bool) ThreadQueue {
	return new(fifoQueue)
}

type fifoQueue struct {
	list []*KThread
}

func (q *fifoQueue) WaitForAccess(t *KThread) {
	t.k.assert(t.k.intr().Disabled(), "waitForAccess: interrupts enabled")
	t.k.debug(dbgQueue, "Queue %p: add %v", q, t)
	q.list = append(q.list, t)
}

func (q *fifoQueue) NextThread() *KThread {
	if len(q.list) == 0 {
		return nil
	}
	t := q.list[0]
	t.k.assert(t.k.intr().Disabled(), "nextThread: interrupts enabled")
	q.list[0] = nil
	q.list = q.list[1:]
	t.k.debug(dbgQueue, "Queue %p: next %v", q, t)
	return t
}

func (q *fifoQueue) Acquire(t *KThread) {
	t.k.assert(t.k.intr().Disabled(), "acquire: interrupts enabled")
	t.k.assert(len(q.list) == 0, "acquire: queue not empty")
}

func (q *fifoQueue) Len() int { return len(q.list) }

/*
 * priorities
 */
const (
	PriorityMinimum = 0
	PriorityDefault = 1
	PriorityMaximum = 7
)

// SetPriority sets the priority t has under a PriorityScheduler.
// It takes effect the next time t is queued.
func (t *KThread) SetPriority(p int) *KThread {
	t.k.assert(PriorityMinimum <= p && p <= PriorityMaximum, "setPriority: priority out of range")
	t.priority = p
	return t
}

// Priority returns t's scheduling priority.
func (t *KThread) Priority() int { return t.priority }

// A PriorityScheduler serves the highest-priority waiter first and
// waiters of equal priority in FIFO order. Priorities are static:
// there is no donation and no aging.
type PriorityScheduler struct{}

func NewPriorityScheduler() *PriorityScheduler { return new(PriorityScheduler) }

func (s *PriorityScheduler) NewThreadQueue(transferPriority bool) ThreadQueue {
	return new(priorityQueue)
}

type priorityQueue struct {
	waiters waiterHeap
	seq     uint64
}

type waiter struct {
	t        *KThread
	priority int
	seq      uint64
}

type waiterHeap []waiter

func (h waiterHeap) Len() int { return len(h) }
func (h waiterHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h waiterHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *waiterHeap) Push(x any)   { *h = append(*h, x.(waiter)) }
func (h *waiterHeap) Pop() any {
	old := *h
	w := old[len(old)-1]
	*h = old[:len(old)-1]
	return w
}

func (q *priorityQueue) WaitForAccess(t *KThread) {
	t.k.assert(t.k.intr().Disabled(), "waitForAccess: interrupts enabled")
	t.k.debug(dbgQueue, "Queue %p: add %v at priority %d", q, t, t.priority)
	q.seq++
	heap.Push(&q.waiters, waiter{t: t, priority: t.priority, seq: q.seq})
}

func (q *priorityQueue) NextThread() *KThread {
	if len(q.waiters) == 0 {
		return nil
	}
	w := heap.Pop(&q.waiters).(waiter)
	w.t.k.assert(w.t.k.intr().Disabled(), "nextThread: interrupts enabled")
	w.t.k.debug(dbgQueue, "Queue %p: next %v", q, w.t)
	return w.t
}

func (q *priorityQueue) Acquire(t *KThread) {
	t.k.assert(t.k.intr().Disabled(), "acquire: interrupts enabled")
	t.k.assert(len(q.waiters) == 0, "acquire: queue not empty")
}

func (q *priorityQueue) Len() int { return len(q.waiters) }
