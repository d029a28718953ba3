// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import (
	"container/heap"

	"rsc.io/nachos/machine"
)

// An Alarm lets threads sleep until a given time. Each kernel has one,
// installed as the handler of the machine's timer interrupt.
type Alarm struct {
	k        *Kernel
	sleepers sleeperHeap
	seq      uint64
}

type sleeper struct {
	wake   machine.Ticks
	seq    uint64
	thread *KThread
}

type sleeperHeap []sleeper

func (h sleeperHeap) Len() int { return len(h) }
func (h sleeperHeap) Less(i, j int) bool {
	if h[i].wake != h[j].wake {
		return h[i].wake < h[j].wake
	}
	return h[i].seq < h[j].seq
}
func (h sleeperHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sleeperHeap) Push(x any)   { *h = append(*h, x.(sleeper)) }
func (h *sleeperHeap) Pop() any {
	old := *h
	s := old[len(old)-1]
	*h = old[:len(old)-1]
	return s
}

func newAlarm(k *Kernel) *Alarm {
	a := &Alarm{k: k}
	k.machine.Timer().SetInterruptHandler(a.TimerInterrupt)
	return a
}

// TimerInterrupt is the timer interrupt handler. It readies every thread
// whose wake time has come, in wake-time order, and then makes the
// current thread yield, so that each tick is a chance for another
// thread to run.
func (a *Alarm) TimerInterrupt() {
	k := a.k
	now := k.now()
	intStatus := k.intr().Disable()
	for len(a.sleepers) > 0 && a.sleepers[0].wake <= now {
		s := heap.Pop(&a.sleepers).(sleeper)
		k.debug(dbgAlarm, "Alarm: wake %v (due %d)", s.thread, s.wake)
		s.thread.Ready()
	}
	k.intr().Restore(intStatus)
	k.Yield()
}

// WaitUntil blocks the current thread for at least x ticks: it is woken
// by the first timer interrupt at or after now+x. A non-positive x
// returns at once.
func (a *Alarm) WaitUntil(x machine.Ticks) {
	k := a.k
	if x <= 0 {
		k.debug(dbgAlarm, "Alarm: %v waits %d ticks, not sleeping", k.current, x)
		return
	}
	wake := k.now() + x

	intStatus := k.intr().Disable()
	k.debug(dbgAlarm, "Alarm: %v sleeps until %d", k.current, wake)
	a.seq++
	heap.Push(&a.sleepers, sleeper{wake: wake, seq: a.seq, thread: k.current})
	k.Sleep()
	k.intr().Restore(intStatus)
}

// Len returns the number of sleeping threads.
func (a *Alarm) Len() int { return len(a.sleepers) }
