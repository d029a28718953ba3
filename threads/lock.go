// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

// A Lock is a mutual exclusion lock for kernel threads. A thread that
// finds it held sleeps on the lock's wait queue; Release hands the lock
// straight to the next waiter.
type Lock struct {
	k         *Kernel
	holder    *KThread
	waitQueue ThreadQueue
}

// NewLock returns an unheld lock.
func NewLock(k *Kernel) *Lock {
	return &Lock{k: k, waitQueue: k.sched.NewThreadQueue(true)}
}

// Acquire blocks until the current thread holds l.
// The current thread must not already hold it.
func (l *Lock) Acquire() {
	k := l.k
	k.assert(!l.IsHeldByCurrentThread(), "lock acquire: lock already held by current thread")

	intStatus := k.intr().Disable()
	t := k.current
	if l.holder != nil {
		k.debug(dbgSync, "Lock %p: %v waits for %v", l, t, l.holder)
		l.waitQueue.WaitForAccess(t)
		k.Sleep()
	} else {
		l.waitQueue.Acquire(t)
		l.holder = t
	}
	k.assert(l.holder == t, "lock acquire: woken without the lock")
	k.intr().Restore(intStatus)
}

// Release releases l, which the current thread must hold.
func (l *Lock) Release() {
	k := l.k
	k.assert(l.IsHeldByCurrentThread(), "lock release: lock not held by current thread")

	intStatus := k.intr().Disable()
	if l.holder = l.waitQueue.NextThread(); l.holder != nil {
		k.debug(dbgSync, "Lock %p: handed to %v", l, l.holder)
		l.holder.Ready()
	}
	k.intr().Restore(intStatus)
}

// IsHeldByCurrentThread reports whether the current thread holds l.
func (l *Lock) IsHeldByCurrentThread() bool {
	return l.holder == l.k.current
}

// A Semaphore is a counting semaphore for kernel threads.
type Semaphore struct {
	k         *Kernel
	value     int
	waitQueue ThreadQueue
}

// NewSemaphore returns a semaphore with the given initial value.
func NewSemaphore(k *Kernel, initial int) *Semaphore {
	k.assert(initial >= 0, "semaphore: negative initial value")
	return &Semaphore{k: k, value: initial, waitQueue: k.sched.NewThreadQueue(false)}
}

// P waits until the value is positive, then decrements it.
func (s *Semaphore) P() {
	k := s.k
	intStatus := k.intr().Disable()
	if s.value == 0 {
		k.debug(dbgSync, "Semaphore %p: %v waits", s, k.current)
		s.waitQueue.WaitForAccess(k.current)
		k.Sleep()
	} else {
		s.value--
	}
	k.intr().Restore(intStatus)
}

// V increments the value, or wakes one waiting thread if there is one;
// the woken thread consumes the increment.
func (s *Semaphore) V() {
	k := s.k
	intStatus := k.intr().Disable()
	if t := s.waitQueue.NextThread(); t != nil {
		t.Ready()
	} else {
		s.value++
	}
	k.intr().Restore(intStatus)
}

// Value returns the current count.
func (s *Semaphore) Value() int { return s.value }
