// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

// A Condition is a condition variable: threads holding its lock sleep on
// it until another holder wakes them. It is built on the thread
// primitives directly, not on semaphores.
//
// Waiters are woken in the order they went to sleep, and a woken thread
// holds the lock again before Sleep returns. There are no spurious
// wake-ups, but by the time a woken thread reacquires the lock the state
// it waited for may have changed again, so callers should recheck it in
// a loop.
type Condition struct {
	lock    *Lock
	waiters []*KThread
}

// NewCondition returns a condition variable protected by lock.
func NewCondition(lock *Lock) *Condition {
	return &Condition{lock: lock}
}

// Sleep atomically releases the lock and blocks the current thread until
// another thread wakes it, then reacquires the lock.
// The current thread must hold the lock.
func (c *Condition) Sleep() {
	k := c.lock.k
	k.assert(c.lock.IsHeldByCurrentThread(), "condition sleep: lock not held")
	k.assert(k.current.status != StatusFinished, "condition sleep: thread finished")

	intStatus := k.intr().Disable()
	k.debug(dbgCondition, "Condition %p: %v sleeps", c, k.current)
	c.waiters = append(c.waiters, k.current)
	c.lock.Release()
	k.Sleep()
	k.intr().Restore(intStatus)

	c.lock.Acquire()
}

// Wake wakes the thread that has slept longest, if any.
// The current thread must hold the lock.
func (c *Condition) Wake() {
	k := c.lock.k
	k.assert(c.lock.IsHeldByCurrentThread(), "condition wake: lock not held")

	intStatus := k.intr().Disable()
	if len(c.waiters) > 0 {
		t := c.waiters[0]
		c.waiters[0] = nil
		c.waiters = c.waiters[1:]
		k.debug(dbgCondition, "Condition %p: wake %v", c, t)
		t.Ready()
	} else {
		k.debug(dbgCondition, "Condition %p: wake with no waiters", c)
	}
	k.intr().Restore(intStatus)
}

// WakeAll wakes every sleeping thread, oldest first.
// The current thread must hold the lock.
func (c *Condition) WakeAll() {
	k := c.lock.k
	k.assert(c.lock.IsHeldByCurrentThread(), "condition wakeAll: lock not held")

	intStatus := k.intr().Disable()
	if len(c.waiters) == 0 {
		k.debug(dbgCondition, "Condition %p: wakeAll with no waiters", c)
	}
	for _, t := range c.waiters {
		k.debug(dbgCondition, "Condition %p: wake %v", c, t)
		t.Ready()
	}
	c.waiters = nil
	k.intr().Restore(intStatus)
}

// Len returns the number of sleeping threads.
func (c *Condition) Len() int { return len(c.waiters) }

// Lock returns the lock protecting c.
func (c *Condition) Lock() *Lock { return c.lock }
