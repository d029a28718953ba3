// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

// A Communicator passes words from speakers to listeners. Each word is
// handed from exactly one speaker to exactly one listener: a speaker
// waits until some listener is waiting and the mailbox is empty, and a
// listener waits until the mailbox holds a word.
//
// Pending speakers and listeners are paired in whatever order the
// scheduler lets them run, not necessarily in arrival order.
type Communicator struct {
	lock      *Lock
	speakCond *Condition
	listCond  *Condition

	word      int
	full      bool // word holds a value not yet heard
	speakers  int
	listeners int
}

// NewCommunicator returns a communicator with an empty mailbox.
func NewCommunicator(k *Kernel) *Communicator {
	l := NewLock(k)
	return &Communicator{
		lock:      l,
		speakCond: NewCondition(l),
		listCond:  NewCondition(l),
	}
}

// Speak waits for a listener and hands it word.
func (c *Communicator) Speak(word int) {
	if !c.lock.IsHeldByCurrentThread() {
		c.lock.Acquire()
	}
	c.speakers++
	for c.full || c.listeners == 0 {
		c.speakCond.Sleep()
	}
	c.word = word
	c.full = true
	c.listCond.Wake()
	c.speakers--
	c.lock.Release()
}

// Listen waits for a speaker and returns the word it spoke.
func (c *Communicator) Listen() int {
	if !c.lock.IsHeldByCurrentThread() {
		c.lock.Acquire()
	}
	c.speakCond.WakeAll()
	c.listeners++
	for !c.full {
		c.listCond.Sleep()
	}
	word := c.word
	c.full = false
	c.listeners--
	c.speakCond.WakeAll()
	c.lock.Release()
	return word
}

// Waiting returns the number of speakers and listeners inside Speak and Listen.
func (c *Communicator) Waiting() (speakers, listeners int) {
	return c.speakers, c.listeners
}
