// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

// A TCB is an execution context: a goroutine that runs only while it
// holds the processor.
type TCB struct {
	m         *Machine
	resume    chan struct{}
	started   bool
	destroyed bool
}

// NewTCB returns an execution context that has not been started.
func (m *Machine) NewTCB() *TCB {
	return &TCB{m: m, resume: make(chan struct{})}
}

func (t *TCB) Started() bool   { return t.started }
func (t *TCB) Destroyed() bool { return t.destroyed }

// Start creates the goroutine behind t. It waits until t is first
// switched to and then runs fn. Fn must end by handing the processor on
// with ExitFrom; a context that simply returns halts the machine.
func (t *TCB) Start(fn func()) {
	if t.started {
		panic("tcb: started twice")
	}
	t.started = true
	t.m.live[t] = true
	go t.run(fn)
}

func (t *TCB) run(fn func()) {
	if _, ok := <-t.resume; !ok {
		return
	}
	fn()
	if t.destroyed {
		// retired by ExitFrom
		return
	}
	t.m.Halt(errReturned)
}

// SwitchFrom transfers the processor from cur, the running context, to t,
// and blocks until cur is switched back in. A context destroyed while
// switched out never runs again.
func (t *TCB) SwitchFrom(cur *TCB) {
	if t == cur {
		return
	}
	t.handoff()
	if _, ok := <-cur.resume; !ok {
		select {}
	}
}

// ExitFrom transfers the processor from cur, the running context, to t
// for good. It returns once another context has destroyed cur; by then
// the caller no longer holds the processor and must return without
// touching any shared state.
func (t *TCB) ExitFrom(cur *TCB) {
	if t == cur {
		panic("tcb: context exited to itself")
	}
	t.handoff()
	if _, ok := <-cur.resume; ok {
		panic("tcb: exited context resumed")
	}
}

func (t *TCB) handoff() {
	if !t.started || t.destroyed {
		panic("tcb: switch to dead context")
	}
	t.m.stats.ContextSwitches++
	t.m.cur = t
	t.resume <- struct{}{}
}

// Destroy releases t. It must be called exactly once, from another context.
func (t *TCB) Destroy() {
	if t.destroyed {
		panic("tcb: destroyed twice")
	}
	if t == t.m.cur {
		panic("tcb: context destroyed itself")
	}
	t.destroyed = true
	delete(t.m.live, t)
	close(t.resume)
}

// Current returns the context holding the processor.
func (m *Machine) Current() *TCB { return m.cur }

// LiveContexts returns the number of started contexts not yet destroyed.
func (m *Machine) LiveContexts() int { return len(m.live) }
