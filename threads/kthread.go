// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import (
	"fmt"
	"runtime"

	"rsc.io/nachos/machine"
)

// Status is a thread's place in its lifecycle:
// New → Ready → Running → {Blocked → Ready → Running}* → Finished.
type Status int

const (
	StatusNew Status = iota
	StatusReady
	StatusRunning
	StatusBlocked
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusBlocked:
		return "Blocked"
	case StatusFinished:
		return "Finished"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// A KThread is a kernel thread: a target function run on its own
// execution context, scheduled cooperatively by its Kernel.
type KThread struct {
	k        *Kernel
	id       int
	name     string
	status   Status
	target   func()
	tcb      *machine.TCB
	priority int

	joinQueue ThreadQueue  // threads blocked in Join on this one; created on first join
	joined    bool         // someone has joined this thread
	deps      map[int]bool // ids of threads waiting, directly or not, for this one to finish
	finishing bool         // Finish called; deferred calls are unwinding
}

func (k *Kernel) newThread() *KThread {
	t := &KThread{
		k:        k,
		id:       len(k.threads),
		name:     "(unnamed thread)",
		priority: PriorityDefault,
	}
	k.threads = append(k.threads, t)
	return t
}

// NewThread allocates a thread that will run target once forked.
// Target may be nil and set later with SetTarget.
func (k *Kernel) NewThread(target func()) *KThread {
	t := k.newThread()
	t.target = target
	t.tcb = k.machine.NewTCB()
	return t
}

// SetTarget sets the function t runs. T must not have been forked.
func (t *KThread) SetTarget(target func()) *KThread {
	t.k.assert(t.status == StatusNew, "setTarget: thread "+t.String()+" is not new")
	t.target = target
	return t
}

// SetName sets the name used in debugging output.
func (t *KThread) SetName(name string) *KThread {
	t.name = name
	return t
}

func (t *KThread) Name() string    { return t.name }
func (t *KThread) ID() int         { return t.id }
func (t *KThread) Status() Status  { return t.status }
func (t *KThread) Kernel() *Kernel { return t.k }

func (t *KThread) String() string {
	return fmt.Sprintf("%s (#%d)", t.name, t.id)
}

// Compare orders threads by creation: it returns -1, 0 or +1 as t was
// created before, is, or was created after u.
func (t *KThread) Compare(u *KThread) int {
	switch {
	case t.id < u.id:
		return -1
	case t.id > u.id:
		return +1
	}
	return 0
}

// Fork makes t ready to run. The caller continues immediately; t runs
// whenever the scheduler picks it. Forking a thread twice, or forking a
// thread without a target, is a fatal error.
func (t *KThread) Fork() {
	k := t.k
	k.assert(t.status == StatusNew, "fork: thread "+t.String()+" is not new")
	k.assert(t.target != nil, "fork: thread "+t.String()+" has no target")
	k.debug(dbgThread, "Forking thread: %v", t)

	intStatus := k.intr().Disable()
	t.tcb.Start(t.runThread)
	t.Ready()
	k.intr().Restore(intStatus)
}

func (t *KThread) runThread() {
	defer t.k.exit(t)
	defer t.k.recoverFault(t)
	t.begin()
	t.target()
}

func (t *KThread) begin() {
	k := t.k
	k.debug(dbgThread, "Beginning thread: %v", t)
	k.assert(t == k.current, "begin: thread "+t.String()+" is not current")
	t.restoreState()
	k.intr().Enable()
}

// Finish ends the current thread. The thread's deferred calls run
// first, while it still holds the processor; then it wakes the
// longest-waiting joiner, if any, and gives up the processor for good.
// Returning from a thread's target has the same effect.
func (k *Kernel) Finish() {
	t := k.current
	k.assert(!t.finishing, "finish: thread "+t.String()+" already finishing")
	t.finishing = true
	runtime.Goexit()
}

// exit retires t once its target has returned or its deferred calls
// have unwound. It must be deferred by the thread's outermost function.
// The context is destroyed by the next thread to run, since a context
// cannot free itself while running; exit returns only after that, in a
// goroutine that no longer holds the processor.
func (k *Kernel) exit(t *KThread) {
	defer k.recoverFault(t)
	k.debug(dbgThread, "Finishing thread: %v", t)
	k.intr().Disable()

	if t.joined {
		if joiner := t.joinQueue.NextThread(); joiner != nil {
			joiner.Ready()
		}
	}

	k.assert(k.toBeDestroyed == nil, "finish: previous thread not yet destroyed")
	k.toBeDestroyed = t
	t.status = StatusFinished

	next := k.readyQueue.NextThread()
	if next == nil {
		next = k.idle
	}
	k.handoff(next)
	next.tcb.ExitFrom(t.tcb)
}

// Yield gives up the processor if another thread is ready.
// The current thread goes to the back of the ready queue.
func (k *Kernel) Yield() {
	t := k.current
	k.debug(dbgThread, "Yielding thread: %v", t)
	k.assert(t.status == StatusRunning, "yield: thread "+t.String()+" is not running")

	intStatus := k.intr().Disable()
	t.Ready()
	k.runNextThread()
	k.intr().Restore(intStatus)
}

// Sleep gives up the processor because the current thread has blocked.
// Interrupts must be disabled, and whoever should wake the thread must
// already know about it: a thread that sleeps with no wake-up arranged
// sleeps forever.
func (k *Kernel) Sleep() {
	t := k.current
	k.debug(dbgThread, "Sleeping thread: %v", t)
	k.assert(k.intr().Disabled(), "sleep: interrupts enabled")

	t.status = StatusBlocked
	k.runNextThread()
}

// Ready moves t to the ready queue. Interrupts must be disabled.
// The idle thread is never queued; it runs only when nothing else can.
func (t *KThread) Ready() {
	k := t.k
	k.debug(dbgThread, "Ready thread: %v", t)
	k.assert(k.intr().Disabled(), "ready: interrupts enabled")
	k.assert(t.status != StatusReady, "ready: thread "+t.String()+" already ready")

	t.status = StatusReady
	if t != k.idle {
		k.readyQueue.WaitForAccess(t)
	}
}

// Join blocks the current thread until t finishes. It returns at once if
// t has finished, if t is the current thread, or if t is itself waiting,
// directly or through other joins, for the current thread to finish.
// The last check only sees chains already formed when Join is called;
// cycles that close later still deadlock.
//
// Join must be called at most once per (caller, target) pair.
func (t *KThread) Join() {
	k := t.k
	cur := k.current
	k.debug(dbgThread, "Joining to thread: %v", t)

	intStatus := k.intr().Disable()
	switch {
	case t == cur:
		k.debug(dbgThread, "Join: %v joined itself", t)
	case t.status == StatusFinished:
	case cur.deps[t.id]:
		k.debug(dbgThread, "Join: %v already waits for %v", t, cur)
	default:
		if t.joinQueue == nil {
			t.joinQueue = k.sched.NewThreadQueue(false)
			t.joinQueue.Acquire(t)
		}
		if t.deps == nil {
			t.deps = make(map[int]bool)
		}
		t.deps[cur.id] = true
		for id := range cur.deps {
			t.deps[id] = true
		}
		t.joined = true
		t.joinQueue.WaitForAccess(cur)
		k.Sleep()
	}
	k.intr().Restore(intStatus)
}

func (k *Kernel) runNextThread() {
	next := k.readyQueue.NextThread()
	if next == nil {
		next = k.idle
	}
	next.run()
}

// run switches the processor to t. When the calling thread is switched
// back in, run returns in that thread.
func (t *KThread) run() {
	k := t.k
	prev := k.handoff(t)
	t.tcb.SwitchFrom(prev.tcb)
	prev.restoreState()
}

// handoff makes t the current thread and returns the previous one.
func (k *Kernel) handoff(t *KThread) *KThread {
	k.assert(k.intr().Disabled(), "run: interrupts enabled")

	prev := k.current
	prev.saveState()
	if prev != t {
		k.debug(dbgThread, "Switching from: %v to: %v", prev, t)
		if k.cfg.OnSwitch != nil {
			k.cfg.OnSwitch(prev, t)
		}
	}
	k.current = t
	return prev
}

func (t *KThread) saveState() {
	k := t.k
	k.assert(k.intr().Disabled(), "saveState: interrupts enabled")
	k.assert(t == k.current, "saveState: thread "+t.String()+" is not current")
}

// restoreState marks t running and reclaims the context of the thread
// that finished just before it.
func (t *KThread) restoreState() {
	k := t.k
	k.debug(dbgThread, "Running thread: %v", t)
	k.assert(k.intr().Disabled(), "restoreState: interrupts enabled")
	k.assert(t == k.current, "restoreState: thread "+t.String()+" is not current")

	t.status = StatusRunning
	if d := k.toBeDestroyed; d != nil {
		k.debug(dbgThread, "Destroying thread: %v", d)
		d.tcb.Destroy()
		d.tcb = nil
		k.toBeDestroyed = nil
	}
}
