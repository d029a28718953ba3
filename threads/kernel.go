// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package threads implements cooperative kernel threads on a simulated
// uniprocessor, and the synchronization built on them: locks,
// semaphores, condition variables, a timer-driven alarm and a
// rendezvous communicator.
//
// All scheduler state belongs to a Kernel. Thread targets call back into
// the kernel that runs them, usually by capturing it in a closure:
//
//	k := threads.NewKernel(threads.Config{})
//	err := k.Run(func() {
//		t := k.NewThread(func() { fmt.Println("hello") })
//		t.Fork()
//		t.Join()
//	})
//
// Exactly one thread runs at a time and it gives up the processor only
// at explicit points: Yield, Sleep, blocking synchronization, and the
// yield forced by every timer interrupt.
package threads

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"rsc.io/nachos/machine"
)

var (
	// ErrDeadlock is the halt error when every thread is blocked and
	// nothing pending can wake one.
	ErrDeadlock = errors.New("deadlock")

	// ErrThreadPanic is the halt error when a thread target panics.
	ErrThreadPanic = errors.New("thread panicked")
)

// An AssertionError reports a violated precondition: a bug in the code
// calling the kernel. The machine halts and Run returns it.
type AssertionError struct {
	Thread string // thread running when the check failed
	Msg    string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed in %s: %s", e.Thread, e.Msg)
}

// Debug flag letters for Config.Debug.
const (
	dbgThread    = 't'
	dbgAlarm     = 'a'
	dbgCondition = 'c'
	dbgSync      = 's'
	dbgQueue     = 'q'
)

// Config configures a Kernel.
type Config struct {
	Machine   machine.Config
	Scheduler Scheduler // nil means a RoundRobinScheduler

	// Trace receives debug lines for the flag letters in Debug:
	// t threads, a alarm, c condition variables, s locks and semaphores,
	// q queues; + enables all of them.
	Trace io.Writer
	Debug string

	// OnSwitch, if set, is called with interrupts disabled each time the
	// dispatcher hands the processor to a different thread.
	OnSwitch func(from, to *KThread)
}

// A Kernel is the scheduler of one simulated machine.
type Kernel struct {
	cfg     Config
	machine *machine.Machine
	sched   Scheduler
	log     *log.Logger

	readyQueue    ThreadQueue
	current       *KThread
	main          *KThread
	idle          *KThread
	toBeDestroyed *KThread
	alarm         *Alarm

	threads []*KThread // every thread, indexed by id
	booted  bool
}

// NewKernel returns a kernel whose main thread is current but not yet
// running. The idle thread is created and forked right away.
func NewKernel(cfg Config) *Kernel {
	if cfg.Machine == (machine.Config{}) {
		cfg.Machine = machine.DefaultConfig()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewRoundRobinScheduler()
	}
	k := &Kernel{
		cfg:     cfg,
		machine: machine.New(cfg.Machine),
		sched:   cfg.Scheduler,
		log:     log.New(io.Discard, "", 0),
	}
	if cfg.Trace != nil && cfg.Debug != "" {
		k.log.SetOutput(cfg.Trace)
	}

	main := k.newThread()
	main.name = "main"
	main.tcb = k.machine.NewTCB()
	k.readyQueue = k.sched.NewThreadQueue(false)
	k.readyQueue.Acquire(main)
	k.current = main
	k.main = main
	main.status = StatusRunning

	k.createIdleThread()
	k.alarm = newAlarm(k)
	return k
}

// Run runs main in the main thread and returns when the machine halts:
// with nil once main returns, or with the error that stopped it
// (an *AssertionError, ErrDeadlock, ErrThreadPanic or machine.ErrTimeLimit,
// possibly wrapped).
func (k *Kernel) Run(main func()) error {
	if k.booted {
		return errors.New("threads: kernel already run")
	}
	k.booted = true
	t := k.main
	t.target = main
	t.tcb.Start(func() {
		defer func() {
			if t.finishing {
				k.exit(t)
			}
		}()
		defer k.recoverFault(t)
		t.begin()
		t.target()
		k.debug(dbgThread, "Main thread returned, halting")
		k.machine.Interrupt().Disable()
		t.status = StatusFinished
		k.machine.Halt(nil)
	})
	return k.machine.Boot(t.tcb)
}

// Machine returns the simulated machine the kernel runs on.
func (k *Kernel) Machine() *machine.Machine { return k.machine }

// Alarm returns the kernel's alarm, the handler of its timer interrupts.
func (k *Kernel) Alarm() *Alarm { return k.alarm }

// Scheduler returns the policy that orders the kernel's queues.
func (k *Kernel) Scheduler() Scheduler { return k.sched }

// Stats returns the machine counters.
func (k *Kernel) Stats() machine.Stats { return k.machine.Stats() }

// CurrentThread returns the running thread.
func (k *Kernel) CurrentThread() *KThread {
	k.assert(k.current != nil, "no current thread")
	return k.current
}

// Threads returns every thread the kernel has created, in id order.
func (k *Kernel) Threads() []*KThread {
	return append([]*KThread(nil), k.threads...)
}

func (k *Kernel) intr() *machine.Interrupt { return k.machine.Interrupt() }

func (k *Kernel) now() machine.Ticks { return k.machine.Timer().Time() }

// assert halts the offending thread's progress when cond is false.
func (k *Kernel) assert(cond bool, msg string) {
	if !cond {
		name := "(no thread)"
		if k.current != nil {
			name = k.current.String()
		}
		panic(&AssertionError{Thread: name, Msg: msg})
	}
}

func (k *Kernel) debugging(flag byte) bool {
	return strings.IndexByte(k.cfg.Debug, flag) >= 0 || strings.IndexByte(k.cfg.Debug, '+') >= 0
}

func (k *Kernel) debug(flag byte, format string, args ...any) {
	if k.cfg.Trace == nil || !k.debugging(flag) {
		return
	}
	k.log.Printf("%6d %c "+format, append([]any{k.now(), flag}, args...)...)
}

// recoverFault turns a panic in a thread into a machine halt.
// It must be deferred directly by the thread's outermost function.
func (k *Kernel) recoverFault(t *KThread) {
	r := recover()
	if r == nil {
		return
	}
	var err error
	switch r := r.(type) {
	case *AssertionError:
		err = r
	case error:
		err = fmt.Errorf("%w: %v: %w", ErrThreadPanic, t, r)
	default:
		err = fmt.Errorf("%w: %v: %v", ErrThreadPanic, t, r)
	}
	k.debug(dbgThread, "Halting: %v", err)
	k.machine.Halt(err)
}

func (k *Kernel) createIdleThread() {
	k.assert(k.idle == nil, "idle thread created twice")
	k.idle = k.NewThread(k.idleLoop).SetName("idle")
	k.idle.Fork()
}

// idleLoop runs when no other thread is ready. It fast-forwards the clock
// to the next interrupt and yields; if nothing could ever become ready
// again it halts the machine.
func (k *Kernel) idleLoop() {
	for {
		intStatus := k.intr().Disable()
		if k.readyQueue.Len() == 0 {
			if k.alarm.Len() == 0 && k.intr().PendingExcept(machine.TimerInterrupt) == 0 {
				k.machine.Halt(k.stuck())
			}
			k.intr().Idle()
		}
		k.intr().Restore(intStatus)
		k.Yield()
	}
}

// stuck returns the halt error for a machine with nothing left to run:
// nil if every thread has finished, ErrDeadlock otherwise.
func (k *Kernel) stuck() error {
	var blocked []string
	for _, t := range k.threads {
		if t.status == StatusBlocked {
			blocked = append(blocked, t.String())
		}
	}
	if len(blocked) == 0 {
		k.debug(dbgThread, "All threads finished, halting")
		return nil
	}
	k.debug(dbgThread, "Deadlock: %s", strings.Join(blocked, ", "))
	return fmt.Errorf("%w: blocked: %s", ErrDeadlock, strings.Join(blocked, ", "))
}
