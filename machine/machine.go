// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package machine simulates the little hardware a cooperative kernel
// needs: an interrupt enable bit, a clock that advances as the kernel
// runs, a periodic timer, and execution contexts (TCBs) that can be
// switched.
//
// Every TCB is backed by a goroutine, but only one of them holds the
// simulated processor at any time. The processor is handed over with an
// unbuffered channel send followed immediately by a receive on the
// sender's own channel, so machine and kernel state never need a mutex:
// it is only touched by the goroutine holding the processor.
package machine

import (
	"errors"
	"math/rand"
)

// Ticks counts simulated clock ticks since the machine was created.
type Ticks int64

/*
 * tunable parameters
 */
const (
	KernelTick = 10  /* ticks charged each time interrupts are re-enabled */
	TimerTicks = 500 /* mean ticks between timer interrupts */
)

// ErrTimeLimit is the halt error when a machine runs past Config.MaxTicks.
var ErrTimeLimit = errors.New("machine: tick limit exceeded")

var errReturned = errors.New("machine: execution context returned")

// Config describes the simulated hardware.
type Config struct {
	KernelTick Ticks // clock advance each time interrupts are re-enabled
	TimerTicks Ticks // mean interval between timer interrupts
	Randomize  bool  // jitter the timer interval by up to ±5%
	Seed       int64 // seed for the jitter
	MaxTicks   Ticks // halt with ErrTimeLimit after this many ticks; 0 means never
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		KernelTick: KernelTick,
		TimerTicks: TimerTicks,
		Randomize:  true,
	}
}

// A Machine is one simulated uniprocessor.
type Machine struct {
	cfg   Config
	intr  *Interrupt
	timer *Timer
	stats Stats
	rand  *rand.Rand

	cur    *TCB          // context holding the processor
	live   map[*TCB]bool // started, not yet destroyed
	booted bool
	halted bool
	done   chan error
}

// New returns a machine with interrupts disabled and the clock at zero.
func New(cfg Config) *Machine {
	if cfg.KernelTick <= 0 {
		cfg.KernelTick = KernelTick
	}
	if cfg.TimerTicks <= 0 {
		cfg.TimerTicks = TimerTicks
	}
	m := &Machine{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
		live: make(map[*TCB]bool),
		done: make(chan error, 1),
	}
	m.intr = &Interrupt{m: m}
	m.timer = &Timer{m: m}
	return m
}

func (m *Machine) Config() Config        { return m.cfg }
func (m *Machine) Interrupt() *Interrupt { return m.intr }
func (m *Machine) Timer() *Timer         { return m.timer }

// Stats returns a copy of the machine's counters.
// After Boot returns it reflects the whole run.
func (m *Machine) Stats() Stats { return m.stats }

// Boot hands the processor to first, which must have been started,
// and blocks until the machine halts. It returns the halt error.
func (m *Machine) Boot(first *TCB) error {
	if m.booted {
		panic("machine: booted twice")
	}
	if !first.started || first.destroyed {
		panic("machine: boot context not started")
	}
	m.booted = true
	m.timer.schedule()
	m.cur = first
	first.resume <- struct{}{}
	return <-m.done
}

// Halt stops the machine: Boot returns err. Halt must be called by the
// goroutine holding the processor and never returns. Contexts that are
// still blocked stay parked and are never resumed; unwinding them would
// run their deferred calls against a halted kernel.
func (m *Machine) Halt(err error) {
	if m.halted {
		panic("machine: halted twice")
	}
	m.halted = true
	m.live = nil
	m.done <- err
	select {}
}

// Halted reports whether Halt has been called.
func (m *Machine) Halted() bool { return m.halted }

// advance moves the clock forward, halting if the tick limit is passed.
func (m *Machine) advance(n Ticks, idle bool) {
	m.stats.TotalTicks += n
	if idle {
		m.stats.IdleTicks += n
	} else {
		m.stats.KernelTicks += n
	}
	if m.cfg.MaxTicks > 0 && m.stats.TotalTicks > m.cfg.MaxTicks {
		m.Halt(ErrTimeLimit)
	}
}
