// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

import "sort"

// An Interrupt is the machine's interrupt controller: one enable bit and
// a time-ordered list of pending interrupts.
//
// The clock advances by KernelTick every time interrupts go from
// disabled to enabled, and pending interrupts that have come due are
// delivered at that moment, with interrupts disabled. A handler may
// switch contexts; delivery resumes when the interrupted context runs
// again.
type Interrupt struct {
	m       *Machine
	enabled bool
	pending []*pending
	seq     uint64
}

type pending struct {
	when    Ticks
	seq     uint64
	kind    string
	handler func()
}

// Enable enables interrupts.
func (in *Interrupt) Enable() { in.SetStatus(true) }

// Disable disables interrupts and returns the previous status,
// to be handed back to Restore.
func (in *Interrupt) Disable() bool { return in.SetStatus(false) }

// Restore sets the status previously returned by Disable.
func (in *Interrupt) Restore(status bool) { in.SetStatus(status) }

// SetStatus sets the enable bit and returns its old value.
// Going from disabled to enabled advances the clock.
func (in *Interrupt) SetStatus(status bool) bool {
	old := in.enabled
	in.enabled = status
	if !old && status {
		in.tick()
	}
	return old
}

func (in *Interrupt) Enabled() bool  { return in.enabled }
func (in *Interrupt) Disabled() bool { return !in.enabled }

func (in *Interrupt) tick() {
	in.m.advance(in.m.cfg.KernelTick, false)
	in.enabled = false
	in.checkIfDue()
	in.enabled = true
}

func (in *Interrupt) checkIfDue() {
	if in.enabled {
		panic("interrupt: delivery with interrupts enabled")
	}
	for len(in.pending) > 0 && in.pending[0].when <= in.m.stats.TotalTicks {
		p := in.pending[0]
		in.pending = in.pending[1:]
		p.handler()
	}
}

// Schedule arranges for handler to run delay ticks from now.
// Kind names the source, for PendingExcept.
func (in *Interrupt) Schedule(delay Ticks, kind string, handler func()) {
	if delay <= 0 {
		panic("interrupt: non-positive delay")
	}
	in.seq++
	p := &pending{when: in.m.stats.TotalTicks + delay, seq: in.seq, kind: kind, handler: handler}
	i := sort.Search(len(in.pending), func(i int) bool {
		q := in.pending[i]
		return q.when > p.when || q.when == p.when && q.seq > p.seq
	})
	in.pending = append(in.pending, nil)
	copy(in.pending[i+1:], in.pending[i:])
	in.pending[i] = p
}

// Idle advances the clock to the next pending interrupt and delivers
// everything then due. It must be called with interrupts disabled.
// Idle reports false, leaving the clock alone, if nothing is pending.
func (in *Interrupt) Idle() bool {
	if in.enabled {
		panic("interrupt: idle with interrupts enabled")
	}
	if len(in.pending) == 0 {
		return false
	}
	if next := in.pending[0].when; next > in.m.stats.TotalTicks {
		in.m.advance(next-in.m.stats.TotalTicks, true)
	}
	in.checkIfDue()
	return true
}

// PendingExcept returns the number of pending interrupts whose kind
// is not kind.
func (in *Interrupt) PendingExcept(kind string) int {
	n := 0
	for _, p := range in.pending {
		if p.kind != kind {
			n++
		}
	}
	return n
}
