// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

// TimerInterrupt is the Schedule kind used by the timer.
const TimerInterrupt = "timer"

// A Timer raises an interrupt roughly every Config.TimerTicks ticks,
// starting when the machine boots.
type Timer struct {
	m       *Machine
	handler func()
}

// SetInterruptHandler sets the function run on every timer interrupt.
// It runs with interrupts disabled.
func (t *Timer) SetInterruptHandler(handler func()) { t.handler = handler }

// Time returns the current clock.
func (t *Timer) Time() Ticks { return t.m.stats.TotalTicks }

func (t *Timer) schedule() {
	delay := t.m.cfg.TimerTicks
	if t.m.cfg.Randomize && delay >= 20 {
		delay += Ticks(t.m.rand.Int63n(int64(delay/10))) - delay/20
	}
	t.m.intr.Schedule(delay, TimerInterrupt, t.interrupt)
}

func (t *Timer) interrupt() {
	t.schedule()
	t.m.stats.TimerInterrupts++
	if t.handler != nil {
		t.handler()
	}
}
