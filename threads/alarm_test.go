// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import (
	"math/rand"
	"strings"
	"testing"

	"rsc.io/nachos/machine"
)

func TestWaitUntil(t *testing.T) {
	cfg := Config{Machine: machine.Config{TimerTicks: 500}}
	for _, d := range []machine.Ticks{1, 10, 499, 500, 1000, 2345} {
		var waited machine.Ticks
		run(t, cfg, func(k *Kernel) {
			th := k.NewThread(func() {
				start := k.now()
				k.Alarm().WaitUntil(d)
				waited = k.now() - start
			})
			th.Fork()
			th.Join()
		})
		// Woken by the first timer interrupt at or after the deadline,
		// and timer interrupts come every 500 ticks or so.
		if waited < d || waited > d+600 {
			t.Errorf("WaitUntil(%d) waited %d ticks", d, waited)
		}
	}
}

func TestWaitUntilNonPositive(t *testing.T) {
	switches := 0
	cfg := Config{Machine: machine.Config{TimerTicks: 500}}
	cfg.OnSwitch = func(from, to *KThread) { switches++ }
	run(t, cfg, func(k *Kernel) {
		start := k.now()
		k.Alarm().WaitUntil(0)
		k.Alarm().WaitUntil(-5)
		if switches != 0 || k.Alarm().Len() != 0 {
			t.Errorf("non-positive wait slept: %d switches, %d sleepers", switches, k.Alarm().Len())
		}
		if k.now() != start {
			t.Errorf("non-positive wait took %d ticks", k.now()-start)
		}
	})
}

func TestWaitUntilOrder(t *testing.T) {
	var woke []string
	run(t, Config{Machine: machine.Config{TimerTicks: 500}}, func(k *Kernel) {
		var ts []*KThread
		for _, w := range []struct {
			name string
			d    machine.Ticks
		}{
			{"c", 3000}, {"a", 1000}, {"b", 2000},
		} {
			name, d := w.name, w.d
			th := k.NewThread(func() {
				k.Alarm().WaitUntil(d)
				woke = append(woke, name)
			}).SetName(name)
			th.Fork()
			ts = append(ts, th)
		}
		if k.Alarm().Len() != 0 {
			t.Errorf("sleepers before yield = %d", k.Alarm().Len())
		}
		k.Yield()
		if n := k.Alarm().Len(); n != 3 {
			t.Errorf("sleepers after yield = %d, want 3", n)
		}
		for _, th := range ts {
			th.Join()
		}
	})
	if have, want := strings.Join(woke, " "), "a b c"; have != want {
		t.Errorf("wake order = %q, want %q", have, want)
	}
}

func TestWaitUntilNeverEarly(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		cfg := Config{Machine: machine.Config{TimerTicks: 200, Randomize: true, Seed: seed}}
		r := rand.New(rand.NewSource(seed))
		run(t, cfg, func(k *Kernel) {
			var ts []*KThread
			for i := 0; i < 10; i++ {
				d := machine.Ticks(r.Intn(3000))
				th := k.NewThread(func() {
					for j := 0; j < 3; j++ {
						start := k.now()
						k.Alarm().WaitUntil(d)
						if waited := k.now() - start; waited < d {
							t.Errorf("seed %d: WaitUntil(%d) returned after %d ticks", seed, d, waited)
						}
					}
				})
				th.Fork()
				ts = append(ts, th)
			}
			for _, th := range ts {
				th.Join()
			}
			if n := k.Alarm().Len(); n != 0 {
				t.Errorf("seed %d: %d sleepers left", seed, n)
			}
		})
	}
}
