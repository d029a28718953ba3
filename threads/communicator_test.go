// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import (
	"fmt"
	"slices"
	"testing"

	"rsc.io/nachos/machine"
)

func TestCommunicatorOne(t *testing.T) {
	heard := -1
	run(t, quiet(), func(k *Kernel) {
		c := NewCommunicator(k)
		k.NewThread(func() { c.Speak(34) }).SetName("speaker").Fork()
		l := k.NewThread(func() { heard = c.Listen() }).SetName("listener")
		l.Fork()
		l.Join()
	})
	if heard != 34 {
		t.Errorf("heard %d, want 34", heard)
	}
}

func TestCommunicatorListenFirst(t *testing.T) {
	heard := -1
	run(t, quiet(), func(k *Kernel) {
		c := NewCommunicator(k)
		l := k.NewThread(func() { heard = c.Listen() }).SetName("listener")
		l.Fork()
		k.Yield()
		if s, n := c.Waiting(); s != 0 || n != 1 {
			t.Errorf("Waiting = %d speakers, %d listeners, want 0, 1", s, n)
		}
		c.Speak(7)
		l.Join()
		if s, n := c.Waiting(); s != 0 || n != 0 {
			t.Errorf("Waiting after = %d speakers, %d listeners, want 0, 0", s, n)
		}
	})
	if heard != 7 {
		t.Errorf("heard %d, want 7", heard)
	}
}

func TestCommunicatorSeparate(t *testing.T) {
	var heardA, heardB int
	run(t, quiet(), func(k *Kernel) {
		a, b := NewCommunicator(k), NewCommunicator(k)
		k.NewThread(func() { a.Speak(19) }).Fork()
		k.NewThread(func() { b.Speak(29) }).Fork()
		la := k.NewThread(func() { heardA = a.Listen() })
		lb := k.NewThread(func() { heardB = b.Listen() })
		la.Fork()
		lb.Fork()
		la.Join()
		lb.Join()
	})
	if heardA != 19 || heardB != 29 {
		t.Errorf("heard %d and %d, want 19 and 29", heardA, heardB)
	}
}

// exchange runs n speakers and n listeners on one communicator and
// returns the words heard, sorted.
func exchange(t *testing.T, cfg Config, words []int, listenFirst bool) []int {
	var heard []int
	run(t, cfg, func(k *Kernel) {
		c := NewCommunicator(k)
		var ts []*KThread
		speak := func() {
			for _, w := range words {
				w := w
				ts = append(ts, k.NewThread(func() { c.Speak(w) }).SetName(fmt.Sprint("speaker ", w)))
			}
		}
		listen := func() {
			for range words {
				ts = append(ts, k.NewThread(func() { heard = append(heard, c.Listen()) }).SetName("listener"))
			}
		}
		if listenFirst {
			listen()
			speak()
		} else {
			speak()
			listen()
		}
		for _, th := range ts {
			th.Fork()
		}
		for _, th := range ts {
			th.Join()
		}
		if s, n := c.Waiting(); s != 0 || n != 0 {
			t.Errorf("Waiting = %d speakers, %d listeners after exchange", s, n)
		}
	})
	slices.Sort(heard)
	return heard
}

func TestCommunicatorThree(t *testing.T) {
	have := exchange(t, quiet(), []int{98, 4, 23}, false)
	if want := []int{4, 23, 98}; !slices.Equal(have, want) {
		t.Errorf("heard %v, want %v", have, want)
	}
}

func TestCommunicatorMany(t *testing.T) {
	var words []int
	for i := 0; i < 20; i++ {
		words = append(words, i*7%13+i)
	}
	want := slices.Clone(words)
	slices.Sort(want)

	for seed := int64(1); seed <= 4; seed++ {
		for _, sched := range []Scheduler{NewRoundRobinScheduler(), NewPriorityScheduler()} {
			for _, listenFirst := range []bool{false, true} {
				cfg := Config{
					Machine:   machine.Config{TimerTicks: 60, Randomize: true, Seed: seed},
					Scheduler: sched,
				}
				have := exchange(t, cfg, words, listenFirst)
				if !slices.Equal(have, want) {
					t.Errorf("seed %d, %T, listenFirst=%v: heard %v, want %v", seed, sched, listenFirst, have, want)
				}
			}
		}
	}
}
