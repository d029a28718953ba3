// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import (
	"bytes"
	"strings"
	"testing"
)

func TestConditionWake(t *testing.T) {
	var trace []string
	run(t, quiet(), func(k *Kernel) {
		l := NewLock(k)
		c := NewCondition(l)
		sleeper := k.NewThread(func() {
			l.Acquire()
			trace = append(trace, "sleeping")
			c.Sleep()
			if !l.IsHeldByCurrentThread() {
				t.Errorf("woken thread does not hold the lock")
			}
			trace = append(trace, "woke")
			l.Release()
		}).SetName("sleeper")
		waker := k.NewThread(func() {
			l.Acquire()
			trace = append(trace, "waking")
			if c.Len() != 1 {
				t.Errorf("Len = %d, want 1", c.Len())
			}
			c.Wake()
			trace = append(trace, "woken")
			l.Release()
		}).SetName("waker")
		sleeper.Fork()
		waker.Fork()
		sleeper.Join()
		waker.Join()
	})
	if have, want := strings.Join(trace, " "), "sleeping waking woken woke"; have != want {
		t.Errorf("trace = %q, want %q", have, want)
	}
}

func TestConditionWakeOne(t *testing.T) {
	// Wake releases exactly one sleeper, the oldest.
	var woke []string
	run(t, quiet(), func(k *Kernel) {
		l := NewLock(k)
		c := NewCondition(l)
		for _, name := range []string{"a", "b", "c"} {
			name := name
			k.NewThread(func() {
				l.Acquire()
				c.Sleep()
				woke = append(woke, name)
				l.Release()
			}).SetName(name).Fork()
		}
		k.Yield()
		l.Acquire()
		c.Wake()
		l.Release()
		k.Yield()
		if have, want := strings.Join(woke, " "), "a"; have != want {
			t.Errorf("after one Wake, woke = %q, want %q", have, want)
		}
		l.Acquire()
		if c.Len() != 2 {
			t.Errorf("Len = %d, want 2", c.Len())
		}
		c.WakeAll()
		if c.Len() != 0 {
			t.Errorf("Len after WakeAll = %d, want 0", c.Len())
		}
		l.Release()
		k.Yield()
	})
	if have, want := strings.Join(woke, " "), "a b c"; have != want {
		t.Errorf("woke = %q, want %q", have, want)
	}
}

func TestConditionWakeAllOrder(t *testing.T) {
	var woke []string
	run(t, quiet(), func(k *Kernel) {
		l := NewLock(k)
		c := NewCondition(l)
		var ts []*KThread
		for _, name := range []string{"x", "y", "z"} {
			name := name
			th := k.NewThread(func() {
				l.Acquire()
				c.Sleep()
				woke = append(woke, name)
				l.Release()
			}).SetName(name)
			th.Fork()
			ts = append(ts, th)
		}
		k.Yield()
		l.Acquire()
		c.WakeAll()
		l.Release()
		for _, th := range ts {
			th.Join()
		}
	})
	if have, want := strings.Join(woke, " "), "x y z"; have != want {
		t.Errorf("woke = %q, want %q", have, want)
	}
}

func TestConditionWakeEmpty(t *testing.T) {
	var buf bytes.Buffer
	cfg := quiet()
	cfg.Trace = &buf
	cfg.Debug = "c"
	run(t, cfg, func(k *Kernel) {
		l := NewLock(k)
		c := NewCondition(l)
		l.Acquire()
		c.Wake()
		c.WakeAll()
		l.Release()
		if c.Len() != 0 {
			t.Errorf("Len = %d, want 0", c.Len())
		}
	})
	if !strings.Contains(buf.String(), "wake with no waiters") {
		t.Errorf("trace does not report the empty wake:\n%s", buf.String())
	}
}
