// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

import (
	"fmt"
	"io"
	"slices"

	"rsc.io/nachos/machine"
)

// SelfTest exercises threads, joins, semaphores, condition variables,
// the alarm, communicators and the water reaction, printing a line for
// each step to w. It must run in a thread of k, usually the main thread:
//
//	k.Run(func() { threads.SelfTest(k, os.Stdout) })
func SelfTest(k *Kernel, w io.Writer) {
	selfTestPing(k, w)
	selfTestJoin(k, w)
	selfTestSemaphore(k, w)
	selfTestCondition(k, w)
	selfTestAlarm(k, w)
	selfTestCommunicator(k, w)
	selfTestWater(k, w)
}

func selfTestPing(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- ping\n")
	loop := func(which int) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, "*** thread %d looped %d times\n", which, i)
			k.Yield()
		}
	}
	t := k.NewThread(func() { loop(1) }).SetName("forked")
	t.Fork()
	loop(0)
	t.Join()
}

func selfTestJoin(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- join\n")

	var self *KThread
	self = k.NewThread(func() {
		self.Join()
		fmt.Fprintf(w, "self join: returned\n")
	}).SetName("self joiner")
	self.Fork()
	self.Join()

	done := k.NewThread(func() {
		fmt.Fprintf(w, "finished join: target ran\n")
	}).SetName("target")
	joiner := k.NewThread(func() {
		fmt.Fprintf(w, "finished join: joining %v\n", done.Status())
		done.Join()
	}).SetName("joiner")
	done.Fork()
	joiner.Fork()
	joiner.Join()
	fmt.Fprintf(w, "finished join: ok\n")

	t1 := k.NewThread(nil).SetName("contrary 1")
	t2 := k.NewThread(nil).SetName("contrary 2")
	t1.SetTarget(func() {
		t2.Fork()
		t2.Join()
		fmt.Fprintf(w, "contrary join: %v done\n", t1.Name())
	})
	t2.SetTarget(func() {
		t1.Join()
		fmt.Fprintf(w, "contrary join: %v done\n", t2.Name())
	})
	t1.Fork()
	t1.Join()
	fmt.Fprintf(w, "contrary join: ok\n")

	for i := 1; i <= 5; i++ {
		target := k.NewThread(nil).SetName(fmt.Sprintf("join target %d", i))
		target.SetTarget(func() {
			fmt.Fprintf(w, "multi join: %v running\n", target.Name())
		})
		outer := k.NewThread(func() {
			target.Fork()
			target.Join()
		}).SetName(fmt.Sprintf("join outer %d", i))
		outer.Fork()
		outer.Join()
	}
	fmt.Fprintf(w, "multi join: ok\n")
}

func selfTestSemaphore(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- semaphore\n")
	ping := NewSemaphore(k, 0)
	pong := NewSemaphore(k, 0)
	t := k.NewThread(func() {
		for i := 0; i < 10; i++ {
			ping.P()
			pong.V()
		}
	}).SetName("ping")
	t.Fork()
	for i := 0; i < 10; i++ {
		ping.V()
		pong.P()
	}
	t.Join()
	fmt.Fprintf(w, "semaphore: 10 round trips\n")
}

func selfTestCondition(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- condition\n")

	// One sleeper, one waker.
	lock := NewLock(k)
	cond := NewCondition(lock)
	woken := false
	sleeper := k.NewThread(func() {
		lock.Acquire()
		fmt.Fprintf(w, "condition: putting thread to sleep\n")
		for !woken {
			cond.Sleep()
		}
		fmt.Fprintf(w, "condition: thread woke up\n")
		lock.Release()
	}).SetName("sleeper")
	waker := k.NewThread(func() {
		lock.Acquire()
		fmt.Fprintf(w, "condition: waking the sleeping thread\n")
		woken = true
		cond.Wake()
		lock.Release()
	}).SetName("waker")
	sleeper.Fork()
	waker.Fork()
	waker.Join()
	sleeper.Join()

	// Three sleepers, one WakeAll.
	released := false
	var sleepers []*KThread
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("sleeper %d", i)
		t := k.NewThread(func() {
			lock.Acquire()
			for !released {
				cond.Sleep()
			}
			fmt.Fprintf(w, "condition: %s woke up\n", name)
			lock.Release()
		}).SetName(name)
		t.Fork()
		sleepers = append(sleepers, t)
	}
	all := k.NewThread(func() {
		lock.Acquire()
		fmt.Fprintf(w, "condition: wakeAll\n")
		released = true
		cond.WakeAll()
		lock.Release()
	}).SetName("waker")
	all.Fork()
	all.Join()
	for _, t := range sleepers {
		t.Join()
	}

	// Waking with nobody asleep does nothing.
	lock.Acquire()
	cond.Wake()
	cond.WakeAll()
	lock.Release()
	fmt.Fprintf(w, "condition: empty wake ok\n")
}

func selfTestAlarm(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- alarm\n")
	for _, d := range []machine.Ticks{500, 1000, 10, 0} {
		t := k.NewThread(func() {
			start := k.now()
			k.Alarm().WaitUntil(d)
			fmt.Fprintf(w, "alarm: asked for %d, waited %d\n", d, k.now()-start)
		}).SetName(fmt.Sprintf("alarm %d", d))
		t.Fork()
		t.Join()
	}
}

func selfTestCommunicator(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- communicator\n")

	speak := func(c *Communicator, word int) *KThread {
		t := k.NewThread(func() {
			c.Speak(word)
			fmt.Fprintf(w, "communicator: speaker spoke %d\n", word)
		}).SetName(fmt.Sprintf("speaker %d", word))
		t.Fork()
		return t
	}
	var heard []int
	listen := func(c *Communicator) *KThread {
		t := k.NewThread(func() {
			word := c.Listen()
			heard = append(heard, word)
			fmt.Fprintf(w, "communicator: listener heard %d\n", word)
		}).SetName("listener")
		t.Fork()
		return t
	}

	c := NewCommunicator(k)
	speak(c, 34)
	listen(c).Join()

	a, b := NewCommunicator(k), NewCommunicator(k)
	speak(a, 19)
	speak(b, 29)
	la, lb := listen(a), listen(b)
	la.Join()
	lb.Join()

	heard = nil
	c = NewCommunicator(k)
	for _, word := range []int{98, 4, 23} {
		speak(c, word)
	}
	for i := 0; i < 3; i++ {
		listen(c).Join()
	}
	slices.Sort(heard)
	fmt.Fprintf(w, "communicator: three speakers heard %v\n", heard)
}

func selfTestWater(k *Kernel, w io.Writer) {
	fmt.Fprintf(w, "--- water\n")
	water := NewWater(k)
	water.OnBond = func() { fmt.Fprintf(w, "water: water was made\n") }
	var atoms []*KThread
	for _, a := range []string{"H", "H", "O", "O", "H", "H"} {
		ready := water.HReady
		if a == "O" {
			ready = water.OReady
		}
		t := k.NewThread(ready).SetName(a)
		t.Fork()
		atoms = append(atoms, t)
	}
	for _, t := range atoms {
		t.Join()
	}
	fmt.Fprintf(w, "water: %d molecules\n", water.Molecules())
}
