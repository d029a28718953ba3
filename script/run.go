// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script

import (
	"fmt"
	"io"
	"strings"

	"rsc.io/nachos/machine"
	"rsc.io/nachos/threads"
)

// Config returns cfg with the scenario's settings applied.
func (s *Scenario) Config(cfg threads.Config) threads.Config {
	if cfg.Machine == (machine.Config{}) {
		cfg.Machine = machine.DefaultConfig()
	}
	st := s.Settings
	switch st.Scheduler {
	case "fifo":
		cfg.Scheduler = threads.NewRoundRobinScheduler()
	case "priority":
		cfg.Scheduler = threads.NewPriorityScheduler()
	}
	if st.SeedSet {
		cfg.Machine.Seed = st.Seed
	}
	if st.TimerTicks != 0 {
		cfg.Machine.TimerTicks = st.TimerTicks
	}
	if st.MaxTicks != 0 {
		cfg.Machine.MaxTicks = st.MaxTicks
	}
	return cfg
}

// Run runs the scenario on a new kernel configured by cfg and the
// scenario's settings, writing the threads' output to w. It returns the
// machine statistics and the error the machine halted with.
func (s *Scenario) Run(cfg threads.Config, w io.Writer) (machine.Stats, error) {
	k := threads.NewKernel(s.Config(cfg))
	r := &runner{
		k:       k,
		w:       w,
		threads: make(map[string]*threads.KThread),
		locks:   make(map[string]*threads.Lock),
		conds:   make(map[string]*threads.Condition),
		sems:    make(map[string]*threads.Semaphore),
		comms:   make(map[string]*threads.Communicator),
		waters:  make(map[string]*threads.Water),
	}
	for _, o := range s.Objects {
		switch o.Kind {
		case "lock":
			r.locks[o.Name] = threads.NewLock(k)
		case "semaphore":
			r.sems[o.Name] = threads.NewSemaphore(k, o.N)
		case "communicator":
			r.comms[o.Name] = threads.NewCommunicator(k)
		case "water":
			r.waters[o.Name] = threads.NewWater(k)
		}
	}
	for _, o := range s.Objects {
		if o.Kind == "cond" {
			r.conds[o.Name] = threads.NewCondition(r.locks[o.Lock])
		}
	}

	var main *Thread
	for _, t := range s.Threads {
		if t.Name == "main" {
			main = t
			r.threads[t.Name] = k.CurrentThread()
		} else {
			r.threads[t.Name] = k.NewThread(r.body(t)).SetName(t.Name)
		}
		if pri, ok := s.Priority[t.Name]; ok {
			r.threads[t.Name].SetPriority(pri)
		}
	}

	err := k.Run(r.body(main))
	return k.Stats(), err
}

type runner struct {
	k       *threads.Kernel
	w       io.Writer
	threads map[string]*threads.KThread
	locks   map[string]*threads.Lock
	conds   map[string]*threads.Condition
	sems    map[string]*threads.Semaphore
	comms   map[string]*threads.Communicator
	waters  map[string]*threads.Water
}

func (r *runner) body(t *Thread) func() {
	return func() {
		for _, c := range t.Cmds {
			r.exec(c)
		}
	}
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.w, "%s: %s\n", r.k.CurrentThread().Name(), fmt.Sprintf(format, args...))
}

func (r *runner) exec(c *Cmd) {
	var arg string
	if len(c.Args) > 0 {
		arg = c.Args[0]
	}
	switch c.Op {
	case "fork":
		r.threads[arg].Fork()
	case "join":
		r.threads[arg].Join()
	case "yield":
		r.k.Yield()
	case "finish":
		r.k.Finish()
	case "print":
		r.printf("%s", strings.Join(c.Args, " "))
	case "acquire":
		r.locks[arg].Acquire()
	case "release":
		r.locks[arg].Release()
	case "sleep":
		r.conds[arg].Sleep()
	case "wake":
		r.conds[arg].Wake()
	case "wakeall":
		r.conds[arg].WakeAll()
	case "p":
		r.sems[arg].P()
	case "v":
		r.sems[arg].V()
	case "speak":
		r.comms[arg].Speak(int(c.N))
	case "listen":
		r.printf("heard %d", r.comms[arg].Listen())
	case "wait":
		r.k.Alarm().WaitUntil(machine.Ticks(c.N))
	case "hydrogen":
		r.waters[arg].HReady()
	case "oxygen":
		r.waters[arg].OReady()
	default:
		panic("script: unknown command " + c.Op)
	}
}
