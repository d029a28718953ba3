// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Nachosrun runs thread scenarios on the simulated machine.
//
// Usage:
//
//	nachosrun [-d flags] [-s seed] [-timer n] [-maxticks n] [-sched fifo|priority]
//		[-p n] [-step] [-selftest] [-cpuprofile file] [scenario.txtar ...]
//
// Each scenario file is a txtar archive in the format read by package
// rsc.io/nachos/script. Nachosrun runs each one on its own machine,
// prints its output and statistics, and checks the output and error
// against the scenario's stdout and error files, if present. Config
// lines in a scenario override the flags.
//
// With no files, or with -selftest, nachosrun runs the thread self tests.
//
// The -d flag enables debug tracing to standard error for the given flag
// letters: t threads, a alarm, c condition variables, s locks and
// semaphores, q queues, + everything.
//
// The -p flag runs up to n scenarios at once.
//
// The -step flag stops at every context switch until a key is pressed;
// q quits. It needs a terminal and implies -p 1.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"rsc.io/nachos/machine"
	"rsc.io/nachos/script"
	"rsc.io/nachos/threads"
)

var (
	debug      = flag.String("d", "", "trace debug `flags` to standard error")
	seed       = flag.Int64("s", 0, "seed the timer jitter with `seed`")
	timer      = flag.Int64("timer", machine.TimerTicks, "mean `ticks` between timer interrupts")
	maxticks   = flag.Int64("maxticks", 0, "halt after `n` ticks (0 means never)")
	sched      = flag.String("sched", "fifo", "use `scheduler` fifo or priority")
	parallel   = flag.Int("p", 1, "run up to `n` scenarios in parallel")
	step       = flag.Bool("step", false, "stop at each context switch")
	selftest   = flag.Bool("selftest", false, "run the thread self tests")
	cpuprofile = flag.String("cpuprofile", "", "write cpuprofile to `file`")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: nachosrun [-d flags] [-s seed] [-timer n] [-maxticks n] [-sched fifo|priority] [-p n] [-step] [-selftest] [-cpuprofile file] [scenario.txtar ...]\n")
	os.Exit(2)
}

// A job is one machine run.
type job struct {
	name  string
	run   func(cfg threads.Config, w io.Writer) (machine.Stats, error)
	check func(out []byte, err error) error

	out    bytes.Buffer
	trace  bytes.Buffer
	stats  machine.Stats
	err    error // error the machine halted with
	result error // err, or the check's verdict on the run
}

// do runs j with cfg, writing the scenario output to w as well as j.out.
func (j *job) do(cfg threads.Config, w io.Writer) error {
	if w == nil {
		w = &j.out
	} else {
		w = io.MultiWriter(w, &j.out)
	}
	j.stats, j.err = j.run(cfg, w)
	j.result = j.err
	if j.check != nil {
		j.result = j.check(j.out.Bytes(), j.err)
	}
	return j.result
}

func main() {
	log.SetPrefix("nachosrun: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := threads.Config{Machine: machine.DefaultConfig(), Debug: *debug}
	cfg.Machine.Seed = *seed
	cfg.Machine.TimerTicks = machine.Ticks(*timer)
	cfg.Machine.MaxTicks = machine.Ticks(*maxticks)
	switch *sched {
	case "fifo":
		cfg.Scheduler = threads.NewRoundRobinScheduler()
	case "priority":
		cfg.Scheduler = threads.NewPriorityScheduler()
	default:
		log.Fatalf("unknown scheduler %q", *sched)
	}
	if *timer <= 0 || *parallel <= 0 {
		usage()
	}

	var jobs []*job
	if *selftest || flag.NArg() == 0 {
		jobs = append(jobs, &job{name: "selftest", run: runSelfTest})
	}
	for _, file := range flag.Args() {
		s, err := script.ParseFile(file)
		if err != nil {
			log.Fatal(err)
		}
		jobs = append(jobs, &job{name: s.Name, run: s.Run, check: s.Check})
	}

	var out io.Writer = os.Stdout
	if *step {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			log.Fatal("-step needs a terminal")
		}
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			log.Fatal(err)
		}
		fixup := func() { term.Restore(int(os.Stdin.Fd()), oldState) }
		defer fixup()
		out = crlfWriter{os.Stdout}
		cfg.OnSwitch = stepper(out, fixup)
		*parallel = 1
	}

	var g errgroup.Group
	g.SetLimit(*parallel)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			jcfg := cfg
			var w io.Writer
			if *step {
				w = out
			}
			if jcfg.Debug != "" {
				jcfg.Trace = &j.trace
			}
			return j.do(jcfg, w)
		})
	}
	failed := g.Wait() != nil

	for _, j := range jobs {
		if len(jobs) > 1 {
			fmt.Fprintf(out, "=== %s\n", j.name)
		}
		if !*step {
			out.Write(j.out.Bytes())
		}
		os.Stderr.Write(j.trace.Bytes())
		fmt.Fprintf(out, "%v\n", j.stats)
		switch {
		case j.result != nil:
			fmt.Fprintf(out, "FAIL %s: %v\n", j.name, j.result)
		case j.err != nil:
			fmt.Fprintf(out, "ok %s (halted: %v)\n", j.name, j.err)
		default:
			fmt.Fprintf(out, "ok %s\n", j.name)
		}
	}
	if failed {
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func runSelfTest(cfg threads.Config, w io.Writer) (machine.Stats, error) {
	k := threads.NewKernel(cfg)
	err := k.Run(func() { threads.SelfTest(k, w) })
	return k.Stats(), err
}

// stepper returns an OnSwitch hook that reports each switch and waits
// for a key.
func stepper(w io.Writer, fixup func()) func(from, to *threads.KThread) {
	buf := make([]byte, 1)
	return func(from, to *threads.KThread) {
		fmt.Fprintf(w, "--- switch %v -> %v [any key, q to quit] ", from, to)
		n, err := os.Stdin.Read(buf)
		fmt.Fprintf(w, "\n")
		if err != nil || n == 0 || buf[0] == 'q' || buf[0] == 0x03 || buf[0] == 0x1c {
			pprof.StopCPUProfile()
			fixup()
			os.Exit(1)
		}
	}
}

// crlfWriter translates \n to \r\n for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(b []byte) (int, error) {
	_, err := io.WriteString(c.w, strings.ReplaceAll(string(b), "\n", "\r\n"))
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
