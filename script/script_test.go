// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"rsc.io/nachos/machine"
	"rsc.io/nachos/threads"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios")
	}
	for _, file := range files {
		s, err := ParseFile(file)
		if err != nil {
			t.Error(err)
			continue
		}
		t.Run(s.Name, func(t *testing.T) {
			for seed := int64(0); seed < 4; seed++ {
				cfg := threads.Config{Machine: machine.DefaultConfig()}
				cfg.Machine.Seed = seed
				var out bytes.Buffer
				_, err := s.Run(cfg, &out)
				if err := s.Check(out.Bytes(), err); err != nil {
					t.Errorf("seed %d: %v", seed, err)
				}
			}
		})
	}
}

func TestStats(t *testing.T) {
	s, err := ParseFile("testdata/alarm.txtar")
	if err != nil {
		t.Fatal(err)
	}
	stats, err := s.Run(threads.Config{}, new(bytes.Buffer))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTicks < 1000 || stats.IdleTicks == 0 || stats.TimerInterrupts < 2 || stats.ContextSwitches == 0 {
		t.Errorf("implausible stats: %v", stats)
	}
	if stats.TotalTicks != stats.IdleTicks+stats.KernelTicks {
		t.Errorf("total ticks %d != idle %d + kernel %d", stats.TotalTicks, stats.IdleTicks, stats.KernelTicks)
	}
}

func TestConfig(t *testing.T) {
	s, err := Parse("config", []byte(`
config scheduler priority
config seed 42
config timer 0x100
config maxticks 9000
-- main --
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg := s.Config(threads.Config{})
	if _, ok := cfg.Scheduler.(*threads.PriorityScheduler); !ok {
		t.Errorf("scheduler = %T, want *threads.PriorityScheduler", cfg.Scheduler)
	}
	m := cfg.Machine
	if m.Seed != 42 || m.TimerTicks != 256 || m.MaxTicks != 9000 || !m.Randomize || m.KernelTick != machine.KernelTick {
		t.Errorf("machine config = %+v", m)
	}
}

var parseErrorTests = []struct {
	text string
	err  string
}{
	{"-- a --\n", "no main thread"},
	{"-- main --\n-- main --\n", "duplicate thread main"},
	{"-- main --\nfrob\n", "test: main:1: unknown command \"frob\""},
	{"-- main --\n\n# comment\nfork\n", "test: main:3: fork takes 1 arguments"},
	{"-- main --\nfork b\n", "fork: unknown thread b"},
	{"-- main --\nacquire m\n", "acquire: undeclared lock m"},
	{"semaphore m 1\n-- main --\nacquire m\n", "acquire: m is a semaphore, not a lock"},
	{"lock m\nlock m\n-- main --\n", "test:2: m redeclared"},
	{"cond c m\n-- main --\n", "cond c: m is not a lock"},
	{"semaphore s -1\n-- main --\n", "semaphore: invalid value -1"},
	{"communicator r\n-- main --\nspeak r x\n", "speak: invalid number x"},
	{"priority main 9\n-- main --\n", "priority: invalid priority 9"},
	{"priority b 3\n-- main --\n", "priority: unknown thread b"},
	{"config scheduler lottery\n-- main --\n", "unknown scheduler lottery"},
	{"config color blue\n-- main --\n", "config color: invalid number blue"},
	{"config color 1\n-- main --\n", "config: unknown key color"},
	{"config timer 0\n-- main --\n", "config timer: must be positive"},
	{"bogus\n-- main --\n", "unknown declaration \"bogus\""},
	{"-- main --\nprint \"unterminated\n", "test: main:1:"},
	{"-- main --\n-- error --\n", "empty error file"},
	{"-- main --\n-- a b --\n", "invalid thread name"},
}

func TestParseErrors(t *testing.T) {
	for _, tt := range parseErrorTests {
		_, err := Parse("test", []byte(tt.text))
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error %q", tt.text, tt.err)
			continue
		}
		if !strings.Contains(err.Error(), tt.err) {
			t.Errorf("Parse(%q) = %v, want error containing %q", tt.text, err, tt.err)
		}
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("test", []byte(`lock m  # the lock
cond c m
priority a 5
-- a --
print "hello, world" again # trailing comment
-- main --
fork a
join a
-- stdout --
a: hello, world again
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Threads) != 2 || s.Threads[0].Name != "main" || s.Threads[1].Name != "a" {
		t.Fatalf("threads = %v, want main first", s.Threads)
	}
	c := s.Threads[1].Cmds[0]
	if c.Op != "print" || len(c.Args) != 2 || c.Args[0] != "hello, world" || c.Line != 1 {
		t.Errorf("print command = %+v", c)
	}
	if s.Priority["a"] != 5 || len(s.Objects) != 2 || s.Objects[1].Lock != "m" {
		t.Errorf("declarations: priority %v, objects %v", s.Priority, s.Objects)
	}

	var out bytes.Buffer
	_, err = s.Run(threads.Config{}, &out)
	if err := s.Check(out.Bytes(), err); err != nil {
		t.Error(err)
	}
}

func TestSpeakWord(t *testing.T) {
	const text = "communicator r\n-- main --\nspeak r 4294967296\n"
	s, err := Parse("test", []byte(text))
	if strconv.IntSize == 32 {
		if err == nil || !strings.Contains(err.Error(), "speak: invalid number 4294967296") {
			t.Errorf("Parse(%q) = %v, want invalid number", text, err)
		}
		return
	}
	if err != nil {
		t.Fatal(err)
	}
	if c := s.Threads[0].Cmds[0]; c.N != 1<<32 {
		t.Errorf("speak word = %d, want %d", c.N, int64(1)<<32)
	}
}

func TestCheck(t *testing.T) {
	s := &Scenario{Name: "x", Stdout: []byte("a: b\n"), HasStdout: true}
	if err := s.Check([]byte("a: b\n"), nil); err != nil {
		t.Errorf("matching output: %v", err)
	}
	if err := s.Check([]byte("a: c\n"), nil); err == nil || !strings.Contains(err.Error(), "wrong output") {
		t.Errorf("mismatched output: %v", err)
	}
	if err := s.Check([]byte("a: b\n"), threads.ErrDeadlock); err == nil {
		t.Errorf("unexpected error was accepted")
	}
	s.Error = "dead"
	if err := s.Check([]byte("a: b\n"), threads.ErrDeadlock); err != nil {
		t.Errorf("expected error: %v", err)
	}
	if err := s.Check([]byte("a: b\n"), nil); err == nil {
		t.Errorf("missing error was accepted")
	}
}
