// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package script runs thread scenarios written as txtar archives.
//
// The archive comment declares the synchronization objects and settings,
// one per line:
//
//	lock NAME
//	cond NAME LOCK
//	semaphore NAME N
//	communicator NAME
//	water NAME
//	priority THREAD N
//	config scheduler fifo|priority
//	config seed N
//	config timer N
//	config maxticks N
//
// Every other file in the archive is the body of the thread with that
// name, one command per line; the thread named main is the main thread
// and must be present. The files stdout and error are not threads: they
// hold the output the scenario must print and a substring of the error
// it must halt with.
//
// Thread commands are
//
//	fork T        join T        yield        finish
//	print ARGS... acquire L     release L
//	sleep C       wake C        wakeall C
//	p S           v S
//	speak R N     listen R      wait N
//	hydrogen W    oxygen W
//
// Words are split as in a shell, and # starts a comment. Print writes
// its arguments, and listen writes "heard N"; every output line is
// prefixed with the name of the thread that printed it.
package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/tools/txtar"
	"rsc.io/nachos/machine"
	"rsc.io/nachos/threads"
)

// A Scenario is a parsed scenario archive.
type Scenario struct {
	Name     string
	Settings Settings
	Objects  []*Object
	Threads  []*Thread // main first, then in archive order
	Priority map[string]int

	Stdout    []byte // expected output, if HasStdout
	HasStdout bool
	Error     string // expected error substring; empty means Run must succeed
}

// Settings are the config lines of a scenario.
// Zero values leave the caller's configuration alone.
type Settings struct {
	Scheduler  string // "fifo" or "priority"
	Seed       int64
	SeedSet    bool
	TimerTicks machine.Ticks
	MaxTicks   machine.Ticks
}

// An Object is a declared synchronization object.
type Object struct {
	Kind string // lock, cond, semaphore, communicator, water
	Name string
	Lock string // for cond
	N    int    // for semaphore
}

// A Thread is the body of one scenario thread.
type Thread struct {
	Name string
	Cmds []*Cmd
}

// A Cmd is one thread command.
type Cmd struct {
	Line int
	Op   string
	Args []string
	N    int64 // numeric argument of speak and wait
}

// ParseFile reads and parses the scenario in file.
func ParseFile(file string) (*Scenario, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(strings.TrimSuffix(filepath.Base(file), ".txtar"), data)
}

// Parse parses the scenario archive data.
// Name is used in error messages.
func Parse(name string, data []byte) (*Scenario, error) {
	s := &Scenario{Name: name, Priority: make(map[string]int)}
	ar := txtar.Parse(data)

	p := &parser{s: s, objects: make(map[string]*Object), threads: make(map[string]*Thread)}
	for _, f := range ar.Files {
		switch f.Name {
		case "stdout":
			s.Stdout = f.Data
			s.HasStdout = true
			continue
		case "error":
			s.Error = strings.TrimSpace(string(f.Data))
			if s.Error == "" {
				return nil, fmt.Errorf("%s: empty error file", name)
			}
			continue
		}
		if p.threads[f.Name] != nil {
			return nil, fmt.Errorf("%s: duplicate thread %s", name, f.Name)
		}
		if strings.ContainsAny(f.Name, " \t/") {
			return nil, fmt.Errorf("%s: invalid thread name %q", name, f.Name)
		}
		t := &Thread{Name: f.Name}
		p.threads[f.Name] = t
		if f.Name == "main" {
			s.Threads = append([]*Thread{t}, s.Threads...)
		} else {
			s.Threads = append(s.Threads, t)
		}
	}
	if p.threads["main"] == nil {
		return nil, fmt.Errorf("%s: no main thread", name)
	}

	if err := p.lines("", ar.Comment, p.decl); err != nil {
		return nil, err
	}
	for _, o := range s.Objects {
		if o.Kind == "cond" {
			if l := p.objects[o.Lock]; l == nil || l.Kind != "lock" {
				return nil, fmt.Errorf("%s: cond %s: %s is not a lock", name, o.Name, o.Lock)
			}
		}
	}
	for _, f := range ar.Files {
		t := p.threads[f.Name]
		if t == nil {
			continue
		}
		err := p.lines(f.Name, f.Data, func(line int, args []string) error {
			c, err := p.cmd(args)
			if err != nil {
				return err
			}
			c.Line = line
			t.Cmds = append(t.Cmds, c)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

type parser struct {
	s       *Scenario
	objects map[string]*Object
	threads map[string]*Thread
}

// lines splits data into lines of words and calls f for each non-empty one.
func (p *parser) lines(file string, data []byte, f func(line int, args []string) error) error {
	for i, text := range strings.Split(string(data), "\n") {
		args, err := shlex.Split(text)
		if err == nil && len(args) > 0 {
			err = f(i+1, args)
		}
		if err != nil {
			if file == "" {
				return fmt.Errorf("%s:%d: %v", p.s.Name, i+1, err)
			}
			return fmt.Errorf("%s: %s:%d: %v", p.s.Name, file, i+1, err)
		}
	}
	return nil
}

var declArgs = map[string]int{
	"lock":         1,
	"cond":         2,
	"semaphore":    2,
	"communicator": 1,
	"water":        1,
	"priority":     2,
	"config":       2,
}

func (p *parser) decl(line int, args []string) error {
	kind := args[0]
	n, ok := declArgs[kind]
	if !ok {
		return fmt.Errorf("unknown declaration %q", kind)
	}
	if len(args)-1 != n {
		return fmt.Errorf("%s takes %d arguments", kind, n)
	}
	switch kind {
	case "config":
		return p.config(args[1], args[2])
	case "priority":
		if p.threads[args[1]] == nil {
			return fmt.Errorf("priority: unknown thread %s", args[1])
		}
		pri, err := strconv.Atoi(args[2])
		if err != nil || pri < threads.PriorityMinimum || pri > threads.PriorityMaximum {
			return fmt.Errorf("priority: invalid priority %s", args[2])
		}
		p.s.Priority[args[1]] = pri
		return nil
	}

	o := &Object{Kind: kind, Name: args[1]}
	if p.objects[o.Name] != nil {
		return fmt.Errorf("%s redeclared", o.Name)
	}
	switch kind {
	case "cond":
		o.Lock = args[2]
	case "semaphore":
		v, err := strconv.Atoi(args[2])
		if err != nil || v < 0 {
			return fmt.Errorf("semaphore: invalid value %s", args[2])
		}
		o.N = v
	}
	p.objects[o.Name] = o
	p.s.Objects = append(p.s.Objects, o)
	return nil
}

func (p *parser) config(key, val string) error {
	st := &p.s.Settings
	if key == "scheduler" {
		if val != "fifo" && val != "priority" {
			return fmt.Errorf("config: unknown scheduler %s", val)
		}
		st.Scheduler = val
		return nil
	}
	n, err := strconv.ParseInt(val, 0, 64)
	if err != nil {
		return fmt.Errorf("config %s: invalid number %s", key, val)
	}
	switch key {
	default:
		return fmt.Errorf("config: unknown key %s", key)
	case "seed":
		st.Seed, st.SeedSet = n, true
	case "timer":
		if n <= 0 {
			return fmt.Errorf("config timer: must be positive")
		}
		st.TimerTicks = machine.Ticks(n)
	case "maxticks":
		st.MaxTicks = machine.Ticks(n)
	}
	return nil
}

// cmdArgs gives the operand kinds of each command: t a thread,
// n a number, w a number that fits in an int, and an object kind
// otherwise. Print takes any words.
var cmdArgs = map[string][]string{
	"fork":     {"t"},
	"join":     {"t"},
	"yield":    {},
	"finish":   {},
	"acquire":  {"lock"},
	"release":  {"lock"},
	"sleep":    {"cond"},
	"wake":     {"cond"},
	"wakeall":  {"cond"},
	"p":        {"semaphore"},
	"v":        {"semaphore"},
	"speak":    {"communicator", "w"},
	"listen":   {"communicator"},
	"wait":     {"n"},
	"hydrogen": {"water"},
	"oxygen":   {"water"},
}

func (p *parser) cmd(args []string) (*Cmd, error) {
	c := &Cmd{Op: args[0], Args: args[1:]}
	if c.Op == "print" {
		return c, nil
	}
	kinds, ok := cmdArgs[c.Op]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", c.Op)
	}
	if len(c.Args) != len(kinds) {
		return nil, fmt.Errorf("%s takes %d arguments", c.Op, len(kinds))
	}
	for i, kind := range kinds {
		arg := c.Args[i]
		switch kind {
		case "t":
			if p.threads[arg] == nil {
				return nil, fmt.Errorf("%s: unknown thread %s", c.Op, arg)
			}
		case "n", "w":
			size := 64
			if kind == "w" {
				size = strconv.IntSize
			}
			n, err := strconv.ParseInt(arg, 0, size)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid number %s", c.Op, arg)
			}
			c.N = n
		default:
			o := p.objects[arg]
			if o == nil {
				return nil, fmt.Errorf("%s: undeclared %s %s", c.Op, kind, arg)
			}
			if o.Kind != kind {
				return nil, fmt.Errorf("%s: %s is a %s, not a %s", c.Op, arg, o.Kind, kind)
			}
		}
	}
	return c, nil
}

// Check reports whether output and err, the results of running s,
// are what the scenario expects.
func (s *Scenario) Check(output []byte, err error) error {
	switch {
	case s.Error == "" && err != nil:
		return fmt.Errorf("%s: unexpected error: %v", s.Name, err)
	case s.Error != "" && err == nil:
		return fmt.Errorf("%s: succeeded, want error containing %q", s.Name, s.Error)
	case s.Error != "" && !strings.Contains(err.Error(), s.Error):
		return fmt.Errorf("%s: error %q, want error containing %q", s.Name, err, s.Error)
	}
	if s.HasStdout && !bytes.Equal(output, s.Stdout) {
		return fmt.Errorf("%s: wrong output\nhave:\n%s\nwant:\n%s", s.Name, output, s.Stdout)
	}
	return nil
}
