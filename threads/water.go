// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threads

// Water groups hydrogen and oxygen threads into molecules of two
// hydrogens and one oxygen. Each atom thread blocks until it is part of
// a complete molecule; the thread that completes a molecule wakes the
// waiting partners it used.
type Water struct {
	lock      *Lock
	hydrogens *Condition
	oxygens   *Condition

	h, o      int // atoms waiting, including the caller
	molecules int

	// OnBond, if set, is called with the lock held each time a molecule forms.
	OnBond func()
}

// NewWater returns an empty reaction.
func NewWater(k *Kernel) *Water {
	l := NewLock(k)
	return &Water{lock: l, hydrogens: NewCondition(l), oxygens: NewCondition(l)}
}

// HReady adds a hydrogen atom and returns once it has bonded.
func (w *Water) HReady() {
	w.lock.Acquire()
	w.h++
	if w.h >= 2 && w.o >= 1 {
		w.bond()
		w.hydrogens.Wake()
		w.oxygens.Wake()
	} else {
		w.hydrogens.Sleep()
	}
	w.lock.Release()
}

// OReady adds an oxygen atom and returns once it has bonded.
func (w *Water) OReady() {
	w.lock.Acquire()
	w.o++
	if w.h >= 2 {
		w.bond()
		w.hydrogens.Wake()
		w.hydrogens.Wake()
	} else {
		w.oxygens.Sleep()
	}
	w.lock.Release()
}

func (w *Water) bond() {
	w.h -= 2
	w.o--
	w.molecules++
	w.lock.k.debug(dbgSync, "Water %p: molecule %d", w, w.molecules)
	if w.OnBond != nil {
		w.OnBond()
	}
}

// Molecules returns the number of molecules formed so far.
func (w *Water) Molecules() int { return w.molecules }

// Waiting returns the number of hydrogen and oxygen atoms still waiting.
func (w *Water) Waiting() (hydrogen, oxygen int) { return w.h, w.o }
