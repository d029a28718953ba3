// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

import "fmt"

// Stats counts what a machine has done.
type Stats struct {
	TotalTicks      Ticks
	KernelTicks     Ticks
	IdleTicks       Ticks
	ContextSwitches int
	TimerInterrupts int
}

func (s Stats) String() string {
	return fmt.Sprintf("Ticks: total %d, kernel %d, idle %d; context switches %d, timer interrupts %d",
		s.TotalTicks, s.KernelTicks, s.IdleTicks, s.ContextSwitches, s.TimerInterrupts)
}
