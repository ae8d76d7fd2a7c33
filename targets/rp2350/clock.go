//go:build rp2350

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"steppulse/core"
)

// RP2350 TIMER0 is at a different address than the RP2040 timer
// (0x400B0000 vs 0x40054000). timeRawL at +0x28 is the unlatched low
// word of the 1MHz counter.
const (
	timerBase     = 0x400B0000
	timerTimeRawL = timerBase + 0x28
)

var timerRawL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTimeRawL)))

// InitClock registers MCU-specific constants
func InitClock() {
	// Discard the first readings after the runtime starts the tick generator
	_ = timerRawL.Get()
	_ = timerRawL.Get()

	core.RegisterConstant("MCU", "rp2350")
}

// rpSleeper spins on the microsecond timer for holds shorter than a
// millisecond and yields for longer ones
type rpSleeper struct{}

func (rpSleeper) Sleep(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}

	us := uint32(d / time.Microsecond)
	start := timerRawL.Get()
	for timerRawL.Get()-start < us {
	}
}
