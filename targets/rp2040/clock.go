//go:build rp2040

package main

import (
	"time"

	"steppulse/core"

	"tinygo.org/x/drivers/delay"
)

// InitClock registers MCU-specific constants
func InitClock() {
	core.RegisterConstant("MCU", "rp2040")
}

// rpSleeper busy-waits for holds shorter than a millisecond, where the
// scheduler's resolution is too coarse, and yields for longer ones
type rpSleeper struct{}

func (rpSleeper) Sleep(d time.Duration) {
	if d < time.Millisecond {
		delay.Sleep(d)
		return
	}
	time.Sleep(d)
}
