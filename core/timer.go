package core

import "time"

// Tick resolution of the pulse channel: 1 tick = 1 microsecond
const (
	TickResolutionHz = 1000000
)

// TicksFromUS converts microseconds to ticks at resolutionHz
func TicksFromUS(us uint32, resolutionHz uint32) uint32 {
	return uint32(uint64(us) * uint64(resolutionHz) / 1000000)
}

// TicksToUS converts ticks at resolutionHz to microseconds
func TicksToUS(ticks uint32, resolutionHz uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / uint64(resolutionHz))
}

// TicksToDuration converts ticks at resolutionHz to a time.Duration
func TicksToDuration(ticks uint32, resolutionHz uint32) time.Duration {
	return time.Duration(uint64(ticks) * uint64(time.Second) / uint64(resolutionHz))
}

// Sleeper suspends the calling task for a bounded duration
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a plain function to the Sleeper interface
type SleeperFunc func(d time.Duration)

// Sleep calls f(d)
func (f SleeperFunc) Sleep(d time.Duration) {
	f(d)
}

// SystemSleeper yields to the scheduler through time.Sleep
var SystemSleeper Sleeper = SleeperFunc(time.Sleep)
