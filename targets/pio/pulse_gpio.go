//go:build rp2040 || rp2350

package pio

import (
	"device/rp"
	"errors"
	"machine"
	"runtime"
	"time"

	"steppulse/core"
)

var (
	errGPIONotEnabled = errors.New("gpio pulse: channel not enabled")
	errGPIOEnabled    = errors.New("gpio pulse: channel already enabled")
	errGPIOWaveform   = errors.New("gpio pulse: empty waveform or bad loop count")
	errGPIOConfig     = errors.New("gpio pulse: pin or resolution out of range")
)

// GPIOPulseDriver replays waveforms from a goroutine that drives the pin
// through SIO. Edges move with scheduler latency.
type GPIOPulseDriver struct{}

// NewGPIOPulseDriver creates the software waveform player
func NewGPIOPulseDriver() *GPIOPulseDriver {
	return &GPIOPulseDriver{}
}

// Open configures cfg.Pin as a plain output held low
func (d *GPIOPulseDriver) Open(cfg core.PulseChannelConfig) (core.PulseChannel, error) {
	if cfg.Pin >= pioNumPins || cfg.ResolutionHz == 0 || cfg.ResolutionHz > 1000000000 {
		return nil, errGPIOConfig
	}

	pin := machine.Pin(cfg.Pin)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()

	core.DebugPrintln("[GPIO] pulse channel on " + core.PinName(cfg.Pin))
	return &gpioChannel{
		mask: 1 << cfg.Pin,
		tick: time.Second / time.Duration(cfg.ResolutionHz),
	}, nil
}

// Info returns backend limits for the dictionary
func (d *GPIOPulseDriver) Info() core.PulseChannelInfo {
	return core.PulseChannelInfo{
		Name:          "GPIO",
		MaxSymbols:    0xffff,
		MaxTicks:      0xffffffff,
		TypicalJitter: 20000, // goroutine wakeup
	}
}

// gpioChannel is one replay goroutine and its stop handshake
type gpioChannel struct {
	mask    uint32
	tick    time.Duration
	enabled bool

	stop chan struct{}
	done chan struct{}
}

func (c *gpioChannel) Enable() error {
	if c.enabled {
		return errGPIOEnabled
	}
	c.enabled = true
	return nil
}

func (c *gpioChannel) Disable() error {
	if !c.enabled {
		return errGPIONotEnabled
	}
	c.halt()
	c.enabled = false
	return nil
}

// Transmit replaces any running replay with symbols
func (c *gpioChannel) Transmit(symbols []core.Symbol, loopCount int) error {
	if !c.enabled {
		return errGPIONotEnabled
	}
	runs := core.CompressRuns(symbols)
	if len(runs) == 0 || (loopCount != core.LoopForever && loopCount <= 0) {
		return errGPIOWaveform
	}

	c.halt()
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.replay(runs, loopCount, c.stop, c.done)
	return nil
}

// halt stops the replay goroutine and drives the pin low
func (c *gpioChannel) halt() {
	if c.stop != nil {
		close(c.stop)
		<-c.done
		c.stop, c.done = nil, nil
	}
	rp.SIO.GPIO_OUT_CLR.Set(c.mask)
}

func (c *gpioChannel) replay(runs []core.Run, loopCount int, stop, done chan struct{}) {
	defer close(done)
	defer rp.SIO.GPIO_OUT_CLR.Set(c.mask)

	for n := 0; loopCount == core.LoopForever || n < loopCount; n++ {
		for _, r := range runs {
			if r.Level {
				rp.SIO.GPIO_OUT_SET.Set(c.mask)
			} else {
				rp.SIO.GPIO_OUT_CLR.Set(c.mask)
			}
			if !c.wait(time.Duration(r.Ticks)*c.tick, stop) {
				return
			}
		}
	}
}

// wait holds the current level for d. It returns false when stop closes.
// Short holds spin so the step pulse keeps its width.
func (c *gpioChannel) wait(d time.Duration, stop chan struct{}) bool {
	if d >= time.Millisecond {
		t := time.NewTimer(d)
		select {
		case <-stop:
			t.Stop()
			return false
		case <-t.C:
			return true
		}
	}

	start := time.Now()
	for time.Since(start) < d {
		select {
		case <-stop:
			return false
		default:
			runtime.Gosched()
		}
	}
	return true
}
