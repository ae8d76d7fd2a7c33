//go:build rp2040 || rp2350

package pio

import (
	"errors"
	"strconv"

	"steppulse/config"
	"steppulse/core"
)

var errUnknownBackend = errors.New("pulse: unknown backend")

// PulseDriver opens channels on the first PIO block with a free state
// machine. When both blocks are full it falls back to GPIO replay.
type PulseDriver struct {
	blocks  [2]*PIOPulseDriver
	gpio    *GPIOPulseDriver
	backend string
}

// NewPulseDriver creates the driver for a board's pulse_backend setting
func NewPulseDriver(backend string) (*PulseDriver, error) {
	switch backend {
	case config.BackendPIO, config.BackendGPIO:
	default:
		return nil, errUnknownBackend
	}

	return newPulseDriver(backend), nil
}

// NewDefaultPulseDriver creates a driver preferring PIO
func NewDefaultPulseDriver() *PulseDriver {
	return newPulseDriver(config.BackendPIO)
}

func newPulseDriver(backend string) *PulseDriver {
	return &PulseDriver{
		blocks:  [2]*PIOPulseDriver{NewPIOPulseDriver(0), NewPIOPulseDriver(1)},
		gpio:    NewGPIOPulseDriver(),
		backend: backend,
	}
}

// Open implements core.PulseDriver
func (d *PulseDriver) Open(cfg core.PulseChannelConfig) (core.PulseChannel, error) {
	if d.backend == config.BackendPIO {
		for i, block := range d.blocks {
			ch, err := block.Open(cfg)
			if err == nil {
				return ch, nil
			}
			if errors.Is(err, errPIOPinMismatch) {
				return nil, err
			}
			core.DebugPrintln("[PIO] block " + strconv.Itoa(i) + ": " + err.Error())
		}
		core.DebugPrintln("[PIO] no state machine free, using GPIO replay")
	}
	return d.gpio.Open(cfg)
}

// Info describes the preferred backend
func (d *PulseDriver) Info() core.PulseChannelInfo {
	if d.backend == config.BackendGPIO {
		return d.gpio.Info()
	}
	return d.blocks[0].Info()
}
