//go:build rp2350

package main

import (
	"errors"
	"machine"

	"steppulse/core"
)

// RP2350B has GPIO0-GPIO47, RP2350A only the first 30
const rpNumGPIO = 48

var errInvalidGPIO = errors.New("gpio: pin out of range")

// RPGPIODriver implements the GPIODriver interface for RP2350
type RPGPIODriver struct {
	// Track configured pins to reject writes to unclaimed pins
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2350 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutputs configures every pin as a digital output.
// All pins are checked before any is touched.
func (d *RPGPIODriver) ConfigureOutputs(pins []core.GPIOPin) error {
	for _, pin := range pins {
		if pin >= rpNumGPIO {
			return errInvalidGPIO
		}
	}

	for _, pin := range pins {
		if _, exists := d.configuredPins[pin]; exists {
			// Already configured, this is OK
			continue
		}
		machinePin := machine.Pin(pin)
		machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		d.configuredPins[pin] = machinePin
	}
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return errors.New("gpio: " + core.PinName(pin) + " not configured as output")
	}

	machinePin.Set(value)
	return nil
}
