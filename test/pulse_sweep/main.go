//go:build rp2040 || rp2350

package main

// Pulse player sweep - replays A4988 step waveforms at rising speeds on
// the default board's step pin. Watch on an oscilloscope: the printed
// frequency should match the measured one.

import (
	"machine"
	"strconv"
	"time"

	"steppulse/a4988"
	"steppulse/config"
	"steppulse/core"
	"steppulse/targets/pio"
)

// Angular velocities in rad/s, full step mode
var sweep = []float64{0.5, 1, 3.14, 10, 50, 200, 1000}

func main() {
	time.Sleep(3 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	println("=== Pulse Player Sweep ===")

	board := config.DefaultBoardConfig()
	motor, err := board.DriverConfig()
	if err != nil {
		fail(led, err)
	}
	println("Step:", core.PinName(motor.Pins.Step), "backend:", board.PulseBackend)

	pulses, err := pio.NewPulseDriver(board.PulseBackend)
	if err != nil {
		fail(led, err)
	}
	ch, err := pulses.Open(core.PulseChannelConfig{
		Pin:          motor.Pins.Step,
		ResolutionHz: motor.ResolutionHz,
		MemSymbols:   motor.MemSymbols,
		QueueDepth:   motor.QueueDepth,
	})
	if err == nil {
		err = ch.Enable()
	}
	if err != nil {
		fail(led, err)
	}
	println("Init OK!")

	timing := motor.Timing()
	cycle := 0
	for {
		cycle++
		println("\n=== Cycle", cycle, "===")

		for _, omega := range sweep {
			w, err := a4988.NewWaveform(omega, a4988.StepModeFull, timing)
			if err != nil {
				println("  omega", strconv.FormatFloat(omega, 'g', -1, 64), "skipped:", err.Error())
				continue
			}
			if err := ch.Transmit(w.Symbols, core.LoopForever); err != nil {
				fail(led, err)
			}
			println("  omega", strconv.FormatFloat(omega, 'g', -1, 64),
				"period", w.PeriodTicks, "ticks,",
				strconv.FormatFloat(w.Frequency(timing.ResolutionHz), 'f', 1, 64), "Hz")

			led.High()
			time.Sleep(3 * time.Second)
			led.Low()
		}

		// Disable leaves the pin low between cycles
		ch.Disable()
		time.Sleep(1 * time.Second)
		ch.Enable()
	}
}

// fail reports err and blinks the LED forever
func fail(led machine.Pin, err error) {
	println("Init error:", err.Error())
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
