//go:build rp2350

package main

import (
	_ "embed"
	"machine"
	"time"

	"steppulse/a4988"
	"steppulse/config"
	"steppulse/core"
	"steppulse/targets/pio"
)

//go:embed board.json
var boardJSON []byte

// Longest accepted command line
const maxLineLength = 160

var (
	console *core.Console
	lineBuf = make([]byte, 0, maxLineLength)

	// Debug counters
	linesReceived uint32
	msgerrors     uint32
)

// ledBlink blinks the LED a specific number of times for diagnostics
func ledBlink(count int) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < count; i++ {
		led.High()
		time.Sleep(150 * time.Millisecond)
		led.Low()
		time.Sleep(150 * time.Millisecond)
	}
}

func main() {
	// Initialize USB CDC immediately
	InitUSB()

	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	// Debug lines are prefixed with '#' so the host skips them
	core.SetDebugWriter(func(s string) {
		writeLine("# " + s)
	})
	core.InitAsyncDebug()

	InitClock()
	core.InitCoreCommands()

	board, err := config.LoadConfig(boardJSON)
	if err != nil {
		board = config.DefaultBoardConfig()
	}
	core.SetDebugEnabled(board.Debug)
	core.RegisterConstant("BOARD", board.Board)

	// Register hardware drivers
	core.SetGPIODriver(NewRPGPIODriver())
	pulses, err := pio.NewPulseDriver(board.PulseBackend)
	if err != nil {
		core.DebugPrintln("[MAIN] pulse_backend " + board.PulseBackend + ": " + err.Error())
		pulses = pio.NewDefaultPulseDriver()
	}
	core.SetPulseDriver(pulses)
	core.RegisterConstant("PULSE_BACKEND", pulses.Info().Name)

	driver := a4988.NewDriver(core.MustGPIO(), core.MustPulse(), a4988.WithSleeper(rpSleeper{}))
	motorCfg, err := board.DriverConfig()
	if err == nil {
		err = driver.Init(motorCfg)
	}
	if err != nil {
		// Commands stay registered and report the driver as not initialized
		core.DebugPrintln("[MAIN] motor init failed: " + err.Error())

		// DIAGNOSTIC: 3 blinks = motor not usable
		ledBlink(3)
	}
	driver.RegisterCommands(core.GetGlobalRegistry())

	console = core.NewConsole(core.GetGlobalRegistry(), writeLine)

	for {
		pollUSB()

		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}

// pollUSB reads all buffered bytes and runs each completed line
func pollUSB() {
	// Recover from panics in a handler to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			lineBuf = lineBuf[:0]
			writeLine(core.ReplyError + " msg=panic")
		}
	}()

	for USBAvailable() > 0 {
		b, err := USBRead()
		if err != nil {
			msgerrors++
			return
		}

		switch b {
		case '\r', '\n':
			if len(lineBuf) == 0 {
				continue
			}
			line := string(lineBuf)
			lineBuf = lineBuf[:0]
			linesReceived++
			console.ProcessLine(line)
		default:
			if len(lineBuf) == maxLineLength {
				// Overlong line: drop what was read so far
				msgerrors++
				core.DebugAsync("[MAIN] line overflow")
				lineBuf = lineBuf[:0]
				continue
			}
			lineBuf = append(lineBuf, b)
		}
	}
}

// writeLine sends one response line to the host
func writeLine(line string) {
	data := make([]byte, 0, len(line)+1)
	data = append(data, line...)
	data = append(data, '\n')

	written := 0
	for written < len(data) {
		n, err := USBWriteBytes(data[written:])
		if err != nil || n == 0 {
			// Write error - likely disconnect, drop the line
			msgerrors++
			return
		}
		written += n
	}
}
