//go:build rp2040 || rp2350

package pio

// PIO waveform player
//
// The step waveform of the A4988 driver is one high run followed by one
// low run, replayed forever. The PIO program below holds the run lengths
// of the current waveform in X and reloads them every period, so replay
// needs no CPU or DMA once started.
//
// Word format (one word per waveform):
//
//	Bits 0-7:  high run in ticks, minus 1
//	Bits 8-31: low run in ticks, minus 2
//
// The state machine runs at pioCyclesPerTick cycles per tick. The two
// extra cycles of the high phase are taken from the low phase, so the
// period is exact and the high run is 2 cycles longer than requested.

import (
	"errors"
	"machine"

	"steppulse/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

const (
	pioCyclesPerTick = 8
	pioMaxHighTicks  = 1 << 8
	pioMaxLowTicks   = 1<<24 + 1

	// GPIO0-GPIO29 on both chips; the PIO pin window starts at 0
	pioNumPins = 30
)

var (
	errPIOShape       = errors.New("pio: waveform must be one high run then one low run")
	errPIORunLength   = errors.New("pio: run length out of range")
	errPIOLoopCount   = errors.New("pio: only endless replay is supported")
	errPIONotEnabled  = errors.New("pio: channel not enabled")
	errPIOEnabled     = errors.New("pio: channel already enabled")
	errPIOPinMismatch = errors.New("pio: pin outside the state machine range")
)

// delay adds a delay field to an encoded instruction
func delay(instr uint16, cycles uint8) uint16 {
	return instr | uint16(cycles&0x1f)<<8
}

// buildReplayProgram creates the replay program. Jump targets are
// relative; AddProgram relocates them.
func buildReplayProgram() []uint16 {
	return []uint16{
		// .wrap_target
		rp2pio.EncodePull(false, false),                      // 0: pull noblock     ; OSR = FIFO, or X when empty
		rp2pio.EncodeMov(rp2pio.SrcDestX, rp2pio.SrcDestOSR), // 1: mov x, osr       ; keep for the next period
		rp2pio.EncodeOut(rp2pio.SrcDestY, 8),                 // 2: out y, 8         ; high run
		rp2pio.EncodeSet(rp2pio.SrcDestPins, 1),              // 3: set pins, 1
		delay(rp2pio.EncodeJmp(4, rp2pio.JmpYNZeroDec), 7),   // 4: jmp y--, 4 [7]
		rp2pio.EncodeOut(rp2pio.SrcDestY, 24),                // 5: out y, 24        ; low run
		delay(rp2pio.EncodeSet(rp2pio.SrcDestPins, 0), 2),    // 6: set pins, 0 [2]
		delay(rp2pio.EncodeJmp(7, rp2pio.JmpYNZeroDec), 7),   // 7: jmp y--, 7 [7]
		// .wrap
	}
}

// encodeReplayWord converts a waveform into the word the program replays
func encodeReplayWord(symbols []core.Symbol) (uint32, error) {
	runs := core.CompressRuns(symbols)
	if len(runs) != 2 || !runs[0].Level || runs[1].Level {
		return 0, errPIOShape
	}
	high, low := runs[0].Ticks, runs[1].Ticks
	if high > pioMaxHighTicks || low < 2 || low > pioMaxLowTicks {
		return 0, errPIORunLength
	}
	return (high - 1) | (low-2)<<8, nil
}

// PIOPulseDriver opens waveform player channels on one PIO block
type PIOPulseDriver struct {
	pio       *rp2pio.PIO
	offset    uint8
	programOK bool
}

// NewPIOPulseDriver creates a pulse driver on PIO block 0 or 1
func NewPIOPulseDriver(pioNum uint8) *PIOPulseDriver {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &PIOPulseDriver{pio: pioHW}
}

// Open claims a state machine and binds it to cfg.Pin
func (d *PIOPulseDriver) Open(cfg core.PulseChannelConfig) (core.PulseChannel, error) {
	if cfg.Pin >= pioNumPins {
		return nil, errPIOPinMismatch
	}

	sm, err := d.pio.ClaimStateMachine()
	if err != nil {
		return nil, err
	}

	// One copy of the program serves every state machine on the block
	if !d.programOK {
		offset, err := d.pio.AddProgram(buildReplayProgram(), -1)
		if err != nil {
			sm.Unclaim()
			return nil, err
		}
		d.offset = offset
		d.programOK = true
	}

	whole, frac, err := rp2pio.ClkDivFromFrequency(cfg.ResolutionHz*pioCyclesPerTick, machine.CPUFrequency())
	if err != nil {
		sm.Unclaim()
		return nil, err
	}

	pin := machine.Pin(cfg.Pin)
	pin.Configure(machine.PinConfig{Mode: d.pio.PinMode()})

	smCfg := rp2pio.DefaultStateMachineConfig()
	smCfg.SetSetPins(pin, 1)
	smCfg.SetOutShift(true, false, 32)
	smCfg.SetWrap(d.offset, d.offset+uint8(len(buildReplayProgram()))-1)
	smCfg.SetClkDivIntFrac(whole, frac)

	// Init leaves the state machine disabled
	sm.Init(d.offset, smCfg)

	// Pin direction must be set after Init
	sm.SetPindirsConsecutive(pin, 1, true)
	sm.SetPinsConsecutive(pin, 1, false)

	core.DebugPrintln("[PIO] channel on " + core.PinName(cfg.Pin))
	return &pioChannel{sm: sm, pin: pin, offset: d.offset}, nil
}

// Info returns backend limits for the dictionary
func (d *PIOPulseDriver) Info() core.PulseChannelInfo {
	return core.PulseChannelInfo{
		Name:          "PIO",
		MaxSymbols:    0xffff,
		MaxTicks:      pioMaxLowTicks,
		TypicalJitter: 10, // hardware-timed, one system clock
	}
}

// pioChannel is one state machine replaying a step waveform
type pioChannel struct {
	sm      rp2pio.StateMachine
	pin     machine.Pin
	offset  uint8
	enabled bool
}

func (c *pioChannel) Enable() error {
	if c.enabled {
		return errPIOEnabled
	}
	c.enabled = true
	return nil
}

func (c *pioChannel) Disable() error {
	if !c.enabled {
		return errPIONotEnabled
	}
	c.halt()
	c.enabled = false
	return nil
}

// Transmit loads the waveform and starts the state machine. A running
// waveform is replaced from the start of its period.
func (c *pioChannel) Transmit(symbols []core.Symbol, loopCount int) error {
	if !c.enabled {
		return errPIONotEnabled
	}
	if loopCount != core.LoopForever {
		return errPIOLoopCount
	}
	word, err := encodeReplayWord(symbols)
	if err != nil {
		return err
	}

	c.halt()
	c.sm.TxPut(word)
	c.sm.SetEnabled(true)
	return nil
}

// halt stops the state machine at the program start with the pin low
func (c *pioChannel) halt() {
	c.sm.SetEnabled(false)
	c.sm.ClearFIFOs()
	c.sm.Restart()
	c.sm.ClkDivRestart()
	c.sm.Exec(rp2pio.EncodeJmp(c.offset, rp2pio.JmpAlways))
	c.sm.SetPinsConsecutive(c.pin, 1, false)
}
