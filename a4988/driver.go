package a4988

import (
	"steppulse/core"
)

// State of the driver state machine
type State uint8

const (
	StateIdle State = iota
	StateDriving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDriving:
		return "driving"
	default:
		return "unknown"
	}
}

// Fault op codes recorded in the event ring
const (
	opConfigure = iota + 1
	opSetPin
	opOpen
	opEnable
	opDisable
	opTransmit
)

// Status is a snapshot of the driver
type Status struct {
	State       State
	Mode        MicrostepMode
	Direction   bool
	Omega       float64 // Last requested angular velocity (rad/s)
	PeriodTicks uint32  // Step period of the replaying waveform
}

// Driver runs one A4988 through a GPIO driver and a pulse channel.
// A Driver is not safe for concurrent use; call it from one task.
type Driver struct {
	gpio    core.GPIODriver
	pulses  core.PulseDriver
	sleeper core.Sleeper

	registry Registry
	timing   Timing

	channel        core.PulseChannel
	channelEnabled bool

	// Set from the wake write until Stop parks the chip again
	outputsArmed bool

	state     State
	direction bool
	omega     float64
	waveform  Waveform
}

// Option configures a Driver
type Option func(*Driver)

// WithSleeper replaces the cooperative delay used for the settle and reset waits
func WithSleeper(s core.Sleeper) Option {
	return func(d *Driver) {
		d.sleeper = s
	}
}

// NewDriver creates an uninitialized driver
func NewDriver(gpio core.GPIODriver, pulses core.PulseDriver, opts ...Option) *Driver {
	d := &Driver{
		gpio:    gpio,
		pulses:  pulses,
		sleeper: core.SystemSleeper,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init configures every control line, parks the driver chip (asleep,
// disabled, out of reset, full step) and opens the pulse channel on the
// step pin. Init succeeds once per Driver.
func (d *Driver) Init(cfg MotorConfig) error {
	if d.registry.initialized {
		return ErrAlreadyInitialized
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	pins := cfg.Pins
	if err := d.gpio.ConfigureOutputs(pins.outputs()); err != nil {
		return d.fault("configure_outputs", opConfigure, pins.Dir, err)
	}

	levels := []struct {
		role  string
		pin   core.GPIOPin
		level bool
	}{
		{"dir", pins.Dir, cfg.DefaultDirection},
		{"sleep", pins.Sleep, levelAsleep},
		{"reset", pins.Reset, levelRunning},
		{"enable", pins.Enable, levelDisabled},
		{"ms1", pins.MS1, false},
		{"ms2", pins.MS2, false},
		{"ms3", pins.MS3, false},
	}
	for _, l := range levels {
		if err := d.setPin(l.role, l.pin, l.level); err != nil {
			return err
		}
	}

	ch, err := d.pulses.Open(core.PulseChannelConfig{
		Pin:          pins.Step,
		ResolutionHz: cfg.ResolutionHz,
		MemSymbols:   cfg.MemSymbols,
		QueueDepth:   cfg.QueueDepth,
	})
	if err != nil {
		return d.fault("open", opOpen, pins.Step, err)
	}

	d.channel = ch
	d.timing = cfg.Timing()
	d.registry = Registry{config: cfg, mode: StepModeFull, initialized: true}
	d.state = StateIdle
	d.direction = cfg.DefaultDirection

	core.RecordEvent(core.EvtInit, uint32(pins.Step), cfg.ResolutionHz)
	core.DebugPrintln("[A4988] " + core.FormatResponse("init",
		core.F("step", core.PinName(pins.Step)),
		core.F("resolution", cfg.ResolutionHz),
		core.F("steps_per_rev", cfg.FullStepsPerRev)))
	return nil
}

// SetStepMode drives MS1..MS3 for mode and records it. The replaying
// waveform keeps its timing until the next RotateContinuous.
func (d *Driver) SetStepMode(mode MicrostepMode) error {
	if !d.registry.initialized {
		return ErrNotInitialized
	}
	if !mode.Valid() {
		return ErrInvalidMode
	}

	pins := d.registry.config.Pins
	ms1, ms2, ms3 := mode.Logic()
	if err := d.setPin("ms1", pins.MS1, ms1); err != nil {
		return err
	}
	if err := d.setPin("ms2", pins.MS2, ms2); err != nil {
		return err
	}
	if err := d.setPin("ms3", pins.MS3, ms3); err != nil {
		return err
	}

	d.registry.mode = mode
	core.RecordEvent(core.EvtStepMode, mode.Multiplier(), uint32(mode.LogicBits()))
	core.DebugPrintln("[A4988] " + core.FormatResponse("step_mode", core.F("microsteps", mode.Multiplier())))
	return nil
}

// StepMode returns the selected microstep mode
func (d *Driver) StepMode() MicrostepMode {
	return d.registry.mode
}

// RotateContinuous spins the motor at omega rad/s until Stop.
//
// The waveform is computed before any output changes, so a rejected speed
// leaves the motor as it was. A running channel is disabled and re-armed.
// Sequence: DIR, wake, enable, settle delay, enable channel, transmit.
func (d *Driver) RotateContinuous(omega float64, direction bool) error {
	if !d.registry.initialized {
		return ErrNotInitialized
	}

	w, err := NewWaveform(omega, d.registry.mode, d.timing)
	if err != nil {
		return err
	}

	if d.channelEnabled {
		if err := d.disableChannel(); err != nil {
			return err
		}
	}

	pins := d.registry.config.Pins
	if err := d.setPin("dir", pins.Dir, direction); err != nil {
		return err
	}
	d.outputsArmed = true
	if err := d.setPin("sleep", pins.Sleep, levelAwake); err != nil {
		return err
	}
	if err := d.setPin("enable", pins.Enable, levelEnabled); err != nil {
		return err
	}

	d.sleeper.Sleep(d.registry.config.SettleDelay)

	if err := d.channel.Enable(); err != nil {
		return d.fault("enable", opEnable, pins.Step, err)
	}
	d.channelEnabled = true

	if err := d.channel.Transmit(w.Symbols, core.LoopForever); err != nil {
		return d.fault("transmit", opTransmit, pins.Step, err)
	}

	d.state = StateDriving
	d.direction = direction
	d.omega = omega
	d.waveform = w

	core.RecordEvent(core.EvtRotate, w.PeriodTicks, boolToU32(direction))
	core.DebugPrintln("[A4988] " + core.FormatResponse("rotate",
		core.F("omega", omega),
		core.F("dir", direction),
		core.F("period", w.PeriodTicks),
		core.F("symbols", len(w.Symbols))))
	return nil
}

// Stop halts the pulse channel, disables the outputs and puts the chip
// to sleep. Stop on a parked driver does nothing; after a faulted rotate
// it still parks the chip.
func (d *Driver) Stop() error {
	if !d.registry.initialized {
		return ErrNotInitialized
	}
	if d.state == StateIdle && !d.channelEnabled && !d.outputsArmed {
		return nil
	}

	if d.channelEnabled {
		if err := d.disableChannel(); err != nil {
			return err
		}
	}
	d.state = StateIdle

	pins := d.registry.config.Pins
	if err := d.setPin("enable", pins.Enable, levelDisabled); err != nil {
		return err
	}
	if err := d.setPin("sleep", pins.Sleep, levelAsleep); err != nil {
		return err
	}
	d.outputsArmed = false

	core.RecordEvent(core.EvtStop, 0, 0)
	core.DebugPrintln("[A4988] stop")
	return nil
}

// ResetTranslator pulses RESET low, returning the chip's translator to its
// home position. Only allowed while stopped.
func (d *Driver) ResetTranslator() error {
	if !d.registry.initialized {
		return ErrNotInitialized
	}
	if d.state != StateIdle {
		return ErrNotIdle
	}

	pins := d.registry.config.Pins
	if err := d.setPin("reset", pins.Reset, levelResetting); err != nil {
		return err
	}
	d.sleeper.Sleep(d.registry.config.ResetPulse)
	if err := d.setPin("reset", pins.Reset, levelRunning); err != nil {
		return err
	}

	core.RecordEvent(core.EvtReset, 0, 0)
	core.DebugPrintln("[A4988] reset")
	return nil
}

// State returns Idle or Driving
func (d *Driver) State() State {
	return d.state
}

// Waveform returns the waveform most recently submitted
func (d *Driver) Waveform() Waveform {
	return d.waveform
}

// Registry returns the motor configuration registry
func (d *Driver) Registry() *Registry {
	return &d.registry
}

// Status returns a snapshot of the driver
func (d *Driver) Status() Status {
	st := Status{
		State:     d.state,
		Mode:      d.registry.mode,
		Direction: d.direction,
	}
	if d.state == StateDriving {
		st.Omega = d.omega
		st.PeriodTicks = d.waveform.PeriodTicks
	}
	return st
}

func (d *Driver) disableChannel() error {
	if err := d.channel.Disable(); err != nil {
		return d.fault("disable", opDisable, d.registry.config.Pins.Step, err)
	}
	d.channelEnabled = false
	d.state = StateIdle
	return nil
}

func (d *Driver) setPin(role string, pin core.GPIOPin, level bool) error {
	if err := d.gpio.SetPin(pin, level); err != nil {
		return d.fault("set_pin "+role, opSetPin, pin, err)
	}
	return nil
}

func (d *Driver) fault(op string, code uint32, pin core.GPIOPin, err error) error {
	hf := &HardwareFault{Op: op, Pin: pin, Err: err}
	core.RecordEvent(core.EvtFault, uint32(pin), code)
	core.DebugPrintln("[A4988] " + hf.Error())
	return hf
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
