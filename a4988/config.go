package a4988

import (
	"time"

	"steppulse/core"
)

// Motor and channel defaults
const (
	DefaultFullStepsPerRev = 400 // 0.9 degree motor
	DefaultPulseWidthUS    = 2   // A4988 minimum STEP high+low is 1us each
	DefaultResolutionHz    = core.TickResolutionHz
	DefaultMemSymbols      = 64
	DefaultQueueDepth      = 4
	DefaultSettleDelay     = time.Millisecond      // wake-up time after SLEEP goes high
	DefaultResetPulse      = 10 * time.Microsecond // RESET low hold
	DefaultDirection       = false
)

// Output levels of the control lines. ENABLE, SLEEP and RESET are active low.
const (
	levelEnabled   = false
	levelDisabled  = true
	levelAwake     = true
	levelAsleep    = false
	levelRunning   = true
	levelResetting = false
)

// Pins assigns a GPIO to every driver line
type Pins struct {
	Dir    core.GPIOPin `json:"dir"`
	Enable core.GPIOPin `json:"enable"`
	Sleep  core.GPIOPin `json:"sleep"`
	Reset  core.GPIOPin `json:"reset"`
	MS1    core.GPIOPin `json:"ms1"`
	MS2    core.GPIOPin `json:"ms2"`
	MS3    core.GPIOPin `json:"ms3"`
	Step   core.GPIOPin `json:"step"`
}

// outputs returns the discrete outputs the driver configures itself.
// Step is owned by the pulse channel.
func (p Pins) outputs() []core.GPIOPin {
	return []core.GPIOPin{p.Dir, p.MS1, p.MS2, p.MS3, p.Sleep, p.Enable, p.Reset}
}

// conflict reports whether two roles share a pin
func (p Pins) conflict() bool {
	all := append(p.outputs(), p.Step)
	seen := make(map[core.GPIOPin]bool, len(all))
	for _, pin := range all {
		if seen[pin] {
			return true
		}
		seen[pin] = true
	}
	return false
}

// MotorConfig is the fixed wiring and timing of one motor.
// Zero-valued numeric fields take the package defaults at Init.
type MotorConfig struct {
	Pins Pins

	FullStepsPerRev  uint32        // Full steps per output revolution
	PulseWidthUS     uint32        // Trigger pulse width, split across both halves
	ResolutionHz     uint32        // Pulse channel tick rate
	MemSymbols       uint16        // Longest waveform the channel accepts
	QueueDepth       uint8         // Channel transmit queue depth
	DefaultDirection bool          // DIR level after Init
	SettleDelay      time.Duration // Wait between wake/enable and the first step
	ResetPulse       time.Duration // RESET low time for ResetTranslator
}

// DefaultMotorConfig returns a config for pins with every default applied
func DefaultMotorConfig(pins Pins) MotorConfig {
	cfg := MotorConfig{Pins: pins, DefaultDirection: DefaultDirection}
	cfg.applyDefaults()
	return cfg
}

func (c *MotorConfig) applyDefaults() {
	if c.FullStepsPerRev == 0 {
		c.FullStepsPerRev = DefaultFullStepsPerRev
	}
	if c.PulseWidthUS == 0 {
		c.PulseWidthUS = DefaultPulseWidthUS
	}
	if c.ResolutionHz == 0 {
		c.ResolutionHz = DefaultResolutionHz
	}
	if c.MemSymbols == 0 {
		c.MemSymbols = DefaultMemSymbols
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.ResetPulse == 0 {
		c.ResetPulse = DefaultResetPulse
	}
}

// Validate checks a config with defaults applied
func (c MotorConfig) Validate() error {
	if c.Pins.conflict() {
		return ErrPinConflict
	}
	// Both trigger halves need at least one tick and must fit a segment,
	// and the trigger plus the minimum padding must fit the channel memory.
	trigger := c.Timing().TriggerTicks
	if trigger < 2 || trigger-trigger/2 > MaxSegmentTicks || c.MemSymbols < 1+MinPaddingSegments {
		return ErrInvalidConfig
	}
	return nil
}

// Timing derives the waveform parameters from the config
func (c MotorConfig) Timing() Timing {
	return Timing{
		ResolutionHz:    c.ResolutionHz,
		TriggerTicks:    core.TicksFromUS(c.PulseWidthUS, c.ResolutionHz),
		FullStepsPerRev: c.FullStepsPerRev,
		MaxSymbols:      int(c.MemSymbols),
	}
}

// Registry holds the wiring and the selected microstep mode of one motor.
// It is written by Init and SetStepMode only.
type Registry struct {
	config      MotorConfig
	mode        MicrostepMode
	initialized bool
}

// Config returns a copy of the registered motor config
func (r *Registry) Config() MotorConfig {
	return r.config
}

// StepMode returns the selected microstep mode
func (r *Registry) StepMode() MicrostepMode {
	return r.mode
}

// Initialized reports whether a config has been registered
func (r *Registry) Initialized() bool {
	return r.initialized
}
