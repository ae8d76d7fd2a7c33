package config

import (
	"encoding/json"
	"time"

	"steppulse/a4988"
	"steppulse/core"
)

// BoardConfig describes one board: its name, the A4988 wiring and the
// motor constants
type BoardConfig struct {
	Board string      `json:"board"`
	Debug bool        `json:"debug"`
	Motor MotorConfig `json:"motor"`

	// PulseBackend selects the step waveform player: "pio" or "gpio"
	PulseBackend string `json:"pulse_backend"`
}

// Pulse backends a board may select
const (
	BackendPIO  = "pio"
	BackendGPIO = "gpio"
)

// MotorConfig is the JSON form of a4988.MotorConfig. Pins are named
// ("gpio12") and durations are in microseconds.
type MotorConfig struct {
	StepPin   string `json:"step_pin"`
	DirPin    string `json:"dir_pin"`
	EnablePin string `json:"enable_pin"`
	SleepPin  string `json:"sleep_pin"`
	ResetPin  string `json:"reset_pin"`
	MS1Pin    string `json:"ms1_pin"`
	MS2Pin    string `json:"ms2_pin"`
	MS3Pin    string `json:"ms3_pin"`

	FullStepsPerRev  uint32 `json:"full_steps_per_rev"`
	PulseWidthUS     uint32 `json:"pulse_width_us"`
	MemSymbols       uint16 `json:"mem_symbols"`
	QueueDepth       uint8  `json:"queue_depth"`
	SettleDelayUS    uint32 `json:"settle_delay_us"`
	ResetPulseUS     uint32 `json:"reset_pulse_us"`
	DefaultDirection bool   `json:"default_direction"`
}

// LoadConfig parses a JSON configuration string and returns a BoardConfig
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	if config.Board == "" {
		config.Board = "generic"
	}
	if config.PulseBackend == "" {
		config.PulseBackend = BackendPIO
	}

	m := &config.Motor
	if m.FullStepsPerRev == 0 {
		m.FullStepsPerRev = a4988.DefaultFullStepsPerRev
	}
	if m.PulseWidthUS == 0 {
		m.PulseWidthUS = a4988.DefaultPulseWidthUS
	}
	if m.MemSymbols == 0 {
		m.MemSymbols = a4988.DefaultMemSymbols
	}
	if m.QueueDepth == 0 {
		m.QueueDepth = a4988.DefaultQueueDepth
	}
	if m.SettleDelayUS == 0 {
		m.SettleDelayUS = uint32(a4988.DefaultSettleDelay / time.Microsecond)
	}
	if m.ResetPulseUS == 0 {
		m.ResetPulseUS = uint32(a4988.DefaultResetPulse / time.Microsecond)
	}
}

// DefaultBoardConfig returns the wiring of the reference Pico carrier board
func DefaultBoardConfig() *BoardConfig {
	config := &BoardConfig{
		Board: "pico-a4988",
		Motor: MotorConfig{
			StepPin:   "gpio2",
			DirPin:    "gpio3",
			EnablePin: "gpio4",
			SleepPin:  "gpio5",
			ResetPin:  "gpio6",
			MS1Pin:    "gpio7",
			MS2Pin:    "gpio8",
			MS3Pin:    "gpio9",
		},
	}
	applyDefaults(config)
	return config
}

// FieldError reports which config field failed to convert
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "config: " + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// DriverConfig resolves pin names and converts the motor section to the
// form a4988.Driver.Init takes
func (c *BoardConfig) DriverConfig() (a4988.MotorConfig, error) {
	m := c.Motor

	var pins a4988.Pins
	roles := []struct {
		field string
		name  string
		pin   *core.GPIOPin
	}{
		{"motor.step_pin", m.StepPin, &pins.Step},
		{"motor.dir_pin", m.DirPin, &pins.Dir},
		{"motor.enable_pin", m.EnablePin, &pins.Enable},
		{"motor.sleep_pin", m.SleepPin, &pins.Sleep},
		{"motor.reset_pin", m.ResetPin, &pins.Reset},
		{"motor.ms1_pin", m.MS1Pin, &pins.MS1},
		{"motor.ms2_pin", m.MS2Pin, &pins.MS2},
		{"motor.ms3_pin", m.MS3Pin, &pins.MS3},
	}
	for _, r := range roles {
		pin, err := core.LookupPin(r.name)
		if err != nil {
			return a4988.MotorConfig{}, &FieldError{Field: r.field, Err: err}
		}
		*r.pin = pin
	}

	return a4988.MotorConfig{
		Pins:             pins,
		FullStepsPerRev:  m.FullStepsPerRev,
		PulseWidthUS:     m.PulseWidthUS,
		ResolutionHz:     core.TickResolutionHz,
		MemSymbols:       m.MemSymbols,
		QueueDepth:       m.QueueDepth,
		DefaultDirection: m.DefaultDirection,
		SettleDelay:      time.Duration(m.SettleDelayUS) * time.Microsecond,
		ResetPulse:       time.Duration(m.ResetPulseUS) * time.Microsecond,
	}, nil
}
