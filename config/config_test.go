package config

import (
	"errors"
	"testing"
	"time"

	"steppulse/a4988"
	"steppulse/core"
)

func TestLoadConfig(t *testing.T) {
	data := []byte(`{
		"board": "bench",
		"debug": true,
		"motor": {
			"step_pin": "gpio10",
			"dir_pin": "gpio11",
			"enable_pin": "gpio12",
			"sleep_pin": "gpio13",
			"reset_pin": "gpio14",
			"ms1_pin": "gpio15",
			"ms2_pin": "gpio16",
			"ms3_pin": "gpio17",
			"full_steps_per_rev": 200,
			"settle_delay_us": 2000,
			"default_direction": true
		}
	}`)

	config, err := LoadConfig(data)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Board != "bench" || !config.Debug {
		t.Errorf("Board = %q, Debug = %v", config.Board, config.Debug)
	}
	if config.PulseBackend != BackendPIO {
		t.Errorf("PulseBackend = %q, want %q", config.PulseBackend, BackendPIO)
	}

	// Defaults fill the omitted fields only
	if config.Motor.FullStepsPerRev != 200 {
		t.Errorf("FullStepsPerRev = %d, want 200", config.Motor.FullStepsPerRev)
	}
	if config.Motor.PulseWidthUS != a4988.DefaultPulseWidthUS {
		t.Errorf("PulseWidthUS = %d, want default", config.Motor.PulseWidthUS)
	}
	if config.Motor.ResetPulseUS != 10 {
		t.Errorf("ResetPulseUS = %d, want 10", config.Motor.ResetPulseUS)
	}

	mc, err := config.DriverConfig()
	if err != nil {
		t.Fatalf("DriverConfig failed: %v", err)
	}
	want := a4988.Pins{Step: 10, Dir: 11, Enable: 12, Sleep: 13, Reset: 14, MS1: 15, MS2: 16, MS3: 17}
	if mc.Pins != want {
		t.Errorf("Pins = %+v, want %+v", mc.Pins, want)
	}
	if mc.SettleDelay != 2*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 2ms", mc.SettleDelay)
	}
	if mc.ResolutionHz != core.TickResolutionHz || !mc.DefaultDirection {
		t.Errorf("MotorConfig = %+v", mc)
	}
	if err := mc.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"board": `)); err == nil {
		t.Error("Expected error for truncated JSON")
	}
}

func TestLoadConfigGPIOBackend(t *testing.T) {
	config, err := LoadConfig([]byte(`{"pulse_backend": "gpio"}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.PulseBackend != BackendGPIO || config.Board != "generic" {
		t.Errorf("config = %+v", config)
	}
}

func TestDriverConfigBadPin(t *testing.T) {
	config := DefaultBoardConfig()
	config.Motor.MS2Pin = "pa3"

	_, err := config.DriverConfig()
	if !errors.Is(err, core.ErrUnknownPin) {
		t.Fatalf("error = %v, want ErrUnknownPin", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "motor.ms2_pin" {
		t.Errorf("error does not name the field: %v", err)
	}
}

func TestDefaultBoardConfig(t *testing.T) {
	config := DefaultBoardConfig()
	mc, err := config.DriverConfig()
	if err != nil {
		t.Fatalf("DriverConfig failed: %v", err)
	}
	if err := mc.Validate(); err != nil {
		t.Errorf("Default board does not validate: %v", err)
	}
	if mc.Pins.Step != 2 || mc.FullStepsPerRev != a4988.DefaultFullStepsPerRev {
		t.Errorf("MotorConfig = %+v", mc)
	}
	if mc.SettleDelay != a4988.DefaultSettleDelay || mc.ResetPulse != a4988.DefaultResetPulse {
		t.Errorf("Delays = %v, %v", mc.SettleDelay, mc.ResetPulse)
	}
}
