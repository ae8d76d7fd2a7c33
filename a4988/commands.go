package a4988

import (
	"steppulse/core"
)

// RegisterCommands exposes the driver on a console registry.
// Call after Init so the motor constants are reported.
func (d *Driver) RegisterCommands(r *core.CommandRegistry) {
	r.Register("a4988_rotate", "omega=%f dir=%c", d.handleRotate)
	r.Register("a4988_set_step_mode", "microsteps=%c", d.handleSetStepMode)
	r.Register("a4988_get_step_mode", "", d.handleGetStepMode)
	r.Register("a4988_stop", "", d.handleStop)
	r.Register("a4988_reset", "", d.handleReset)
	r.Register("a4988_status", "", d.handleStatus)

	// Responses
	r.Register("a4988_step_mode", "microsteps=%c", nil)
	r.Register("a4988_state", "state=%s microsteps=%c dir=%c omega=%f period=%u", nil)

	if d.registry.initialized {
		cfg := d.registry.config
		r.AddConstant("CLOCK_FREQ", cfg.ResolutionHz)
		r.AddConstant("FULL_STEPS_PER_REV", cfg.FullStepsPerRev)
		r.AddConstant("PULSE_WIDTH_US", cfg.PulseWidthUS)
	}
}

// handleRotate starts continuous rotation
// Format: a4988_rotate omega=%f dir=%c
func (d *Driver) handleRotate(args core.Args, reply core.Reply) error {
	omega, err := args.Float("omega")
	if err != nil {
		return err
	}
	dir, err := args.Bool("dir")
	if err != nil {
		return err
	}
	return d.RotateContinuous(omega, dir)
}

// handleSetStepMode selects the microstep resolution
// Format: a4988_set_step_mode microsteps=%c
func (d *Driver) handleSetStepMode(args core.Args, reply core.Reply) error {
	microsteps, err := args.Uint("microsteps")
	if err != nil {
		return err
	}
	mode, err := StepModeFromMultiplier(microsteps)
	if err != nil {
		return err
	}
	return d.SetStepMode(mode)
}

// handleGetStepMode replies a4988_step_mode microsteps=%c
func (d *Driver) handleGetStepMode(args core.Args, reply core.Reply) error {
	reply.Send("a4988_step_mode", core.F("microsteps", d.StepMode().Multiplier()))
	return nil
}

func (d *Driver) handleStop(args core.Args, reply core.Reply) error {
	return d.Stop()
}

func (d *Driver) handleReset(args core.Args, reply core.Reply) error {
	return d.ResetTranslator()
}

// handleStatus replies a4988_state with a Status snapshot
func (d *Driver) handleStatus(args core.Args, reply core.Reply) error {
	st := d.Status()
	reply.Send("a4988_state",
		core.F("state", st.State.String()),
		core.F("microsteps", st.Mode.Multiplier()),
		core.F("dir", st.Direction),
		core.F("omega", st.Omega),
		core.F("period", st.PeriodTicks))
	return nil
}
