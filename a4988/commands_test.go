package a4988

import (
	"strings"
	"testing"

	"steppulse/core"
)

func newTestConsole(t *testing.T) (*testRig, *core.Console, *[]string) {
	t.Helper()
	rig, err := newInitializedRig()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	reg := core.NewCommandRegistry()
	core.RegisterCoreCommands(reg)
	rig.driver.RegisterCommands(reg)

	var lines []string
	console := core.NewConsole(reg, func(line string) {
		lines = append(lines, line)
	})
	return rig, console, &lines
}

func run(t *testing.T, c *core.Console, lines *[]string, cmd string) []string {
	t.Helper()
	*lines = nil
	c.ProcessLine(cmd)
	return *lines
}

func TestCommandRotateAndStatus(t *testing.T) {
	rig, c, lines := newTestConsole(t)

	if got := run(t, c, lines, "a4988_rotate omega=10 dir=1"); len(got) != 1 || got[0] != "ok" {
		t.Fatalf("rotate replied %v", got)
	}
	if rig.driver.State() != StateDriving {
		t.Fatalf("state = %v, want driving", rig.driver.State())
	}

	got := run(t, c, lines, "a4988_status")
	want := []string{"a4988_state state=driving microsteps=1 dir=1 omega=10 period=1570", "ok"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("status replied %v, want %v", got, want)
	}

	if got := run(t, c, lines, "a4988_stop"); len(got) != 1 || got[0] != "ok" {
		t.Errorf("stop replied %v", got)
	}
	got = run(t, c, lines, "a4988_status")
	if got[0] != "a4988_state state=idle microsteps=1 dir=1 omega=0 period=0" {
		t.Errorf("status after stop = %q", got[0])
	}
}

func TestCommandStepMode(t *testing.T) {
	rig, c, lines := newTestConsole(t)

	if got := run(t, c, lines, "a4988_set_step_mode microsteps=16"); got[len(got)-1] != "ok" {
		t.Fatalf("set_step_mode replied %v", got)
	}
	if rig.driver.StepMode() != StepModeSixteenth {
		t.Errorf("mode = %v, want sixteenth", rig.driver.StepMode())
	}

	got := run(t, c, lines, "a4988_get_step_mode")
	if len(got) != 2 || got[0] != "a4988_step_mode microsteps=16" {
		t.Errorf("get_step_mode replied %v", got)
	}

	got = run(t, c, lines, "a4988_set_step_mode microsteps=3")
	if len(got) != 1 || got[0] != `error msg="a4988: invalid microstep mode"` {
		t.Errorf("bad microsteps replied %v", got)
	}
	if rig.driver.StepMode() != StepModeSixteenth {
		t.Error("rejected command changed the mode")
	}
}

func TestCommandErrors(t *testing.T) {
	rig, c, lines := newTestConsole(t)

	tests := []struct {
		cmd  string
		want string
	}{
		{"a4988_rotate omega=10", `error msg="missing argument: dir"`},
		{"a4988_rotate omega=fast dir=1", `error msg="malformed argument: omega"`},
		{"a4988_rotate omega=10 dir=2", `error msg="malformed argument: dir"`},
		{"a4988_rotate omega=10 dir=1 speed=3", `error msg="unknown argument: speed"`},
		{"a4988_rotate omega=0 dir=1", `error msg="a4988: angular velocity must be finite and positive"`},
		{"a4988_state", `error msg="not a command: a4988_state"`},
		{"a4988_spin", `error msg="unknown command: a4988_spin"`},
	}

	for _, tt := range tests {
		got := run(t, c, lines, tt.cmd)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("%q replied %v, want %q", tt.cmd, got, tt.want)
		}
	}
	if rig.driver.State() != StateIdle {
		t.Error("failed commands started the motor")
	}
}

func TestCommandReset(t *testing.T) {
	rig, c, lines := newTestConsole(t)

	if got := run(t, c, lines, "a4988_reset"); got[0] != "ok" {
		t.Errorf("reset replied %v", got)
	}
	if !rig.gpio.levels[testPins.Reset] {
		t.Error("reset line left low")
	}

	run(t, c, lines, "a4988_rotate omega=1 dir=0")
	got := run(t, c, lines, "a4988_reset")
	if !strings.HasPrefix(got[0], "error ") {
		t.Errorf("reset while driving replied %v", got)
	}
}

func TestCommandDictionary(t *testing.T) {
	_, c, lines := newTestConsole(t)

	got := run(t, c, lines, "identify")
	if got[len(got)-1] != "ok" {
		t.Fatalf("identify replied %v", got)
	}

	want := []string{
		`identify_response data="a4988_rotate omega=%f dir=%c"`,
		`identify_response data="response a4988_state state=%s microsteps=%c dir=%c omega=%f period=%u"`,
		`identify_response data=a4988_stop`,
		`identify_response data="constant CLOCK_FREQ=1000000"`,
		`identify_response data="constant FULL_STEPS_PER_REV=400"`,
		`identify_response data="constant PULSE_WIDTH_US=2"`,
	}
	for _, w := range want {
		found := false
		for _, line := range got {
			if line == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("identify missing %q", w)
		}
	}
}
