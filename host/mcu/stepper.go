package mcu

import (
	"fmt"
	"strconv"
)

// Status is the host view of an a4988_state reply
type Status struct {
	State       string
	Microsteps  int
	Direction   bool
	Omega       float64
	PeriodTicks uint32
}

// Event is one entry of the firmware event ring
type Event struct {
	Name   string
	Seq    uint32
	Value1 uint32
	Value2 uint32
}

// Rotate starts continuous rotation at omega rad/s
func (m *MCU) Rotate(omega float64, clockwise bool) error {
	_, err := m.Send(fmt.Sprintf("a4988_rotate omega=%s dir=%s",
		strconv.FormatFloat(omega, 'g', -1, 64), boolArg(clockwise)))
	return err
}

// Stop halts the step output
func (m *MCU) Stop() error {
	_, err := m.Send("a4988_stop")
	return err
}

// Reset pulses the translator reset line
func (m *MCU) Reset() error {
	_, err := m.Send("a4988_reset")
	return err
}

// SetMicrosteps selects a step mode by its multiplier (1, 2, 4, 8 or 16)
func (m *MCU) SetMicrosteps(multiplier int) error {
	_, err := m.Send("a4988_set_step_mode microsteps=" + strconv.Itoa(multiplier))
	return err
}

// Microsteps reads back the active step mode multiplier
func (m *MCU) Microsteps() (int, error) {
	resp, err := m.expect("a4988_get_step_mode", "a4988_step_mode")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(resp.Params["microsteps"])
}

// Status queries the driver state
func (m *MCU) Status() (*Status, error) {
	resp, err := m.expect("a4988_status", "a4988_state")
	if err != nil {
		return nil, err
	}

	st := &Status{State: resp.Params["state"]}
	if st.Microsteps, err = strconv.Atoi(resp.Params["microsteps"]); err != nil {
		return nil, fmt.Errorf("a4988_state microsteps: %w", err)
	}
	if st.Direction, err = strconv.ParseBool(resp.Params["dir"]); err != nil {
		return nil, fmt.Errorf("a4988_state dir: %w", err)
	}
	if st.Omega, err = strconv.ParseFloat(resp.Params["omega"], 64); err != nil {
		return nil, fmt.Errorf("a4988_state omega: %w", err)
	}
	period, err := strconv.ParseUint(resp.Params["period"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("a4988_state period: %w", err)
	}
	st.PeriodTicks = uint32(period)
	return st, nil
}

// SetDebug toggles firmware debug output
func (m *MCU) SetDebug(enable bool) error {
	_, err := m.Send("set_debug enable=" + boolArg(enable))
	return err
}

// Events fetches the firmware event ring, oldest first
func (m *MCU) Events() ([]Event, error) {
	responses, err := m.Send("dump_events")
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, resp := range responses {
		if resp.Name != "event" {
			continue
		}
		evt := Event{Name: resp.Params["name"]}
		evt.Seq = parseU32(resp.Params["seq"])
		evt.Value1 = parseU32(resp.Params["v1"])
		evt.Value2 = parseU32(resp.Params["v2"])
		events = append(events, evt)
	}
	return events, nil
}

// expect sends command and returns its single reply named want
func (m *MCU) expect(command, want string) (Response, error) {
	responses, err := m.Send(command)
	if err != nil {
		return Response{}, err
	}
	for _, resp := range responses {
		if resp.Name == want {
			return resp, nil
		}
	}
	return Response{}, fmt.Errorf("%s: no %s in reply", command, want)
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseU32(s string) uint32 {
	v, _ := strconv.ParseUint(s, 10, 32)
	return uint32(v)
}
