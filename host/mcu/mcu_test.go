package mcu

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// fakePort answers each written command line from a script
type fakePort struct {
	replies map[string]string
	written []string
	out     bytes.Buffer
	closed  bool
}

func newFakePort(replies map[string]string) *fakePort {
	return &fakePort{replies: replies}
}

func (p *fakePort) Write(b []byte) (int, error) {
	line := strings.TrimSuffix(string(b), "\n")
	p.written = append(p.written, line)
	p.out.WriteString(p.replies[line])
	return len(b), nil
}

// Read hands out at most 5 bytes per call to exercise line reassembly
func (p *fakePort) Read(b []byte) (int, error) {
	if p.out.Len() == 0 {
		return 0, io.EOF
	}
	if len(b) > 5 {
		b = b[:5]
	}
	return p.out.Read(b)
}

func (p *fakePort) Flush() error { return nil }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func attached(replies map[string]string) (*MCU, *fakePort) {
	port := newFakePort(replies)
	m := NewMCU()
	m.ResponseTimeout = 50 * time.Millisecond
	m.Attach(port)
	return m, port
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse(`identify_response data="a4988_rotate omega=%f dir=%c"`)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if resp.Name != "identify_response" {
		t.Errorf("Name = %q", resp.Name)
	}
	if got := resp.Params["data"]; got != "a4988_rotate omega=%f dir=%c" {
		t.Errorf("data = %q", got)
	}

	if _, err := ParseResponse("status bogus"); err == nil {
		t.Error("expected error for field without '='")
	}
	if _, err := ParseResponse("   "); err == nil {
		t.Error("expected error for empty line")
	}
}

func TestSendCollectsResponses(t *testing.T) {
	m, port := attached(map[string]string{
		"a4988_status": "# polled\r\na4988_state state=idle microsteps=1 dir=0 omega=0 period=0\r\nok\r\n",
	})

	var debug []string
	m.OnDebug = func(line string) { debug = append(debug, line) }

	responses, err := m.Send("a4988_status")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(responses) != 1 || responses[0].Name != "a4988_state" {
		t.Fatalf("responses = %+v", responses)
	}
	if responses[0].Params["state"] != "idle" {
		t.Errorf("state = %q", responses[0].Params["state"])
	}
	if len(debug) != 1 || debug[0] != "polled" {
		t.Errorf("debug lines = %q", debug)
	}
	if len(port.written) != 1 || port.written[0] != "a4988_status" {
		t.Errorf("written = %q", port.written)
	}
}

func TestSendCommandError(t *testing.T) {
	m, _ := attached(map[string]string{
		"a4988_rotate omega=0 dir=1": "error msg=\"a4988: angular velocity must be finite and positive\"\n",
	})

	err := m.Rotate(0, true)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if cmdErr.Command != "a4988_rotate" {
		t.Errorf("Command = %q", cmdErr.Command)
	}
	if cmdErr.Msg != "a4988: angular velocity must be finite and positive" {
		t.Errorf("Msg = %q", cmdErr.Msg)
	}
}

func TestSendTimeout(t *testing.T) {
	m, _ := attached(map[string]string{"a4988_stop": "a4988_state state=idle\n"})

	_, err := m.Send("a4988_stop")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestSendNotConnected(t *testing.T) {
	m := NewMCU()
	if _, err := m.Send("identify"); err == nil {
		t.Error("expected error when not connected")
	}
}

func TestRetrieveDictionary(t *testing.T) {
	m, _ := attached(map[string]string{
		"identify": "identify_response data=identify\n" +
			"identify_response data=\"a4988_rotate omega=%f dir=%c\"\n" +
			"identify_response data=a4988_stop\n" +
			"identify_response data=\"response a4988_step_mode microsteps=%c\"\n" +
			"identify_response data=\"constant CLOCK_FREQ=1000000\"\n" +
			"ok\n",
	})

	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	dict := m.GetDictionary()

	if got := dict.Commands["a4988_rotate"]; got != "omega=%f dir=%c" {
		t.Errorf("a4988_rotate format = %q", got)
	}
	if _, ok := dict.Commands["a4988_stop"]; !ok {
		t.Error("a4988_stop missing from commands")
	}
	if got := dict.Responses["a4988_step_mode"]; got != "microsteps=%c" {
		t.Errorf("a4988_step_mode format = %q", got)
	}
	if _, ok := dict.Commands["a4988_step_mode"]; ok {
		t.Error("response listed as command")
	}
	if got := dict.Config["CLOCK_FREQ"]; got != "1000000" {
		t.Errorf("CLOCK_FREQ = %q", got)
	}

	var out bytes.Buffer
	m.PrintDictionary(&out)
	if !strings.Contains(out.String(), "CLOCK_FREQ = 1000000") {
		t.Errorf("PrintDictionary output missing constant:\n%s", out.String())
	}
}

func TestStatus(t *testing.T) {
	m, _ := attached(map[string]string{
		"a4988_status": "a4988_state state=driving microsteps=8 dir=1 omega=1 period=1963\nok\n",
	})

	st, err := m.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	want := Status{State: "driving", Microsteps: 8, Direction: true, Omega: 1, PeriodTicks: 1963}
	if *st != want {
		t.Errorf("Status = %+v, want %+v", *st, want)
	}
}

func TestStepperCommandLines(t *testing.T) {
	m, port := attached(map[string]string{
		"a4988_rotate omega=12.5 dir=0":     "ok\n",
		"a4988_set_step_mode microsteps=16": "ok\n",
		"a4988_get_step_mode":               "a4988_step_mode microsteps=16\nok\n",
		"a4988_stop":                        "ok\n",
		"a4988_reset":                       "ok\n",
		"set_debug enable=1":                "ok\n",
	})

	if err := m.Rotate(12.5, false); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if err := m.SetMicrosteps(16); err != nil {
		t.Fatalf("SetMicrosteps failed: %v", err)
	}
	mult, err := m.Microsteps()
	if err != nil || mult != 16 {
		t.Errorf("Microsteps = %d, %v", mult, err)
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := m.Reset(); err != nil {
		t.Errorf("Reset failed: %v", err)
	}
	if err := m.SetDebug(true); err != nil {
		t.Errorf("SetDebug failed: %v", err)
	}
	if len(port.written) != 6 {
		t.Errorf("expected 6 command lines, got %q", port.written)
	}
}

func TestEvents(t *testing.T) {
	m, _ := attached(map[string]string{
		"dump_events": "event name=FAULT! seq=1 v1=3 v2=2\nevent name=STEP seq=2 v1=0 v2=0\nok\n",
	})

	events, err := m.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0] != (Event{Name: "FAULT!", Seq: 1, Value1: 3, Value2: 2}) {
		t.Errorf("events[0] = %+v", events[0])
	}
}

func TestClose(t *testing.T) {
	m, port := attached(nil)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !port.closed || m.IsConnected() {
		t.Error("port should be closed and MCU disconnected")
	}
}
