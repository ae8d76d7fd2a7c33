package a4988

import (
	"errors"
	"time"

	"steppulse/core"
)

// callLog records collaborator calls in order across all mocks
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) {
	l.calls = append(l.calls, call)
}

func (l *callLog) reset() {
	l.calls = nil
}

// mockGPIO is a test implementation of core.GPIODriver
type mockGPIO struct {
	log        *callLog
	configured map[core.GPIOPin]bool
	levels     map[core.GPIOPin]bool

	failConfigure error
	failPin       map[core.GPIOPin]error
}

func newMockGPIO(log *callLog) *mockGPIO {
	return &mockGPIO{
		log:        log,
		configured: make(map[core.GPIOPin]bool),
		levels:     make(map[core.GPIOPin]bool),
		failPin:    make(map[core.GPIOPin]error),
	}
}

func (m *mockGPIO) ConfigureOutputs(pins []core.GPIOPin) error {
	m.log.add("configure")
	if m.failConfigure != nil {
		return m.failConfigure
	}
	for _, p := range pins {
		m.configured[p] = true
	}
	return nil
}

func (m *mockGPIO) SetPin(pin core.GPIOPin, value bool) error {
	if err := m.failPin[pin]; err != nil {
		return err
	}
	if !m.configured[pin] {
		return errors.New("pin not configured")
	}
	m.levels[pin] = value
	if value {
		m.log.add(core.PinName(pin) + "=1")
	} else {
		m.log.add(core.PinName(pin) + "=0")
	}
	return nil
}

// mockChannel behaves like an RMT channel: enable and disable fail when
// called in the wrong state
type mockChannel struct {
	log       *callLog
	enabled   bool
	symbols   []core.Symbol
	loopCount int
	transmits int

	failEnable   error
	failDisable  error
	failTransmit error
}

func (c *mockChannel) Enable() error {
	c.log.add("enable")
	if c.failEnable != nil {
		return c.failEnable
	}
	if c.enabled {
		return errors.New("channel already enabled")
	}
	c.enabled = true
	return nil
}

func (c *mockChannel) Disable() error {
	c.log.add("disable")
	if c.failDisable != nil {
		return c.failDisable
	}
	if !c.enabled {
		return errors.New("channel not enabled")
	}
	c.enabled = false
	return nil
}

func (c *mockChannel) Transmit(symbols []core.Symbol, loopCount int) error {
	c.log.add("transmit")
	if c.failTransmit != nil {
		return c.failTransmit
	}
	if !c.enabled {
		return errors.New("channel not enabled")
	}
	c.symbols = append([]core.Symbol(nil), symbols...)
	c.loopCount = loopCount
	c.transmits++
	return nil
}

type mockPulses struct {
	ch       *mockChannel
	cfg      core.PulseChannelConfig
	opens    int
	failOpen error
}

func (p *mockPulses) Open(cfg core.PulseChannelConfig) (core.PulseChannel, error) {
	if p.failOpen != nil {
		return nil, p.failOpen
	}
	p.opens++
	p.cfg = cfg
	return p.ch, nil
}

type fakeSleeper struct {
	log    *callLog
	sleeps []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	s.log.add("sleep " + d.String())
	s.sleeps = append(s.sleeps, d)
}

var testPins = Pins{
	Dir:    1,
	Enable: 2,
	Sleep:  3,
	Reset:  4,
	MS1:    5,
	MS2:    6,
	MS3:    7,
	Step:   8,
}

type testRig struct {
	log     *callLog
	gpio    *mockGPIO
	ch      *mockChannel
	pulses  *mockPulses
	sleeper *fakeSleeper
	driver  *Driver
}

func newTestRig() *testRig {
	log := &callLog{}
	ch := &mockChannel{log: log}
	rig := &testRig{
		log:     log,
		gpio:    newMockGPIO(log),
		ch:      ch,
		pulses:  &mockPulses{ch: ch},
		sleeper: &fakeSleeper{log: log},
	}
	rig.driver = NewDriver(rig.gpio, rig.pulses, WithSleeper(rig.sleeper))
	return rig
}

// newInitializedRig returns a rig whose driver passed Init, with the call log cleared
func newInitializedRig() (*testRig, error) {
	rig := newTestRig()
	if err := rig.driver.Init(MotorConfig{Pins: testPins}); err != nil {
		return nil, err
	}
	rig.log.reset()
	return rig, nil
}
