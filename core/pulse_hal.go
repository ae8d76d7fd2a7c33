package core

// Symbol is one entry of a pulse waveform: two consecutive halves, each
// holding the output at a level for a number of ticks.
type Symbol struct {
	Level0    bool
	Duration0 uint16
	Level1    bool
	Duration1 uint16
}

// Ticks returns the combined duration of both halves
func (s Symbol) Ticks() uint32 {
	return uint32(s.Duration0) + uint32(s.Duration1)
}

// LoopForever asks a channel to replay a transmission until disabled
const LoopForever = -1

// PulseChannelConfig describes a waveform player channel to open
type PulseChannelConfig struct {
	Pin          GPIOPin // Output pin driven by the channel
	ResolutionHz uint32  // Tick rate of symbol durations
	MemSymbols   uint16  // Symbols the channel can hold for one transmission
	QueueDepth   uint8   // Pending transmissions the channel may queue
}

// PulseDriver opens waveform player channels.
// Implementations can use RMT, PIO, timers or a mock.
type PulseDriver interface {
	// Open claims the hardware for a channel bound to cfg.Pin
	Open(cfg PulseChannelConfig) (PulseChannel, error)
}

// PulseChannel replays symbol sequences on its pin without CPU attention
type PulseChannel interface {
	// Enable powers the channel so it can accept transmissions
	Enable() error

	// Disable halts any replay and leaves the pin at its idle (low) level.
	// Fails if the channel is not enabled.
	Disable() error

	// Transmit starts replaying symbols. loopCount is the number of
	// repetitions, or LoopForever.
	Transmit(symbols []Symbol, loopCount int) error
}

// PulseChannelInfo provides information about a waveform player backend
type PulseChannelInfo struct {
	Name          string
	MaxSymbols    uint16 // Largest sequence accepted per transmission
	MaxTicks      uint32 // Longest single run in ticks
	TypicalJitter uint32 // Typical edge jitter (ns)
}

// Run is a stretch of ticks at one output level
type Run struct {
	Level bool
	Ticks uint32
}

// CompressRuns merges adjacent halves of equal level into runs.
// Zero-length halves are dropped. Backends that cannot hold symbol
// memory use the runs instead.
func CompressRuns(symbols []Symbol) []Run {
	runs := make([]Run, 0, 2)
	add := func(level bool, ticks uint16) {
		if ticks == 0 {
			return
		}
		if n := len(runs); n > 0 && runs[n-1].Level == level {
			runs[n-1].Ticks += uint32(ticks)
			return
		}
		runs = append(runs, Run{Level: level, Ticks: uint32(ticks)})
	}
	for _, s := range symbols {
		add(s.Level0, s.Duration0)
		add(s.Level1, s.Duration1)
	}
	return runs
}

// Global singleton used by firmware entry points.
var pulseDriver PulseDriver

// SetPulseDriver is called by target-specific code to register its driver.
func SetPulseDriver(d PulseDriver) {
	pulseDriver = d
}

// MustPulse returns the configured driver or panics if missing.
func MustPulse() PulseDriver {
	if pulseDriver == nil {
		panic("pulse driver not configured")
	}
	return pulseDriver
}
