package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// DriverEvent captures a driver state change for post-mortem analysis
type DriverEvent struct {
	EventType uint8  // Event type code
	Seq       uint32 // Monotonic event number
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtInit     = 1 // Driver initialized
	EvtRotate   = 2 // Waveform submitted (v1=period ticks, v2=direction)
	EvtStop     = 3 // Replay halted
	EvtStepMode = 4 // Microstep mode changed (v1=multiplier)
	EvtReset    = 5 // Translator reset pulse
	EvtFault    = 6 // Hardware fault (v1=pin, v2=op code)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]DriverEvent
	eventRingHead uint8 // Next write position
	eventSeq      uint32

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Drops the message if the channel is full or async output is not running
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent captures a driver event in the ring buffer
func RecordEvent(eventType uint8, value1, value2 uint32) {
	eventSeq++
	idx := eventRingHead
	eventRing[idx] = DriverEvent{
		EventType: eventType,
		Seq:       eventSeq,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events from oldest to newest
func Events() []DriverEvent {
	events := make([]DriverEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns the printable name of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtInit:
		return "INIT"
	case EvtRotate:
		return "ROTATE"
	case EvtStop:
		return "STOP"
	case EvtStepMode:
		return "STEP_MODE"
	case EvtReset:
		return "RESET"
	case EvtFault:
		return "FAULT!"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing writes the event ring through w, oldest first
func DumpEventRing(w DebugWriter) {
	if w == nil {
		return
	}

	w("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		w("[EVENTS] " + EventName(evt.EventType) +
			" seq=" + itoa(int(evt.Seq)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	w("[EVENTS] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = DriverEvent{}
	}
	eventRingHead = 0
	eventSeq = 0
}
