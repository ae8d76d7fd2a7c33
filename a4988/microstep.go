package a4988

// MicrostepMode selects the driver's step resolution through MS1..MS3
type MicrostepMode uint8

const (
	StepModeFull MicrostepMode = iota
	StepModeHalf
	StepModeQuarter
	StepModeEighth
	StepModeSixteenth
)

// numStepModes sizes the lookup tables so they stay total over the modes
const numStepModes = int(StepModeSixteenth) + 1

// MS1..MS3 levels per mode, MS1 in bit 0 (A4988 datasheet table 1)
var stepModeLogic = [numStepModes]uint8{
	StepModeFull:      0b000,
	StepModeHalf:      0b001,
	StepModeQuarter:   0b010,
	StepModeEighth:    0b011,
	StepModeSixteenth: 0b111,
}

// Microsteps per full step
var stepModeMultiplier = [numStepModes]uint32{
	StepModeFull:      1,
	StepModeHalf:      2,
	StepModeQuarter:   4,
	StepModeEighth:    8,
	StepModeSixteenth: 16,
}

var stepModeNames = [numStepModes]string{
	StepModeFull:      "full",
	StepModeHalf:      "half",
	StepModeQuarter:   "quarter",
	StepModeEighth:    "eighth",
	StepModeSixteenth: "sixteenth",
}

// Valid reports whether m is one of the defined modes
func (m MicrostepMode) Valid() bool {
	return int(m) < numStepModes
}

// LogicBits returns the select-line pattern, MS1 in bit 0.
// m must be Valid.
func (m MicrostepMode) LogicBits() uint8 {
	return stepModeLogic[m]
}

// Logic returns the MS1, MS2, MS3 levels for m
func (m MicrostepMode) Logic() (ms1, ms2, ms3 bool) {
	bits := m.LogicBits()
	return bits&0b001 != 0, bits&0b010 != 0, bits&0b100 != 0
}

// Multiplier returns the microsteps per full step for m
func (m MicrostepMode) Multiplier() uint32 {
	return stepModeMultiplier[m]
}

func (m MicrostepMode) String() string {
	if !m.Valid() {
		return "invalid"
	}
	return stepModeNames[m]
}

// StepModeFromMultiplier maps 1, 2, 4, 8 or 16 microsteps to a mode
func StepModeFromMultiplier(microsteps uint32) (MicrostepMode, error) {
	for i, mul := range stepModeMultiplier {
		if mul == microsteps {
			return MicrostepMode(i), nil
		}
	}
	return 0, ErrInvalidMode
}

// StepModes lists every mode, coarsest first
func StepModes() []MicrostepMode {
	modes := make([]MicrostepMode, numStepModes)
	for i := range modes {
		modes[i] = MicrostepMode(i)
	}
	return modes
}
