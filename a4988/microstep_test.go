package a4988

import (
	"errors"
	"testing"
)

func TestStepModeLogicTable(t *testing.T) {
	tests := []struct {
		mode          MicrostepMode
		ms1, ms2, ms3 bool
		multiplier    uint32
		name          string
	}{
		{StepModeFull, false, false, false, 1, "full"},
		{StepModeHalf, true, false, false, 2, "half"},
		{StepModeQuarter, false, true, false, 4, "quarter"},
		{StepModeEighth, true, true, false, 8, "eighth"},
		{StepModeSixteenth, true, true, true, 16, "sixteenth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.mode.Valid() {
				t.Fatalf("mode %d not valid", tt.mode)
			}
			ms1, ms2, ms3 := tt.mode.Logic()
			if ms1 != tt.ms1 || ms2 != tt.ms2 || ms3 != tt.ms3 {
				t.Errorf("Logic() = %v %v %v, want %v %v %v", ms1, ms2, ms3, tt.ms1, tt.ms2, tt.ms3)
			}
			if got := tt.mode.Multiplier(); got != tt.multiplier {
				t.Errorf("Multiplier() = %d, want %d", got, tt.multiplier)
			}
			if got := tt.mode.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestStepModePatternsDistinct(t *testing.T) {
	seen := make(map[uint8]MicrostepMode)
	for _, mode := range StepModes() {
		bits := mode.LogicBits()
		if other, ok := seen[bits]; ok {
			t.Errorf("modes %v and %v share pattern %03b", other, mode, bits)
		}
		seen[bits] = mode

		// The table is fixed; repeated lookups return the same pattern
		if again := mode.LogicBits(); again != bits {
			t.Errorf("mode %v pattern changed from %03b to %03b", mode, bits, again)
		}
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 modes, got %d", len(seen))
	}
}

func TestStepModeFromMultiplier(t *testing.T) {
	for _, mode := range StepModes() {
		got, err := StepModeFromMultiplier(mode.Multiplier())
		if err != nil {
			t.Fatalf("StepModeFromMultiplier(%d): %v", mode.Multiplier(), err)
		}
		if got != mode {
			t.Errorf("StepModeFromMultiplier(%d) = %v, want %v", mode.Multiplier(), got, mode)
		}
	}

	for _, bad := range []uint32{0, 3, 5, 32} {
		if _, err := StepModeFromMultiplier(bad); !errors.Is(err, ErrInvalidMode) {
			t.Errorf("StepModeFromMultiplier(%d) error = %v, want ErrInvalidMode", bad, err)
		}
	}
}

func TestStepModeInvalid(t *testing.T) {
	mode := MicrostepMode(5)
	if mode.Valid() {
		t.Error("mode 5 should not be valid")
	}
	if mode.String() != "invalid" {
		t.Errorf("String() = %q, want %q", mode.String(), "invalid")
	}
}
