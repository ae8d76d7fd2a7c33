package a4988

import (
	"math"

	"steppulse/core"
)

const (
	// MaxSegmentTicks is the longest half-symbol the channel encodes (15 bits)
	MaxSegmentTicks = 0x7fff

	// MinPaddingSegments is the number of hold-low symbols after the trigger
	MinPaddingSegments = 2
)

// Timing holds the fixed parameters of waveform generation
type Timing struct {
	ResolutionHz    uint32 // Ticks per second
	TriggerTicks    uint32 // Width of the step pulse, high for both halves
	FullStepsPerRev uint32 // Full steps per revolution
	MaxSymbols      int    // Channel memory in symbols
}

// Waveform is one step period ready for endless replay.
// Symbols[0] is the trigger pulse; the rest hold the line low.
type Waveform struct {
	Symbols     []core.Symbol
	PeriodTicks uint32
}

// StepFrequency returns steps per second for omega rad/s at mode
func StepFrequency(omega float64, mode MicrostepMode, fullStepsPerRev uint32) float64 {
	return omega / (2 * math.Pi) * float64(fullStepsPerRev) * float64(mode.Multiplier())
}

// NewWaveform computes the step waveform for omega rad/s at mode.
//
// The trigger occupies TriggerTicks split evenly across its halves. The
// remaining ticks are split evenly across the padding halves using integer
// division; the remainder is added to the last half so the symbols sum to
// the step period. The period itself is truncated to whole ticks, so the
// replayed rate runs fast by under one tick per step.
//
// Padding starts at MinPaddingSegments symbols and grows for slow speeds
// until every half fits MaxSegmentTicks. Periods shorter than twice the
// trigger, or too short to give every padding half a tick, fail with
// ErrSpeedTooHigh. Periods that cannot fit t.MaxSymbols fail with
// ErrSpeedTooLow.
func NewWaveform(omega float64, mode MicrostepMode, t Timing) (Waveform, error) {
	if !mode.Valid() {
		return Waveform{}, ErrInvalidMode
	}
	if math.IsNaN(omega) || math.IsInf(omega, 0) || omega <= 0 {
		return Waveform{}, ErrInvalidSpeed
	}

	freq := StepFrequency(omega, mode, t.FullStepsPerRev)
	periodF := float64(t.ResolutionHz) / freq
	maxPeriod := float64(t.TriggerTicks) + float64(t.MaxSymbols-1)*2*MaxSegmentTicks
	if periodF > maxPeriod || periodF > math.MaxUint32 {
		return Waveform{}, ErrSpeedTooLow
	}
	period := uint32(periodF)
	if period < 2*t.TriggerTicks {
		return Waveform{}, ErrSpeedTooHigh
	}

	pad := period - t.TriggerTicks
	n := paddingSegments(pad, t.MaxSymbols)
	if 1+n > t.MaxSymbols {
		return Waveform{}, ErrSpeedTooLow
	}
	halves := uint32(2 * n)
	half := pad / halves
	if half == 0 {
		return Waveform{}, ErrSpeedTooHigh
	}

	symbols := make([]core.Symbol, 1+n)
	symbols[0] = core.Symbol{
		Level0:    true,
		Duration0: uint16(t.TriggerTicks / 2),
		Level1:    true,
		Duration1: uint16(t.TriggerTicks - t.TriggerTicks/2),
	}
	for i := 1; i <= n; i++ {
		symbols[i] = core.Symbol{Duration0: uint16(half), Duration1: uint16(half)}
	}
	symbols[n].Duration1 += uint16(pad % halves)

	return Waveform{Symbols: symbols, PeriodTicks: period}, nil
}

// paddingSegments returns how many hold-low symbols pad needs so that no
// half, including the one absorbing the remainder, exceeds MaxSegmentTicks.
// The search stops once the trigger plus n symbols would exceed
// maxSymbols; the returned n is then too large for the channel.
func paddingSegments(pad uint32, maxSymbols int) int {
	n := MinPaddingSegments
	if need := int((pad + 2*MaxSegmentTicks - 1) / (2 * MaxSegmentTicks)); need > n {
		n = need
	}
	for ; 1+n <= maxSymbols; n++ {
		halves := uint32(2 * n)
		if pad/halves+pad%halves <= MaxSegmentTicks {
			return n
		}
	}
	return n
}

// TotalTicks returns the sum of all symbol durations
func (w Waveform) TotalTicks() uint32 {
	var total uint32
	for _, s := range w.Symbols {
		total += s.Ticks()
	}
	return total
}

// TriggerTicks returns the width of the step pulse
func (w Waveform) TriggerTicks() uint32 {
	if len(w.Symbols) == 0 {
		return 0
	}
	return w.Symbols[0].Ticks()
}

// Frequency returns the replayed step rate in steps per second
func (w Waveform) Frequency(resolutionHz uint32) float64 {
	total := w.TotalTicks()
	if total == 0 {
		return 0
	}
	return float64(resolutionHz) / float64(total)
}
