package a4988

import (
	"errors"

	"steppulse/core"
)

// ErrContractViolation matches every error caused by a caller bug rather
// than by the hardware. Use errors.Is(err, ErrContractViolation).
var ErrContractViolation = errors.New("a4988: contract violation")

type contractError struct {
	msg string
}

func (e *contractError) Error() string {
	return e.msg
}

func (e *contractError) Is(target error) bool {
	return target == ErrContractViolation
}

var (
	ErrNotInitialized     error = &contractError{"a4988: driver not initialized"}
	ErrAlreadyInitialized error = &contractError{"a4988: driver already initialized"}
	ErrInvalidMode        error = &contractError{"a4988: invalid microstep mode"}
	ErrInvalidSpeed       error = &contractError{"a4988: angular velocity must be finite and positive"}
	ErrSpeedTooHigh       error = &contractError{"a4988: step period shorter than the trigger pulse allows"}
	ErrSpeedTooLow        error = &contractError{"a4988: step period does not fit the pulse channel"}
	ErrPinConflict        error = &contractError{"a4988: two pin roles share a gpio"}
	ErrInvalidConfig      error = &contractError{"a4988: invalid motor configuration"}
	ErrNotIdle            error = &contractError{"a4988: operation requires the motor to be stopped"}
)

// HardwareFault wraps a failure reported by a GPIO or pulse channel call.
// Faults are not retried; the operation that hit one is aborted.
type HardwareFault struct {
	Op  string       // Failed collaborator call, e.g. "set_pin enable"
	Pin core.GPIOPin // Pin involved in the call
	Err error
}

func (e *HardwareFault) Error() string {
	return "a4988: hardware fault in " + e.Op + " (" + core.PinName(e.Pin) + "): " + e.Err.Error()
}

func (e *HardwareFault) Unwrap() error {
	return e.Err
}

// IsHardwareFault reports whether err carries a HardwareFault
func IsHardwareFault(err error) bool {
	var hf *HardwareFault
	return errors.As(err, &hf)
}
