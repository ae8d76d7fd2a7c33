package core

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnknownPin is returned for pin names that do not name a GPIO
var ErrUnknownPin = errors.New("unknown pin name")

// LookupPin converts a pin name like "gpio12" (or a bare "12") to a GPIOPin
func LookupPin(name string) (GPIOPin, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "gpio")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, &pinNameError{name: name}
	}
	return GPIOPin(n), nil
}

type pinNameError struct {
	name string
}

func (e *pinNameError) Error() string {
	return ErrUnknownPin.Error() + ": " + e.name
}

func (e *pinNameError) Unwrap() error {
	return ErrUnknownPin
}

// PinName returns the canonical name of a pin
func PinName(pin GPIOPin) string {
	return "gpio" + utoa(uint32(pin))
}
