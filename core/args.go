package core

import (
	"errors"
	"math"
	"strconv"
)

// Args holds the key=value arguments of one console command
type Args map[string]string

var (
	ErrMissingArg = errors.New("missing argument")
	ErrBadArg     = errors.New("malformed argument")
)

// ArgError reports which argument failed to parse
type ArgError struct {
	Key string
	Err error
}

func (e *ArgError) Error() string {
	return e.Err.Error() + ": " + e.Key
}

func (e *ArgError) Unwrap() error {
	return e.Err
}

func (a Args) lookup(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", &ArgError{Key: key, Err: ErrMissingArg}
	}
	return v, nil
}

// String returns the raw value of key
func (a Args) String(key string) (string, error) {
	return a.lookup(key)
}

// Float parses key as a finite float (%f)
func (a Args) Float(key string) (float64, error) {
	v, err := a.lookup(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ArgError{Key: key, Err: ErrBadArg}
	}
	return f, nil
}

// Uint parses key as an unsigned 32-bit integer (%u, %c)
func (a Args) Uint(key string) (uint32, error) {
	v, err := a.lookup(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return 0, &ArgError{Key: key, Err: ErrBadArg}
	}
	return uint32(n), nil
}

// Bool parses key as 0/1 (%c)
func (a Args) Bool(key string) (bool, error) {
	n, err := a.Uint(key)
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &ArgError{Key: key, Err: ErrBadArg}
	}
}
