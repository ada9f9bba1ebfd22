package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch = errors.New("response length mismatch")
	ErrChecksum       = errors.New("crc mismatch")
	ErrRange          = errors.New("argument out of range")
	// ErrPrecondition is returned for commands that are only accepted while the
	// sensor is idle.
	ErrPrecondition = errors.New("command not allowed in current measurement mode")
	ErrUnsupported  = errors.New("command not supported by sensor variant")
)

// LengthMismatchError reports a response whose size differs from the one the
// command declares.
type LengthMismatchError struct {
	Command  string
	Expected int
	Got      int
}

func (e *LengthMismatchError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("response length mismatch: expected %d bytes, got %d", e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: response length mismatch: expected %d bytes, got %d", e.Command, e.Expected, e.Got)
}

func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// ChecksumError carries the CRC byte of every word in the frame next to the
// value computed over that word.
type ChecksumError struct {
	Command  string
	Received []byte
	Computed []byte
}

func (e *ChecksumError) Error() string {
	msg := fmt.Sprintf("invalid CRC value(s): received %#v, calculated %#v", e.Received, e.Computed)
	if e.Command != "" {
		return e.Command + ": " + msg
	}
	return msg
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}
