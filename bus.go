package sensirion

import (
	"context"
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrShortRead is matched by ShortReadError.
var ErrShortRead = errors.New("short read")

// ShortReadError is returned by transports that received fewer (or more) bytes
// than the caller's buffer asked for.
type ShortReadError struct {
	Requested int
	Read      int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read: requested %d bytes, got %d", e.Requested, e.Read)
}

func (e *ShortReadError) Is(target error) bool {
	return target == ErrShortRead
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the only thing drivers need from a transport: a single write or a
// single read burst addressed to a 7-bit device address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
