// Package bitfield reads and writes a fixed bit range [Start, Stop] inside a
// 32-bit register value.
package bitfield

import (
	"errors"
	"fmt"
)

// Width is the natural word width of a field source.
const Width = 32

var ErrInvalidRange = errors.New("invalid bit range")

// Field describes bits Start..Stop (inclusive, Start is the least significant).
type Field struct {
	Start uint
	Stop  uint
	mask  uint32
}

// New validates the range and precomputes its mask.
func New(start, stop uint) (Field, error) {
	if err := check(start, stop); err != nil {
		return Field{}, err
	}
	return Field{Start: start, Stop: stop, mask: mask(start, stop)}, nil
}

// Must is New for ranges known at compile time.
func Must(start, stop uint) Field {
	f, err := New(start, stop)
	if err != nil {
		panic(err)
	}
	return f
}

// Put clears the field in source and writes value into it. Bits of value that
// do not fit in the field are dropped.
func (f Field) Put(source, value uint32) uint32 {
	return source&^f.mask | (value<<f.Start)&f.mask
}

// Get extracts the field from source.
func (f Field) Get(source uint32) uint32 {
	return (source & f.mask) >> f.Start
}

// Mask returns the in-place mask of the field.
func (f Field) Mask() uint32 {
	return f.mask
}

// Len returns the field width in bits.
func (f Field) Len() uint {
	return f.Stop - f.Start + 1
}

func (f Field) String() string {
	return fmt.Sprintf("[%d:%d]", f.Stop, f.Start)
}

// Put writes value into bits start..stop of source.
func Put(start, stop uint, source, value uint32) (uint32, error) {
	f, err := New(start, stop)
	if err != nil {
		return 0, err
	}
	return f.Put(source, value), nil
}

// Get reads bits start..stop of source.
func Get(start, stop uint, source uint32) (uint32, error) {
	f, err := New(start, stop)
	if err != nil {
		return 0, err
	}
	return f.Get(source), nil
}

func check(start, stop uint) error {
	if start > stop || stop >= Width {
		return fmt.Errorf("%w: start %d, stop %d", ErrInvalidRange, start, stop)
	}
	return nil
}

func mask(start, stop uint) uint32 {
	width := stop - start + 1
	if width == Width {
		return ^uint32(0)
	}
	return ((uint32(1) << width) - 1) << start
}
