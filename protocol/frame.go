package protocol

import (
	"encoding/binary"

	"github.com/mklimuk/sensirion/crc"
)

// Frame is a raw response: big-endian words, each followed by its CRC byte.
type Frame []byte

// Len returns the number of words in the frame.
func (f Frame) Len() int {
	return len(f) / WordSize
}

// Word decodes word i as unsigned.
func (f Frame) Word(i int) uint16 {
	return binary.BigEndian.Uint16(f[i*WordSize : i*WordSize+2])
}

// Int decodes word i as two's complement.
func (f Frame) Int(i int) int16 {
	return int16(f.Word(i))
}

// Words decodes all words left to right.
func (f Frame) Words() []uint16 {
	words := make([]uint16, f.Len())
	for i := range words {
		words[i] = f.Word(i)
	}
	return words
}

// Verify recomputes the CRC of every word. A single bad word fails the whole
// frame and the error lists every received and computed CRC.
func (f Frame) Verify() error {
	received := make([]byte, f.Len())
	computed := make([]byte, f.Len())
	ok := true
	for i := range received {
		off := i * WordSize
		received[i] = f[off+2]
		computed[i] = crc.Sensirion(f[off : off+2])
		if received[i] != computed[i] {
			ok = false
		}
	}
	if ok {
		return nil
	}
	return &ChecksumError{Received: received, Computed: computed}
}

// NewFrame builds a valid frame for the given words. It is the inverse of
// Words and is used by tests and simulated transports.
func NewFrame(words ...uint16) Frame {
	f := make(Frame, len(words)*WordSize)
	for i, w := range words {
		off := i * WordSize
		binary.BigEndian.PutUint16(f[off:off+2], w)
		f[off+2] = crc.Sensirion(f[off : off+2])
	}
	return f
}
