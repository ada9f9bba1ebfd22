// Package protocol implements the register-less command protocol spoken by
// Sensirion sensors: a 16-bit command word, optional CRC protected argument
// words, a command specific execution time and a fixed size response made of
// CRC protected words.
package protocol

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mklimuk/sensirion/crc"
)

const (
	// WordSize is the size of one data word plus its CRC on the wire.
	WordSize = 3
	// MaxResponseSize is the longest response any command returns.
	MaxResponseSize = 9
	// MaxPayloadWords is the longest argument list any command accepts.
	MaxPayloadWords = 2
)

// Command describes a single sensor command. Values are meant to be declared
// once as package level variables.
type Command struct {
	Name   string
	Opcode uint16
	// Settle is the execution time the sensor needs before it accepts the next
	// transfer (a read of the response included).
	Settle time.Duration
	// ResponseSize is the number of bytes returned: 0, 3 or 9.
	ResponseSize int
	// PayloadWords is the number of argument words the command expects.
	PayloadWords int
	// WhileMeasuring is true if the command is accepted during periodic
	// measurement.
	WhileMeasuring bool
}

func (c Command) String() string {
	if c.Name == "" {
		return fmt.Sprintf("cmd 0x%04x", c.Opcode)
	}
	return fmt.Sprintf("%s (0x%04x)", c.Name, c.Opcode)
}

// Encode serializes the command word followed by the payload words, each
// trailed by its own CRC. The opcode is never covered by a CRC.
func Encode(cmd Command, payload ...uint16) ([]byte, error) {
	if len(payload) != cmd.PayloadWords {
		return nil, fmt.Errorf("%s: %w: expected %d payload words, got %d", cmd, ErrRange, cmd.PayloadWords, len(payload))
	}
	if len(payload) > MaxPayloadWords {
		return nil, fmt.Errorf("%s: %w: at most %d payload words supported", cmd, ErrRange, MaxPayloadWords)
	}
	buf := make([]byte, 2+len(payload)*WordSize)
	binary.BigEndian.PutUint16(buf[0:2], cmd.Opcode)
	for i, word := range payload {
		off := 2 + i*WordSize
		binary.BigEndian.PutUint16(buf[off:off+2], word)
		buf[off+2] = crc.Sensirion(buf[off : off+2])
	}
	return buf, nil
}

func validResponseSize(n int) bool {
	return n == WordSize || n == MaxResponseSize
}
