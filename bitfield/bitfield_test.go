package bitfield

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidRange(t *testing.T) {
	tests := []struct {
		name        string
		start, stop uint
	}{
		{"start after stop", 5, 4},
		{"stop out of word", 0, 32},
		{"both out of word", 40, 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.stop)
			assert.ErrorIs(t, err, ErrInvalidRange)
			_, err = Put(tt.start, tt.stop, 0, 0)
			assert.ErrorIs(t, err, ErrInvalidRange)
			_, err = Get(tt.start, tt.stop, 0)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestField_PutGet(t *testing.T) {
	tests := []struct {
		name        string
		start, stop uint
		source      uint32
		value       uint32
		expected    uint32
	}{
		{"single bit set", 3, 3, 0x00, 1, 0x08},
		{"single bit clear", 3, 3, 0xFF, 0, 0xF7},
		{"nibble", 4, 7, 0x0F, 0xA, 0xAF},
		{"overflowing value is masked", 0, 3, 0xF0, 0x1F, 0xFF},
		{"variant bits", 12, 15, 0x0441, 1, 0x1441},
		{"whole word", 0, 31, 0x12345678, 0xCAFEBABE, 0xCAFEBABE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.start, tt.stop)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.Put(tt.source, tt.value))
			got, err := Put(tt.start, tt.stop, tt.source, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestField_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for range 500 {
		start := uint(rnd.Intn(Width))
		stop := start + uint(rnd.Intn(Width-int(start)))
		f := Must(start, stop)
		source := rnd.Uint32()
		value := rnd.Uint32()
		width := f.Len()
		valueMask := ^uint32(0)
		if width < Width {
			valueMask = (1 << width) - 1
		}

		out := f.Put(source, value)
		assert.Equal(t, value&valueMask, f.Get(out), "field %s", f)
		assert.Equal(t, source&^f.Mask(), out&^f.Mask(), "bits outside %s changed", f)
	}
}

func TestField_Get(t *testing.T) {
	v, err := Get(12, 15, 0x1441)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
	v, err = Get(0, 10, 0x8006)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), v)
	assert.Equal(t, "[15:12]", Must(12, 15).String())
}
