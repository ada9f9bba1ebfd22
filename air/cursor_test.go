package air

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensirion/protocol"
)

func TestCursor_Poll(t *testing.T) {
	s, bus, _ := newTestSCD4x()
	ctx := context.Background()
	startPeriodic(t, s, bus)
	cursor := s.Cursor()

	bus.ExpectWrite(addr, 0xe4, 0xb8).Twice()
	bus.ExpectRead(addr, []byte{0x80, 0x00, 0xa2})
	bus.ExpectRead(addr, []byte{0x80, 0x06, 0x04})
	bus.ExpectWrite(addr, 0xec, 0x05)
	bus.ExpectRead(addr, []byte{0x02, 0x2c, 0xa3, 0x67, 0x0d, 0x36, 0x4d, 0x08, 0xf1})

	m, ok, err := cursor.Poll(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m)
	assert.Equal(t, 0, cursor.Count())

	m, ok, err = cursor.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint16(556), m.CO2)
	assert.Equal(t, 1, cursor.Count())
	bus.AssertExpectations(t)

	cursor.Reset()
	assert.Equal(t, 0, cursor.Count())
}

func TestCursor_SingleShotModeYieldsNothing(t *testing.T) {
	s, bus, _ := newTestSCD4x(WithVariant(SCD41))
	ctx := context.Background()
	bus.ExpectWrite(addr, 0x21, 0x9d)
	require.NoError(t, s.MeasureSingleShot(ctx, false))

	_, ok, err := s.Cursor().Poll(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, bus.Writes(), 1)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestCursor_PropagatesErrors(t *testing.T) {
	s, bus, _ := newTestSCD4x()
	ctx := context.Background()
	cursor := s.Cursor()

	bus.ExpectWrite(addr, 0xe4, 0xb8)
	bus.ExpectRead(addr, []byte{0x80, 0x06, 0x05})
	_, ok, err := cursor.Poll(ctx)
	assert.ErrorIs(t, err, protocol.ErrChecksum)
	assert.False(t, ok)

	boom := errors.New("bus error")
	bus.ExpectWrite(addr, 0xe4, 0xb8)
	bus.ExpectRead(addr, []byte{0x80, 0x06, 0x04})
	bus.On("WriteToAddr", mock.Anything, byte(addr), []byte{0xec, 0x05}).Return(boom).Once()
	_, ok, err = cursor.Poll(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Equal(t, 0, cursor.Count())
}

func TestMockCO2Sensor(t *testing.T) {
	ctx := context.Background()
	static := NewStaticCO2Sensor(Measurement{CO2: 650})
	m, ok, err := static.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint16(650), m.CO2)

	calls := 0
	dynamic := NewMockCO2Sensor(func(ctx context.Context) (Measurement, bool, error) {
		calls++
		if calls%2 == 1 {
			return Measurement{}, false, nil
		}
		return Measurement{CO2: uint16(400 + calls)}, true, nil
	})
	_, ok, _ = dynamic.Poll(ctx)
	assert.False(t, ok)
	m, ok, _ = dynamic.Poll(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint16(402), m.CO2)

	failing := NewMockCO2Sensor(func(ctx context.Context) (Measurement, bool, error) {
		return Measurement{}, false, errors.New("sensor error")
	})
	_, _, err = failing.Poll(ctx)
	assert.EqualError(t, err, "sensor error")
}
