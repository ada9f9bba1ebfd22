package air

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensirion/bustest"
	"github.com/mklimuk/sensirion/protocol"
)

func expectConfiguration(bus *bustest.MockI2CBus, offset, altitude, asc, target uint16) {
	bus.ExpectWrite(addr, 0x23, 0x18)
	bus.ExpectRead(addr, protocol.NewFrame(offset))
	bus.ExpectWrite(addr, 0x23, 0x22)
	bus.ExpectRead(addr, protocol.NewFrame(altitude))
	bus.ExpectWrite(addr, 0x23, 0x13)
	bus.ExpectRead(addr, protocol.NewFrame(asc))
	bus.ExpectWrite(addr, 0x23, 0x3f)
	bus.ExpectRead(addr, protocol.NewFrame(target))
}

func TestSCD4x_Configuration(t *testing.T) {
	s, bus, _ := newTestSCD4x()
	expectConfiguration(bus, 1498, 1604, 1, 420)

	cfg, err := s.Configuration(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 4.0, cfg.TemperatureOffset, 1e-3)
	assert.Equal(t, uint16(1604), cfg.Altitude)
	assert.True(t, cfg.ASCEnabled)
	assert.Equal(t, uint16(420), cfg.ASCTarget)
	bus.AssertExpectations(t)
}

func TestSCD4x_ApplyConfiguration(t *testing.T) {
	t.Run("unchanged", func(t *testing.T) {
		s, bus, _ := newTestSCD4x()
		expectConfiguration(bus, 1498, 1604, 1, 420)
		changed, err := s.ApplyConfiguration(context.Background(), Configuration{
			TemperatureOffset: 4.0,
			Altitude:          1604,
			ASCEnabled:        true,
			ASCTarget:         420,
		})
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Len(t, bus.Writes(), 4)
	})
	t.Run("altitude and asc", func(t *testing.T) {
		s, bus, _ := newTestSCD4x()
		expectConfiguration(bus, 1498, 0, 1, 420)
		bus.ExpectWrite(addr, 0x24, 0x27, 0x06, 0x44, 0x22)
		bus.ExpectWrite(addr, 0x24, 0x16, 0x00, 0x00, 0x81)
		changed, err := s.ApplyConfiguration(context.Background(), Configuration{
			TemperatureOffset: 4.0,
			Altitude:          1604,
			ASCEnabled:        false,
			ASCTarget:         420,
		})
		require.NoError(t, err)
		assert.True(t, changed)
		bus.AssertExpectations(t)
	})
	t.Run("refused while measuring", func(t *testing.T) {
		s, bus, _ := newTestSCD4x()
		startPeriodic(t, s, bus)
		_, err := s.ApplyConfiguration(context.Background(), Configuration{})
		assert.ErrorIs(t, err, protocol.ErrPrecondition)
	})
}

func TestConfiguration_YAML(t *testing.T) {
	doc := []byte("temperature_offset: 4.5\naltitude: 250\nasc_enabled: true\nasc_target: 400\n")
	var cfg Configuration
	require.NoError(t, yaml.Unmarshal(doc, &cfg))
	assert.Equal(t, Configuration{TemperatureOffset: 4.5, Altitude: 250, ASCEnabled: true, ASCTarget: 400}, cfg)
}
