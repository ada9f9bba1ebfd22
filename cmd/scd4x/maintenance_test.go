package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/bustest"
)

const scd4xAddr = 0x62

func newMockedSensor() (*air.SCD4x, *bustest.MockI2CBus, *bustest.Clock) {
	bus := new(bustest.MockI2CBus)
	clock := bustest.NewClock()
	s := air.NewSCD4x(bus, air.WithSleeper(clock.Sleep), air.WithClock(clock.Now))
	return s, bus, clock
}

func TestRecalibrate_WarmsUpFirst(t *testing.T) {
	s, bus, clock := newMockedSensor()
	bus.ExpectWrite(scd4xAddr, 0x21, 0xb1)
	bus.ExpectWrite(scd4xAddr, 0x3f, 0x86)
	bus.ExpectWrite(scd4xAddr, 0x36, 0x2f, 0x01, 0x90, 0x4c)
	bus.ExpectRead(scd4xAddr, []byte{0x80, 0x19, 0x69})

	correction, err := recalibrate(context.Background(), s, 400, recalibrationWarmup, clock.Sleep)
	require.NoError(t, err)
	assert.Equal(t, 25, correction)
	assert.Equal(t, air.ModeIdle, s.Mode())
	// warmup, stop settle, recalibration settle
	assert.Equal(t, []time.Duration{3 * time.Minute, 500 * time.Millisecond, 400 * time.Millisecond}, clock.Slept())
	bus.AssertExpectations(t)
}

func TestRecalibrate_NoWarmup(t *testing.T) {
	s, bus, clock := newMockedSensor()
	bus.ExpectWrite(scd4xAddr, 0x3f, 0x86)
	bus.ExpectWrite(scd4xAddr, 0x36, 0x2f, 0x01, 0x90, 0x4c)
	bus.ExpectRead(scd4xAddr, []byte{0xff, 0xff, 0xac})

	_, err := recalibrate(context.Background(), s, 400, 0, clock.Sleep)
	assert.ErrorIs(t, err, air.ErrRecalibrationFailed)
	assert.Len(t, bus.Writes(), 2)
	bus.AssertExpectations(t)
}

func TestRecalibrate_CancelledWarmupStops(t *testing.T) {
	s, bus, clock := newMockedSensor()
	bus.ExpectWrite(scd4xAddr, 0x21, 0xb1)
	bus.ExpectWrite(scd4xAddr, 0x3f, 0x86)

	ctx, cancel := context.WithCancel(context.Background())
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	_, err := recalibrate(ctx, s, 400, time.Minute, sleep)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, air.ModeIdle, s.Mode())
	assert.Equal(t, [][]byte{{0x21, 0xb1}, {0x3f, 0x86}}, bus.Writes())
	assert.Empty(t, clock.Slept())
	bus.AssertExpectations(t)
}
