package i2c

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobotI2C "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/sensirion"
	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/protocol"
)

// fakeConnection answers reads from a queue and records writes. Only the
// io.ReadWriteCloser part of the connection is implemented.
type fakeConnection struct {
	gobotI2C.Connection
	writes  [][]byte
	replies [][]byte
	closed  bool
}

func (c *fakeConnection) Write(data []byte) (int, error) {
	c.writes = append(c.writes, bytes.Clone(data))
	return len(data), nil
}

func (c *fakeConnection) Read(data []byte) (int, error) {
	if len(c.replies) == 0 {
		return 0, errors.New("no reply queued")
	}
	n := copy(data, c.replies[0])
	c.replies = c.replies[1:]
	return n, nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	gobotI2C.Connector
	conns  map[int]*fakeConnection
	buses  []int
	opened int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gobotI2C.Connection, error) {
	f.opened++
	f.buses = append(f.buses, busNr)
	conn, ok := f.conns[address]
	if !ok {
		return nil, errors.New("no device")
	}
	return conn, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 2
}

func TestGobotBus_SCD4x(t *testing.T) {
	conn := &fakeConnection{
		replies: [][]byte{
			{0x80, 0x06, 0x04},
			{0x02, 0x2c, 0xa3, 0x67, 0x0d, 0x36, 0x4d, 0x08, 0xf1},
		},
	}
	connector := &fakeConnector{conns: map[int]*fakeConnection{scd4xAddr: conn}}
	bus := NewGobotBus(connector, -1)
	s := air.NewSCD4x(bus, air.WithSleeper(noSleep))
	ctx := context.Background()

	require.NoError(t, s.StartPeriodicMeasurement(ctx))
	m, ok, err := s.Cursor().Poll(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(556), m.CO2)

	assert.Equal(t, [][]byte{{0x21, 0xb1}, {0xe4, 0xb8}, {0xec, 0x05}}, conn.writes)
	assert.Equal(t, 1, connector.opened, "connection is reused")
	assert.Equal(t, []int{2}, connector.buses)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_ShortRead(t *testing.T) {
	conn := &fakeConnection{replies: [][]byte{{0x02, 0x2c, 0xa3, 0x67, 0x0d, 0x36}}}
	bus := NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{scd4xAddr: conn}}, 1)

	buf := make([]byte, 9)
	err := bus.ReadFromAddr(context.Background(), scd4xAddr, buf)
	assert.ErrorIs(t, err, sensirion.ErrShortRead)
	var short *sensirion.ShortReadError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 9, short.Requested)
	assert.Equal(t, 6, short.Read)
}

func TestGobotBus_ShortReadIsLengthMismatch(t *testing.T) {
	conn := &fakeConnection{replies: [][]byte{{0x80, 0x06}}}
	bus := NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{scd4xAddr: conn}}, 1)
	s := air.NewSCD4x(bus, air.WithSleeper(noSleep))

	_, err := s.IsDataReady(context.Background())
	assert.ErrorIs(t, err, protocol.ErrLengthMismatch)
}

func TestGobotBus_NoDevice(t *testing.T) {
	bus := NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{}}, 1)
	err := bus.WriteToAddr(context.Background(), 0x10, []byte{0x00})
	assert.ErrorContains(t, err, "could not open i2c connection to 0x10 on bus 1")
}

func TestNanoPiAdaptor_WrapsNeoAdaptor(t *testing.T) {
	a := &NanoPiAdaptor{Adaptor: nanopi.NewNeoAdaptor()}
	var connector gobotI2C.Connector = a
	require.NotNil(t, a.I2cBusAdaptor)
	bus := NewGobotBus(connector, 1)
	assert.Equal(t, 1, bus.bus)
}
