package adapter

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensirion"
	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/protocol"
)

// fakeBridge emulates the HID side of an MCP2221 with a single I2C slave.
type fakeBridge struct {
	requests [][]byte
	// i2c payloads written to the slave
	written [][]byte
	// queued slave replies, consumed by read commands
	replies [][]byte
	pending []byte
	busy    bool
	last    []byte
	opened  int
	closed  int
}

func (f *fakeBridge) open() (Device, error) {
	f.opened++
	return f, nil
}

func (f *fakeBridge) Write(b []byte) (int, error) {
	f.last = bytes.Clone(b)
	f.requests = append(f.requests, f.last)
	return len(b), nil
}

func (f *fakeBridge) Read(b []byte) (int, error) {
	resp := make([]byte, reportSize)
	resp[0] = f.last[0]
	switch f.last[0] {
	case cmdI2CWrite:
		if f.busy {
			resp[1] = statusBusy
			break
		}
		n := int(f.last[1]) | int(f.last[2])<<8
		f.written = append(f.written, bytes.Clone(f.last[4:4+n]))
	case cmdI2CRead:
		if len(f.replies) == 0 {
			f.pending = nil
			break
		}
		f.pending = f.replies[0]
		f.replies = f.replies[1:]
	case cmdI2CGetData:
		if f.pending == nil {
			resp[1] = statusReadError
			resp[3] = readSizeError
			break
		}
		resp[3] = byte(len(f.pending))
		copy(resp[4:], f.pending)
	case cmdStatus:
		resp[2] = f.last[2]
		resp[9], resp[10] = 0x02, 0x00
		resp[11], resp[12] = 0x02, 0x00
		resp[14] = 0x76
		resp[16], resp[17] = 0xc4, 0x00
	}
	return copy(b, resp), nil
}

func (f *fakeBridge) Close() error {
	f.closed++
	return nil
}

func newTestBridge(f *fakeBridge) *MCP2221 {
	return NewMCP2221(WithOpener(f.open), WithResponseWait(0))
}

func TestMCP2221_WriteFrame(t *testing.T) {
	f := &fakeBridge{}
	d := newTestBridge(f)

	require.NoError(t, d.WriteToAddr(context.Background(), 0x62, []byte{0x24, 0x27, 0x06, 0x44, 0x22}))
	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, []byte{0x90, 0x05, 0x00, 0xc4, 0x24, 0x27, 0x06, 0x44, 0x22}, req[:9])
	assert.Len(t, req, reportSize)
	assert.Equal(t, 1, f.opened)
	assert.Equal(t, 1, f.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	f := &fakeBridge{busy: true}
	d := newTestBridge(f)
	err := d.WriteToAddr(context.Background(), 0x62, []byte{0x21, 0xb1})
	assert.ErrorIs(t, err, sensirion.ErrBusBusy)
}

func TestMCP2221_Read(t *testing.T) {
	f := &fakeBridge{replies: [][]byte{{0x80, 0x06, 0x04}}}
	d := newTestBridge(f)

	buf := make([]byte, 3)
	require.NoError(t, d.ReadFromAddr(context.Background(), 0x62, buf))
	assert.Equal(t, []byte{0x80, 0x06, 0x04}, buf)
	require.Len(t, f.requests, 2)
	assert.Equal(t, []byte{0x91, 0x03, 0x00, 0xc5}, f.requests[0][:4])
	assert.Equal(t, cmdI2CGetData, f.requests[1][0])
}

func TestMCP2221_ReadSizeMismatch(t *testing.T) {
	f := &fakeBridge{replies: [][]byte{{0x80, 0x06, 0x04}}}
	d := newTestBridge(f)

	err := d.ReadFromAddr(context.Background(), 0x62, make([]byte, 9))
	var short *sensirion.ShortReadError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 9, short.Requested)
	assert.Equal(t, 3, short.Read)
}

func TestMCP2221_ReadEngineError(t *testing.T) {
	d := newTestBridge(&fakeBridge{})
	err := d.ReadFromAddr(context.Background(), 0x62, make([]byte, 3))
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestMCP2221_TransferLimit(t *testing.T) {
	f := &fakeBridge{}
	d := newTestBridge(f)
	assert.Error(t, d.WriteToAddr(context.Background(), 0x62, make([]byte, 61)))
	assert.Error(t, d.ReadFromAddr(context.Background(), 0x62, make([]byte, 61)))
	assert.Zero(t, f.opened)
}

func TestMCP2221_StatusAndRelease(t *testing.T) {
	f := &fakeBridge{}
	d := newTestBridge(f)
	ctx := context.Background()

	status, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CSpeedDivider:        0x76,
		CurrentAddress:         "c400",
		LastWriteRequestedSize: 2,
		LastWriteSentSize:      2,
	}, status)

	require.NoError(t, d.Release(ctx))
	assert.Equal(t, subCancelI2C, f.requests[1][2])
}

func TestMCP2221_DriverRoundTrip(t *testing.T) {
	f := &fakeBridge{replies: [][]byte{protocol.NewFrame(1000, 20000, 30000)}}
	d := newTestBridge(f)
	s := air.NewSCD4x(d)

	m, err := s.ReadMeasurement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(1000), m.CO2)
	assert.Equal(t, [][]byte{{0xec, 0x05}}, f.written)
}
