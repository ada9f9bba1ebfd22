package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gobotI2C "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/sensirion"
)

var _ sensirion.I2CBus = &GobotBus{}

// GobotBus talks to devices through a gobot I2C connector (any gobot platform
// adaptor). Connections are opened lazily, one per device address.
type GobotBus struct {
	connector gobotI2C.Connector
	bus       int

	mx    sync.Mutex
	conns map[byte]gobotI2C.Connection
}

// NewGobotBus uses bus number busNr of the connector. A negative busNr selects
// the connector's default bus.
func NewGobotBus(connector gobotI2C.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		bus:       busNr,
		conns:     make(map[byte]gobotI2C.Connection),
	}
}

// NanoPiAdaptor is a connected NanoPi NEO I2C adaptor.
type NanoPiAdaptor struct {
	*nanopi.Adaptor
}

// NewNanoPiBus connects the NanoPi NEO I2C adaptor and returns a bus on busNr.
// Close the adaptor after the bus.
func NewNanoPiBus(busNr int) (*GobotBus, *NanoPiAdaptor, error) {
	npi := nanopi.NewNeoAdaptor()
	if err := npi.I2cBusAdaptor.Connect(); err != nil {
		return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	return NewGobotBus(npi, busNr), &NanoPiAdaptor{Adaptor: npi}, nil
}

func (a *NanoPiAdaptor) Close() error {
	return a.I2cBusAdaptor.Finalize()
}

func (b *GobotBus) connection(address byte) (gobotI2C.Connection, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c connection to %#x on bus %d: %w", address, b.bus, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("could not write to i2c bus %#x: wrote %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

// ReadFromAddr fills buffer. A read returning fewer bytes fails with
// sensirion.ShortReadError.
func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %#x: %w", address, err)
	}
	if n != len(buffer) {
		return &sensirion.ShortReadError{Requested: len(buffer), Read: n}
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close closes all opened connections.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for address, conn := range b.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close connection to %#x: %w", address, err))
		}
		delete(b.conns, address)
	}
	return errors.Join(errs...)
}
