// Package bustest provides a testify based I2C bus mock for driver tests.
package bustest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/sensirion"
)

var _ sensirion.I2CBus = &MockI2CBus{}

// MockI2CBus records every transfer. Expectations are set with the helpers
// below or directly with On.
type MockI2CBus struct {
	mock.Mock
	mu     sync.Mutex
	writes [][]byte
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	m.mu.Lock()
	m.writes = append(m.writes, append([]byte(nil), buffer...))
	m.mu.Unlock()
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

// ReadFromAddr copies the first return value (a []byte) into buffer.
func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ExpectWrite expects exactly frame to be written to address.
func (m *MockI2CBus) ExpectWrite(address byte, frame ...byte) *mock.Call {
	return m.On("WriteToAddr", mock.Anything, address, frame).Return(nil).Once()
}

// ExpectRead answers the next read from address with data.
func (m *MockI2CBus) ExpectRead(address byte, data []byte) *mock.Call {
	return m.On("ReadFromAddr", mock.Anything, address, mock.Anything).Return(data, nil).Once()
}

// Writes returns copies of all written buffers in order.
func (m *MockI2CBus) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.writes...)
}

// Reset drops expectations and recorded traffic.
func (m *MockI2CBus) Reset() {
	m.mu.Lock()
	m.writes = nil
	m.mu.Unlock()
	m.ExpectedCalls = nil
	m.Calls = nil
}
