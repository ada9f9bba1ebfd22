package air

import (
	"context"
)

// CO2BehaviorFunc produces the result of a single Poll.
type CO2BehaviorFunc func(ctx context.Context) (Measurement, bool, error)

// MockCO2Sensor is a mock CO2 sensor driven by a behavior function. It can
// stand in for an SCD4x cursor wherever a CO2Poller is expected.
//
// Example usage:
//
//	sensor := NewMockCO2Sensor(func(ctx context.Context) (Measurement, bool, error) {
//		return Measurement{CO2: 650, Temperature: 21.5, Humidity: 40}, true, nil
//	})
type MockCO2Sensor struct {
	behavior CO2BehaviorFunc
}

func NewMockCO2Sensor(behavior CO2BehaviorFunc) *MockCO2Sensor {
	return &MockCO2Sensor{behavior: behavior}
}

// NewStaticCO2Sensor always yields m.
func NewStaticCO2Sensor(m Measurement) *MockCO2Sensor {
	return NewMockCO2Sensor(func(ctx context.Context) (Measurement, bool, error) {
		return m, true, nil
	})
}

func (m *MockCO2Sensor) Poll(ctx context.Context) (Measurement, bool, error) {
	return m.behavior(ctx)
}
