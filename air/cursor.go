package air

import (
	"context"
)

// CO2Poller is implemented by anything yielding CO2 samples on demand.
type CO2Poller interface {
	Poll(ctx context.Context) (Measurement, bool, error)
}

var (
	_ CO2Poller = &Cursor{}
	_ CO2Poller = &MockCO2Sensor{}
)

// Cursor pulls samples from a measuring sensor. Poll never waits for a new
// sample: when none is available it returns false and the caller decides how
// long to sleep (see SCD4x.ConversionCycleTime).
type Cursor struct {
	sensor *SCD4x
	count  int
}

// Poll returns the next sample if the sensor has one. In single shot mode it
// always returns false without touching the bus; read the triggered sample
// with ReadMeasurement instead.
func (c *Cursor) Poll(ctx context.Context) (Measurement, bool, error) {
	if c.sensor.IsSingleShotMode() {
		return Measurement{}, false, nil
	}
	ready, err := c.sensor.IsDataReady(ctx)
	if err != nil || !ready {
		return Measurement{}, false, err
	}
	m, err := c.sensor.ReadMeasurement(ctx)
	if err != nil {
		return Measurement{}, false, err
	}
	c.count++
	return m, true, nil
}

// Count returns the number of samples yielded since creation or Reset.
func (c *Cursor) Count() int {
	return c.count
}

func (c *Cursor) Reset() {
	c.count = 0
}
