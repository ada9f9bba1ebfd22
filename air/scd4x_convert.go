package air

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensirion/protocol"
)

const (
	temperatureScale = 175.0 / 65535.0
	humidityScale    = 100.0 / 65535.0
	// offset words are scaled by 175/2^16 (get) and 2^16/175 (set)
	offsetGetScale = 0.0026702880859375
	offsetSetScale = 374.49142857

	dataReadyMask    = 0x07ff
	frcFailed        = 0xffff
	frcCorrectionRef = 0x8000
)

// Measurement is a single decoded sample.
type Measurement struct {
	CO2         uint16  `json:"co2" yaml:"co2"`                 // ppm
	Temperature float32 `json:"temperature" yaml:"temperature"` // °C
	Humidity    float32 `json:"humidity" yaml:"humidity"`       // %RH
}

// Env converts the sample to periph units. Pressure is left at zero.
func (m Measurement) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(float64(m.Temperature)*float64(physic.Celsius)),
		Humidity:    physic.RelativeHumidity(float64(m.Humidity) * float64(physic.PercentRH)),
	}
}

func (m Measurement) String() string {
	return fmt.Sprintf("CO2: %d ppm, T: %.2f°C, RH: %.2f%%", m.CO2, m.Temperature, m.Humidity)
}

func temperatureFromWord(w uint16) float32 {
	return float32(-45 + temperatureScale*float64(w))
}

func humidityFromWord(w uint16) float32 {
	return float32(humidityScale * float64(w))
}

func decodeMeasurement(words []uint16) Measurement {
	return Measurement{
		CO2:         words[0],
		Temperature: temperatureFromWord(words[1]),
		Humidity:    humidityFromWord(words[2]),
	}
}

// offsetToWord encodes a temperature offset in °C.
func offsetToWord(celsius float64) (uint16, error) {
	w := math.Round(offsetSetScale * celsius)
	if math.IsNaN(w) || w < 0 || w > math.MaxUint16 {
		return 0, fmt.Errorf("temperature offset %.3f°C: %w", celsius, protocol.ErrRange)
	}
	return uint16(w), nil
}

func offsetFromWord(w uint16) float64 {
	return offsetGetScale * float64(w)
}

func dataReady(w uint16) bool {
	return w&dataReadyMask != 0
}

func pressureToWord(p physic.Pressure) (uint16, error) {
	hpa := p / (100 * physic.Pascal)
	if p < 0 || hpa > math.MaxUint16 {
		return 0, fmt.Errorf("ambient pressure %s: %w", p, protocol.ErrRange)
	}
	return uint16(hpa), nil
}

func pressureFromWord(w uint16) physic.Pressure {
	return physic.Pressure(w) * 100 * physic.Pascal
}
