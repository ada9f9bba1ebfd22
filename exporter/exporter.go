// Package exporter publishes CO2 sensor samples as Prometheus metrics.
package exporter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mklimuk/sensirion/air"
)

const serialLabel = "serial_number"

// Metrics holds the gauges fed by the exporter.
type Metrics struct {
	CO2         *prometheus.GaugeVec
	Temperature *prometheus.GaugeVec
	Humidity    *prometheus.GaugeVec
	Samples     *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{serialLabel},
	)
}

func newCounter(name string, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		[]string{serialLabel},
	)
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CO2:         newGauge("air_co2_level", "Air Carbon Dioxide level (units: ppm)"),
		Temperature: newGauge("air_temperature", "Air Temperature (units: degrees Celsius)"),
		Humidity:    newGauge("air_humidity", "Humidity (units: % of relative Humidity)"),
		Samples:     newCounter("air_sensor_samples_total", "Number of samples read from the sensor"),
		Errors:      newCounter("air_sensor_errors_total", "Number of failed sensor polls"),
	}
	reg.MustRegister(m.CO2, m.Temperature, m.Humidity, m.Samples, m.Errors)
	return m
}

// Observe records a sample for the sensor identified by serial.
func (m *Metrics) Observe(serial string, sample air.Measurement) {
	m.CO2.WithLabelValues(serial).Set(float64(sample.CO2))
	m.Temperature.WithLabelValues(serial).Set(float64(sample.Temperature))
	m.Humidity.WithLabelValues(serial).Set(float64(sample.Humidity))
	m.Samples.WithLabelValues(serial).Inc()
}

// Exporter polls a sensor at a fixed interval and updates the metrics.
type Exporter struct {
	poller   air.CO2Poller
	serial   string
	metrics  *Metrics
	interval time.Duration
}

func New(poller air.CO2Poller, serial string, metrics *Metrics, interval time.Duration) *Exporter {
	return &Exporter{
		poller:   poller,
		serial:   serial,
		metrics:  metrics,
		interval: interval,
	}
}

// Poll performs a single poll. Errors are counted and logged, not returned.
func (e *Exporter) Poll(ctx context.Context) bool {
	sample, ok, err := e.poller.Poll(ctx)
	if err != nil {
		e.metrics.Errors.WithLabelValues(e.serial).Inc()
		slog.ErrorContext(ctx, "failed to read from sensor", "serial", e.serial, "error", err)
		return false
	}
	if !ok {
		return false
	}
	slog.DebugContext(ctx, "sample received", "serial", e.serial, "co2", sample.CO2, "temperature", sample.Temperature, "humidity", sample.Humidity)
	e.metrics.Observe(e.serial, sample)
	return true
}

// Run polls until ctx is done and returns ctx.Err().
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.Poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Handler exposes the gathered metrics over HTTP.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	})
}
