package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/cmd/scd4x/console"
	"github.com/mklimuk/sensirion/protocol"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Value: formatText,
	Usage: "output format: text or yaml",
}

var idCmd = cli.Command{
	Name:  "id",
	Usage: "print the sensor serial number",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			serial, err := s.SerialNumber(ctx)
			if err != nil {
				return console.Fail("error reading serial number", err)
			}
			console.PInfof(console.PictoKey, "%s %s", console.White(fmt.Sprintf("%012x", serial)), s.Variant())
			return nil
		})
	},
}

var variantCmd = cli.Command{
	Name:  "variant",
	Usage: "ask the sensor for its model",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			v, err := s.ReadVariant(ctx)
			if err != nil {
				return console.Fail("error reading variant", err)
			}
			console.Printf("%s\n", console.White(v))
			return nil
		})
	},
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "take a single measurement",
	Flags: []cli.Flag{
		formatFlag,
		&cli.BoolFlag{
			Name:  "single-shot",
			Usage: "use single shot measurement (SCD41)",
		},
		&cli.BoolFlag{
			Name:  "rht-only",
			Usage: "single shot of temperature and humidity only (SCD41)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 15 * time.Second,
			Usage: "how long to wait for the first periodic sample",
		},
	},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			var m air.Measurement
			var err error
			if c.Bool("single-shot") || c.Bool("rht-only") {
				m, err = readSingleShot(ctx, s, c.Bool("rht-only"))
			} else {
				m, err = readPeriodic(ctx, s, c.Duration("timeout"))
			}
			if err != nil {
				return console.Fail("error reading measurement", err)
			}
			return printMeasurement(c.String("format"), m)
		})
	},
}

func readSingleShot(ctx context.Context, s *air.SCD4x, rhtOnly bool) (air.Measurement, error) {
	if err := s.MeasureSingleShot(ctx, rhtOnly); err != nil {
		return air.Measurement{}, err
	}
	if err := protocol.Sleep(ctx, s.ConversionCycleTime()); err != nil {
		return air.Measurement{}, err
	}
	m, err := s.ReadMeasurement(ctx)
	if stopErr := s.StopPeriodicMeasurement(ctx); stopErr != nil && err == nil {
		err = stopErr
	}
	return m, err
}

// readPeriodic starts periodic measurement and returns the first sample.
func readPeriodic(ctx context.Context, s *air.SCD4x, timeout time.Duration) (air.Measurement, error) {
	if err := s.StartPeriodicMeasurement(ctx); err != nil {
		return air.Measurement{}, err
	}
	defer func() {
		if err := s.StopPeriodicMeasurement(context.WithoutCancel(ctx)); err != nil {
			slog.Error("could not stop periodic measurement", "error", err)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cursor := s.Cursor()
	for {
		m, ok, err := cursor.Poll(ctx)
		if err != nil {
			return m, err
		}
		if ok {
			return m, nil
		}
		if err := protocol.Sleep(ctx, time.Second); err != nil {
			return m, err
		}
	}
}

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "run periodic measurement and print samples until interrupted",
	Flags: []cli.Flag{
		formatFlag,
		&cli.BoolFlag{
			Name:  "low-power",
			Usage: "use low power periodic measurement (30s cycle)",
		},
		&cli.DurationFlag{
			Name:  "poll",
			Value: time.Second,
			Usage: "data ready poll interval",
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "stop after this many samples (0 for no limit)",
		},
	},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			start := s.StartPeriodicMeasurement
			if c.Bool("low-power") {
				start = s.StartLowPowerPeriodicMeasurement
			}
			if err := start(ctx); err != nil {
				return console.Fail("could not start measurement", err)
			}
			defer func() {
				if err := s.StopPeriodicMeasurement(context.WithoutCancel(ctx)); err != nil {
					console.Errorf("could not stop periodic measurement: %s", console.Red(err))
				}
			}()
			slog.Info("measurement started", "mode", s.Mode(), "cycle", s.ConversionCycleTime())
			cursor := s.Cursor()
			for {
				m, ok, err := cursor.Poll(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("poll failed", "error", err)
				}
				if ok {
					if err := printMeasurement(c.String("format"), m); err != nil {
						return err
					}
					if n := c.Int("count"); n > 0 && cursor.Count() >= n {
						return nil
					}
				}
				if err := protocol.Sleep(ctx, c.Duration("poll")); err != nil {
					console.PInfof(console.PictoFinish, "%d samples", cursor.Count())
					return nil
				}
			}
		})
	},
}

func printMeasurement(format string, m air.Measurement) error {
	switch format {
	case formatYAML:
		return encodeYAML(m)
	default:
		console.Printf("%s %s  %s %s  %s %s\n",
			console.PictoCO2, console.CO2(m.CO2),
			console.PictoThermometer, console.White(fmt.Sprintf("%.2f°C", m.Temperature)),
			console.PictoHumidity, console.White(fmt.Sprintf("%.2f%%", m.Humidity)))
	}
	return nil
}
