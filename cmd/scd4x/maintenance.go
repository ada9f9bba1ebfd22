package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/cmd/scd4x/console"
	"github.com/mklimuk/sensirion/protocol"
)

// the sensor must have been measuring this long before a forced recalibration
const recalibrationWarmup = 3 * time.Minute

var calibrateCmd = cli.Command{
	Name:  "calibrate",
	Usage: "perform forced recalibration against a known CO2 concentration (needs 3 minutes of prior measurement)",
	Description: "The sensor must have been measuring for at least 3 minutes in the reference\n" +
		"atmosphere. Without --warmup it is assumed a previous run left it measuring.\n" +
		"Periodic measurement is stopped before recalibrating.",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:     "target",
			Aliases:  []string{"t"},
			Usage:    "reference CO2 concentration in ppm",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "warmup",
			Value: recalibrationWarmup,
			Usage: "run periodic measurement this long before recalibrating (0 if the sensor is already measuring)",
		},
		yesFlag,
	},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			ok, err := console.Confirm("recalibrate the sensor?", c.Bool("yes"))
			if err != nil || !ok {
				return err
			}
			if w := c.Duration("warmup"); w > 0 {
				console.Infof("warming up for %s", w)
			}
			correction, err := recalibrate(ctx, s, c.Int("target"), c.Duration("warmup"), protocol.Sleep)
			if err != nil {
				return console.Fail("recalibration failed", err)
			}
			console.PInfof(console.PictoFinish, "correction %s ppm", console.White(correction))
			return nil
		})
	},
}

// recalibrate optionally runs periodic measurement for warmup, then stops it
// and forces recalibration to target ppm.
func recalibrate(ctx context.Context, s *air.SCD4x, target int, warmup time.Duration, sleep protocol.Sleeper) (int, error) {
	if warmup > 0 {
		if err := s.StartPeriodicMeasurement(ctx); err != nil {
			return 0, fmt.Errorf("could not start measurement: %w", err)
		}
		slog.Debug("recalibration warmup", "duration", warmup)
		if err := sleep(ctx, warmup); err != nil {
			if stopErr := s.StopPeriodicMeasurement(context.WithoutCancel(ctx)); stopErr != nil {
				slog.Error("could not stop periodic measurement", "error", stopErr)
			}
			return 0, err
		}
	}
	// the sensor may also still be measuring from a previous run
	if err := s.StopPeriodicMeasurement(ctx); err != nil {
		return 0, fmt.Errorf("could not stop measurement: %w", err)
	}
	return s.ForceRecalibration(ctx, target)
}

var selfTestCmd = cli.Command{
	Name:  "self-test",
	Usage: "run the built-in self test (10s)",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			ok, err := s.SelfTest(ctx)
			if err != nil {
				return console.Fail("self test error", err)
			}
			if !ok {
				return console.Exit(2, "%s self test reported a malfunction", console.PictoStop)
			}
			console.PInfof(console.PictoFinish, "self test %s", console.Green("passed"))
			return nil
		})
	},
}

var persistCmd = cli.Command{
	Name:  "persist",
	Usage: "store the current settings in EEPROM",
	Flags: []cli.Flag{yesFlag},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			return persist(ctx, s, c.Bool("yes"))
		})
	},
}

func persist(ctx context.Context, s *air.SCD4x, assumeYes bool) error {
	ok, err := console.Confirm("write settings to EEPROM (limited write cycles)?", assumeYes)
	if err != nil || !ok {
		return err
	}
	if err := s.PersistSettings(ctx); err != nil {
		return console.Fail("could not persist settings", err)
	}
	console.PInfof(console.PictoPin, "settings persisted")
	return nil
}

var reinitCmd = cli.Command{
	Name:  "reinit",
	Usage: "reload the settings from EEPROM",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			if err := s.Reinit(ctx); err != nil {
				return console.Fail("reinit failed", err)
			}
			console.Infof("settings reloaded")
			return nil
		})
	},
}

var resetCmd = cli.Command{
	Name:  "factory-reset",
	Usage: "erase the configuration and the calibration history",
	Flags: []cli.Flag{yesFlag},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			ok, err := console.Confirm("erase all settings and calibration history?", c.Bool("yes"))
			if err != nil || !ok {
				return err
			}
			if err := s.FactoryReset(ctx); err != nil {
				return console.Fail("factory reset failed", err)
			}
			console.PInfof(console.PictoFinish, "factory reset done")
			return nil
		})
	},
}
