package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/cmd/scd4x/console"
)

var yesFlag = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "do not ask for confirmation",
}

var configCmd = cli.Command{
	Name:  "config",
	Usage: "read or change the sensor settings",
	Subcommands: cli.Commands{
		&configGetCmd,
		&configSetCmd,
	},
}

var configGetCmd = cli.Command{
	Name:  "get",
	Usage: "print the current settings as yaml",
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			cfg, err := s.Configuration(ctx)
			if err != nil {
				return console.Fail("error reading configuration", err)
			}
			return encodeYAML(cfg)
		})
	},
}

var configSetCmd = cli.Command{
	Name:  "set",
	Usage: "change settings from a yaml file or flags",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "yaml file as printed by config get",
		},
		&cli.Float64Flag{
			Name:  "offset",
			Usage: "temperature offset in °C",
		},
		&cli.IntFlag{
			Name:  "altitude",
			Usage: "sensor altitude in metres above sea level",
		},
		&cli.BoolFlag{
			Name:  "asc",
			Usage: "enable automatic self calibration",
		},
		&cli.IntFlag{
			Name:  "asc-target",
			Usage: "automatic self calibration target in ppm",
		},
		&cli.Float64Flag{
			Name:  "pressure",
			Usage: "ambient pressure in hPa (can be set while measuring, not persisted)",
		},
		&cli.BoolFlag{
			Name:  "persist",
			Usage: "store the settings in EEPROM",
		},
		yesFlag,
	},
	Action: func(c *cli.Context) error {
		return withSensor(c, func(ctx context.Context, s *air.SCD4x) error {
			cfg, err := s.Configuration(ctx)
			if err != nil {
				return console.Fail("error reading configuration", err)
			}
			if path := c.String("file"); path != "" {
				if cfg, err = loadConfiguration(path, cfg); err != nil {
					return console.Fail("invalid configuration file", err)
				}
			}
			if err := overrideConfiguration(c, &cfg); err != nil {
				return console.Fail("invalid flag", err)
			}
			changed, err := s.ApplyConfiguration(ctx, cfg)
			if err != nil {
				return console.Fail("error applying configuration", err)
			}
			if c.IsSet("pressure") {
				p := physic.Pressure(c.Float64("pressure")*100) * physic.Pascal
				if err := s.SetAmbientPressure(ctx, p); err != nil {
					return console.Fail("error setting ambient pressure", err)
				}
			}
			if !changed {
				console.Infof("configuration unchanged")
				return nil
			}
			console.PInfof(console.PictoPin, "configuration applied")
			if !c.Bool("persist") {
				return nil
			}
			return persist(ctx, s, c.Bool("yes"))
		})
	},
}

// loadConfiguration reads a yaml file over base so missing keys keep their
// current values.
func loadConfiguration(path string, base air.Configuration) (air.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&base); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

func overrideConfiguration(c *cli.Context, cfg *air.Configuration) error {
	if c.IsSet("offset") {
		cfg.TemperatureOffset = c.Float64("offset")
	}
	if c.IsSet("altitude") {
		v, err := wordFlag(c, "altitude")
		if err != nil {
			return err
		}
		cfg.Altitude = v
	}
	if c.IsSet("asc") {
		cfg.ASCEnabled = c.Bool("asc")
	}
	if c.IsSet("asc-target") {
		v, err := wordFlag(c, "asc-target")
		if err != nil {
			return err
		}
		cfg.ASCTarget = v
	}
	return nil
}

func wordFlag(c *cli.Context, name string) (uint16, error) {
	v := c.Int(name)
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("--%s %d out of range", name, v)
	}
	return uint16(v), nil
}
