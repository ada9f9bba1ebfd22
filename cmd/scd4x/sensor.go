package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/sensirion"
	"github.com/mklimuk/sensirion/adapter"
	"github.com/mklimuk/sensirion/air"
	"github.com/mklimuk/sensirion/i2c"
	"github.com/mklimuk/sensirion/snsctx"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterGeneric = "generic"
	adapterNanoPi  = "nanopi"
	variantAuto    = "auto"
)

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   adapterMCP2221,
		Usage:   "bus adapter: mcp2221, generic (periph host bus) or nanopi (gobot)",
		EnvVars: []string{"SCD4X_ADAPTER"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Value:   "/dev/i2c-1",
		Usage:   "i2c bus name for the generic adapter",
		EnvVars: []string{"SCD4X_DEVICE"},
	},
	&cli.IntFlag{
		Name:  "bus",
		Value: -1,
		Usage: "i2c bus number for the nanopi adapter (-1 for the default bus)",
	},
	&cli.IntFlag{
		Name:  "usb-index",
		Value: -1,
		Usage: "MCP2221 enumeration index when several bridges are connected",
	},
	&cli.StringFlag{
		Name:    "address",
		Value:   "0x62",
		Usage:   "sensor i2c address",
		EnvVars: []string{"SCD4X_ADDRESS"},
	},
	&cli.StringFlag{
		Name:    "variant",
		Value:   variantAuto,
		Usage:   "sensor variant: scd40, scd41 or auto (ask the sensor)",
		EnvVars: []string{"SCD4X_VARIANT"},
	},
	&cli.IntFlag{
		Name:  "speed",
		Value: 100,
		Usage: "bus clock in kHz for the generic adapter",
	},
	&cli.BoolFlag{
		Name:  "no-crc",
		Usage: "do not verify response checksums",
	},
}

// commandContext carries the verbose flag and logger into driver calls.
func commandContext(c *cli.Context) context.Context {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return snsctx.WithLogger(ctx, slog.Default())
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 7)
	if err != nil {
		return 0, fmt.Errorf("invalid i2c address %q: %w", s, err)
	}
	return byte(v), nil
}

func openBus(c *cli.Context) (sensirion.I2CBus, func() error, error) {
	switch c.String("adapter") {
	case adapterMCP2221:
		opts := []adapter.MCP2221Option{}
		if idx := c.Int("usb-index"); idx >= 0 {
			opts = append(opts, adapter.WithDeviceIndex(idx))
		}
		return adapter.NewMCP2221(opts...), func() error { return nil }, nil
	case adapterGeneric:
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, err
		}
		if err := bus.SetSpeed(physic.Frequency(c.Int("speed")) * physic.KiloHertz); err != nil {
			_ = bus.Close()
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case adapterNanoPi:
		bus, npi, err := i2c.NewNanoPiBus(c.Int("bus"))
		if err != nil {
			return nil, nil, err
		}
		return bus, func() error {
			err := bus.Close()
			if cerr := npi.Close(); err == nil {
				err = cerr
			}
			return err
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// openSensor opens the bus and creates the driver. With the auto variant the
// sensor is asked for its model first.
func openSensor(c *cli.Context) (*air.SCD4x, func(), error) {
	ctx := commandContext(c)
	address, err := parseAddress(c.String("address"))
	if err != nil {
		return nil, nil, err
	}
	bus, closeBus, err := openBus(c)
	if err != nil {
		return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
	}
	release := func() {
		if err := closeBus(); err != nil {
			slog.Error("error closing bus", "error", err)
		}
	}
	opts := []air.SCD4xOption{
		air.WithAddress(address),
		air.WithCRCCheck(!c.Bool("no-crc")),
	}
	variant := air.SCD40
	if v := c.String("variant"); v == variantAuto {
		variant, err = air.NewSCD4x(bus, opts...).ReadVariant(ctx)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("could not detect sensor variant (use --variant): %w", err)
		}
		slog.Debug("sensor variant detected", "variant", variant)
	} else if variant, err = air.ParseVariant(v); err != nil {
		release()
		return nil, nil, err
	}
	return air.NewSCD4x(bus, append(opts, air.WithVariant(variant))...), release, nil
}

// withSensor runs fn against an opened sensor and maps errors to exit codes.
func withSensor(c *cli.Context, fn func(ctx context.Context, s *air.SCD4x) error) error {
	s, release, err := openSensor(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer release()
	return fn(commandContext(c), s)
}
