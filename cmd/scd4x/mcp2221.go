package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensirion/adapter"
	"github.com/mklimuk/sensirion/cmd/scd4x/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 usb bridge",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

func newBridge(c *cli.Context) *adapter.MCP2221 {
	if idx := c.Int("usb-index"); idx >= 0 {
		return adapter.NewMCP2221(adapter.WithDeviceIndex(idx))
	}
	return adapter.NewMCP2221()
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge i2c engine status",
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).Status(commandContext(c))
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return encodeYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).ReleaseBus(commandContext(c))
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return encodeYAML(status)
	},
}

func encodeYAML(v any) error {
	enc := yaml.NewEncoder(console.Output())
	defer enc.Close()
	if err := enc.Encode(v); err != nil {
		return console.Fail("encoding error", err)
	}
	return nil
}
