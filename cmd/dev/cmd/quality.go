package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// QualityCmds returns the test, lint and integration-test commands.
func QualityCmds() []*cobra.Command {
	steps := []struct {
		use, short string
		run        func() error
	}{
		{"test", "Run unit tests (protocol engine, driver, bus adapters)", func() error { return test.Test() }},
		{"lint", "Run linters", func() error { return test.Lint() }},
		{"integration-test", "Run tests against a sensor attached to the host", func() error { return test.Integ() }},
	}
	cmds := make([]*cobra.Command, 0, len(steps))
	for _, s := range steps {
		cmds = append(cmds, &cobra.Command{
			Use:   s.use,
			Short: s.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.run(); err != nil {
					return fmt.Errorf("%s failed: %w", s.use, err)
				}
				return nil
			},
		})
	}
	return cmds
}
