package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func ChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Regenerate CHANGELOG.md with git-chglog",
		Long: `Regenerate CHANGELOG.md from conventional commits using git-chglog.

  dev changelog                 # full changelog
  dev changelog --next v0.3.0   # include unreleased commits as v0.3.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			next, _ := cmd.Flags().GetString("next")

			if _, err := exec.LookPath("git-chglog"); err != nil {
				slog.Error("git-chglog not found, install it with: go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest")
				return fmt.Errorf("git-chglog not installed: %w", err)
			}
			chglogArgs := []string{"--output", output}
			if next != "" {
				chglogArgs = append(chglogArgs, "--next-tag", next)
			}
			slog.Debug("running git-chglog", "args", chglogArgs)
			c := exec.CommandContext(cmd.Context(), "git-chglog", chglogArgs...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("failed to generate changelog: %w", err)
			}
			slog.Info("changelog generated", "output", output)
			return nil
		},
	}
	cmd.Flags().String("next", "", "tag for unreleased commits (e.g. v0.3.0)")
	cmd.Flags().String("output", "CHANGELOG.md", "output file")
	return cmd
}
