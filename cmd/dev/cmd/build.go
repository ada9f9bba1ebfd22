package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// boards the cli is commonly deployed to
var targets = map[string][2]string{
	"nanopi": {"linux", "arm"},
	"rpi":    {"linux", "arm64"},
	"host":   {runtime.GOOS, runtime.GOARCH},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the scd4x cli into dist/",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			version, _ := flags.GetString("version")
			target, _ := flags.GetString("target")
			noCache, _ := flags.GetBool("no-cache")
			platform, ok := targets[target]
			if !ok {
				return fmt.Errorf("unknown target %q", target)
			}
			goos, arch := platform[0], platform[1]
			out := fmt.Sprintf("dist/scd4x-%s-%s", goos, arch)

			// hid needs cgo, cross builds run in the gobuild image
			if goos == runtime.GOOS && arch == runtime.GOARCH {
				slog.Info("building", "output", out, "version", version)
				return build.GoBuild(out, "./cmd/scd4x", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          arch,
					OS:            goos,
				})
			}
			slog.Info("building in docker", "target", target, "os", goos, "arch", arch)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, arch),
				[]string{"build", "--version", version, "--target", "host"},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   "gophertribe/gobuild:1.25-bookworm",
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building in docker")
	cmd.Flags().String("version", "latest", "version injected into the binary")
	cmd.Flags().String("target", "host", "target board: host, nanopi or rpi")
	return cmd
}
