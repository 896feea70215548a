package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// Propagate the primary application's exit status from `run`.
			os.Exit(ee.ExitCode())
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all verbs.
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command and wires the verb subcommands.
func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "devstack",
		Short: "Local developer-environment orchestrator",
		Long: `Devstack starts, stops, and reports on the auxiliary services of a local
development environment: the docker compose stack, the Ollama LLM server,
the transcription API, and the admin dashboard. Managed services run
detached and are tracked through PID files.

Examples:
  devstack up                # compose up + start managed services
  devstack run               # up, then run the application in the foreground
  devstack status            # consolidated liveness report
  devstack destroy           # stop everything and remove containers`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	root.AddCommand(
		createUpCommand(flags),
		createDownCommand(flags),
		createRunCommand(flags),
		createRestartCommand(flags),
		createDestroyCommand(flags),
		createStatusCommand(flags),
		createLogsCommand(flags),
	)
	return root
}
