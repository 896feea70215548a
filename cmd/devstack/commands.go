package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loykin/devstack"
)

func newStack(flags *GlobalFlags) (*devstack.Stack, error) {
	cfg, err := devstack.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	return devstack.New(cfg), nil
}

// reportAndStatus prints the step report, then the consolidated status table.
// It returns an error when any step failed so the process exits non-zero.
func reportAndStatus(s *devstack.Stack, rep devstack.Report) error {
	printReport(rep)
	printStatusTable(s.Statuses())
	if rep.Failed() {
		return fmt.Errorf("%d step(s) failed", countFailed(rep))
	}
	return nil
}

func countFailed(rep devstack.Report) int {
	n := 0
	for _, r := range rep {
		if r.Failed() {
			n++
		}
	}
	return n
}

func createUpCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start the container stack and all managed services",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return reportAndStatus(s, s.Up(context.Background()))
		},
	}
}

func createDownCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop all managed services and halt the container stack",
		Long: fmt.Sprintf(`Stop all managed services in reverse start order, then halt the container
stack without removing it. Each service gets %s to exit gracefully before
being killed.`, devstack.DefaultStopGrace),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return reportAndStatus(s, s.Down(context.Background()))
		},
	}
}

func createRunCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Bring the environment up, then run the application in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			rep, runErr := s.Run(context.Background())
			printReport(rep)
			return runErr
		},
	}
}

func createRestartCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop everything, pause briefly, and start it again",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return reportAndStatus(s, s.Restart(context.Background()))
		},
	}
}

func createDestroyCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Stop all managed services and remove the stack's containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			return reportAndStatus(s, s.Destroy(context.Background()))
		},
	}
}

func createStatusCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report liveness of managed services and the container stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			printStatusTable(s.Statuses())
			rep := s.StackStatus(context.Background())
			printReport(rep)
			if rep.Failed() {
				return fmt.Errorf("stack status failed")
			}
			return nil
		},
	}
}

func createLogsCommand(flags *GlobalFlags) *cobra.Command {
	var tail int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of each service log and the stack's logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack(flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()
			rep := s.Logs(context.Background(), tail)
			if rep.Failed() {
				printReport(rep)
				return fmt.Errorf("%d step(s) failed", countFailed(rep))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 40, "number of log lines per service")
	return cmd
}
