// Package orchestrator sequences supervisor and compose operations into the
// CLI verbs. Every verb is an ordered list of independent steps; a failing
// step is recorded and the sequence continues (best-effort, never
// all-or-nothing transactions).
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/loykin/devstack/internal/compose"
	"github.com/loykin/devstack/internal/supervisor"
)

const restartPause = time.Second

// StepResult is the outcome of one step of a verb sequence.
type StepResult struct {
	Step    string // e.g. "compose up", "start ollama"
	Err     error  // nil on success
	Skipped bool   // resource missing; step not attempted
	Info    string // informational note ("already running", ...)
}

// Failed reports whether the step counts against the verb's exit status.
func (r StepResult) Failed() bool { return r.Err != nil && !r.Skipped }

// Report aggregates the step results of one verb.
type Report []StepResult

// Failed reports whether any step failed.
func (rep Report) Failed() bool {
	for _, r := range rep {
		if r.Failed() {
			return true
		}
	}
	return false
}

// ProcessManager is the supervisor surface the orchestrator drives.
type ProcessManager interface {
	Names() []string
	Spec(name string) (supervisor.Spec, bool)
	Start(name string) (supervisor.StartResult, error)
	Stop(name string, grace time.Duration) (supervisor.StopResult, error)
	StatusAll() []supervisor.Status
}

// StackController is the compose surface the orchestrator drives.
type StackController interface {
	Up(ctx context.Context) error
	Stop(ctx context.Context) error
	Down(ctx context.Context) error
	Status(ctx context.Context) error
	Logs(ctx context.Context, tail int) error
}

// Orchestrator binds one supervisor instance and one stack controller to the
// verb sequences. Construct one per invocation; it holds no global state.
type Orchestrator struct {
	Sup       ProcessManager
	Stack     StackController
	Logger    *slog.Logger
	Out       io.Writer
	StopGrace time.Duration

	// Primary application, executed in the foreground by Run.
	AppCommand string
	AppDir     string
	AppEnv     []string
}

// Up brings up the container stack, then starts each managed service in
// fixed order.
func (o *Orchestrator) Up(ctx context.Context) Report {
	rep := Report{o.composeStep(ctx, "compose up", o.Stack.Up)}
	for _, name := range o.Sup.Names() {
		rep = append(rep, o.startStep(name))
	}
	return rep
}

// Down stops each managed service in reverse start order, then halts the
// container stack without removing it.
func (o *Orchestrator) Down(ctx context.Context) Report {
	var rep Report
	names := o.Sup.Names()
	for i := len(names) - 1; i >= 0; i-- {
		rep = append(rep, o.stopStep(names[i]))
	}
	rep = append(rep, o.composeStep(ctx, "compose stop", o.Stack.Stop))
	return rep
}

// Restart is stop-all, a brief pause, then start-all. The final liveness
// state matches an equivalent manual Down followed by Up.
func (o *Orchestrator) Restart(ctx context.Context) Report {
	rep := o.Down(ctx)
	time.Sleep(restartPause)
	return append(rep, o.Up(ctx)...)
}

// Destroy stops all managed services, then tears the container stack down
// (removes containers, not just halts them).
func (o *Orchestrator) Destroy(ctx context.Context) Report {
	var rep Report
	names := o.Sup.Names()
	for i := len(names) - 1; i >= 0; i-- {
		rep = append(rep, o.stopStep(names[i]))
	}
	rep = append(rep, o.composeStep(ctx, "compose down", o.Stack.Down))
	return rep
}

// Run performs the Up sequence, then executes the primary application in the
// foreground with inherited stdio. The application's error (including its
// exit status) is returned separately from the report.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	rep := o.Up(ctx)
	sp := supervisor.Spec{Command: o.AppCommand}
	cmd := sp.BuildCommand()
	if o.AppDir != "" {
		cmd.Dir = o.AppDir
	}
	cmd.Env = append(os.Environ(), o.AppEnv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	o.Logger.Info("running application", "command", o.AppCommand)
	return rep, cmd.Run()
}

// Statuses returns the supervisor view of every managed service.
func (o *Orchestrator) Statuses() []supervisor.Status { return o.Sup.StatusAll() }

// StackStatus forwards compose ps.
func (o *Orchestrator) StackStatus(ctx context.Context) Report {
	return Report{o.composeStep(ctx, "compose ps", o.Stack.Status)}
}

// Logs prints the tail of every managed service's log file, then the
// container stack's logs.
func (o *Orchestrator) Logs(ctx context.Context, tail int) Report {
	var rep Report
	for _, name := range o.Sup.Names() {
		sp, _ := o.Sup.Spec(name)
		step := StepResult{Step: "logs " + name}
		lines, err := tailFile(sp.LogFile, tail)
		switch {
		case errors.Is(err, os.ErrNotExist):
			step.Skipped = true
			step.Info = "no log file yet"
		case err != nil:
			step.Err = err
		default:
			_, _ = fmt.Fprintf(o.Out, "==> %s (%s)\n", name, sp.LogFile)
			for _, l := range lines {
				_, _ = fmt.Fprintln(o.Out, l)
			}
		}
		rep = append(rep, step)
	}
	rep = append(rep, o.composeStep(ctx, "compose logs", func(ctx context.Context) error {
		return o.Stack.Logs(ctx, tail)
	}))
	return rep
}

func (o *Orchestrator) startStep(name string) StepResult {
	step := StepResult{Step: "start " + name}
	if sp, ok := o.Sup.Spec(name); ok && launcherMissing(sp) {
		step.Skipped = true
		step.Info = "launcher not found: " + sp.Command
		o.Logger.Warn("skipping service, launcher not found", "service", name, "command", sp.Command)
		return step
	}
	res, err := o.Sup.Start(name)
	if err != nil {
		step.Err = err
		o.Logger.Error("start failed", "service", name, "error", err)
		return step
	}
	if res.AlreadyRunning {
		step.Info = fmt.Sprintf("already running (pid %d)", res.PID)
	} else {
		step.Info = fmt.Sprintf("started (pid %d)", res.PID)
	}
	return step
}

func (o *Orchestrator) stopStep(name string) StepResult {
	step := StepResult{Step: "stop " + name}
	res, err := o.Sup.Stop(name, o.StopGrace)
	if err != nil {
		step.Err = err
		o.Logger.Error("stop failed", "service", name, "error", err)
		return step
	}
	switch {
	case !res.WasRunning:
		step.Info = "not running"
	case res.Killed:
		step.Info = fmt.Sprintf("killed after grace period (pid %d)", res.PID)
	default:
		step.Info = fmt.Sprintf("stopped (pid %d)", res.PID)
	}
	return step
}

func (o *Orchestrator) composeStep(ctx context.Context, label string, fn func(context.Context) error) StepResult {
	step := StepResult{Step: label}
	err := fn(ctx)
	switch {
	case err == nil:
	case errors.Is(err, compose.ErrComposeFileMissing):
		step.Skipped = true
		step.Info = err.Error()
		o.Logger.Warn("skipping stack operation", "step", label, "reason", err)
	default:
		step.Err = err
		o.Logger.Error("stack operation failed", "step", label, "error", err)
	}
	return step
}

// launcherMissing reports whether a spec's command is a bare script path that
// does not exist, so the start can be skipped with a diagnostic instead of
// failing noisily inside the shell.
func launcherMissing(sp supervisor.Spec) bool {
	cmd := strings.TrimSpace(sp.Command)
	if cmd == "" || strings.ContainsAny(cmd, " |&;<>*?`$\"'(){}[]~") {
		return false
	}
	if _, err := exec.LookPath(cmd); err == nil {
		return false
	}
	_, err := os.Stat(cmd)
	return err != nil
}
