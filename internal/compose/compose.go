// Package compose is a thin controller over the docker compose CLI. It never
// tracks container state itself: the engine's exit status is authoritative.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"
)

var (
	// ErrEngineUnavailable means the engine binary is missing or its daemon
	// did not answer.
	ErrEngineUnavailable = errors.New("container engine unavailable")
	// ErrComposeFileMissing means the compose definition file does not exist.
	ErrComposeFileMissing = errors.New("compose file not found")
)

// Controller forwards stack operations to the container engine.
type Controller struct {
	Bin         string // engine binary, default "docker"
	ComposeFile string // path to the compose definition
	Logger      *slog.Logger

	probeTimeout time.Duration
}

// New returns a Controller for the given compose file.
func New(composeFile string, logger *slog.Logger) *Controller {
	return &Controller{
		Bin:          "docker",
		ComposeFile:  composeFile,
		Logger:       logger,
		probeTimeout: 5 * time.Second,
	}
}

// Up starts the stack detached. Blocks until the engine returns.
func (c *Controller) Up(ctx context.Context) error {
	return c.run(ctx, "up", "-d")
}

// Stop halts the stack's containers without removing them.
func (c *Controller) Stop(ctx context.Context) error {
	return c.run(ctx, "stop")
}

// Down stops and removes the stack's containers.
func (c *Controller) Down(ctx context.Context) error {
	return c.run(ctx, "down")
}

// Status lists the stack's containers (compose ps).
func (c *Controller) Status(ctx context.Context) error {
	return c.run(ctx, "ps")
}

// Logs prints the last tail lines of every container's output.
func (c *Controller) Logs(ctx context.Context, tail int) error {
	if tail <= 0 {
		tail = 40
	}
	return c.run(ctx, "logs", "--tail", strconv.Itoa(tail))
}

// run checks preconditions, then invokes the compose subcommand synchronously
// with inherited stdio, propagating its exit status.
func (c *Controller) run(ctx context.Context, args ...string) error {
	if err := c.checkEngine(ctx); err != nil {
		return err
	}
	if _, err := os.Stat(c.ComposeFile); err != nil {
		return fmt.Errorf("%w: %s", ErrComposeFileMissing, c.ComposeFile)
	}
	full := append([]string{"compose", "-f", c.ComposeFile}, args...)
	c.Logger.Debug("running compose", "bin", c.Bin, "args", full)
	// #nosec G204
	cmd := exec.CommandContext(ctx, c.Bin, full...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s compose %s: %w", c.Bin, args[0], err)
	}
	return nil
}

// checkEngine fails fast when the engine binary is absent or the daemon is
// unreachable, so stack operations do not hang on a dead socket.
func (c *Controller) checkEngine(ctx context.Context) error {
	if _, err := exec.LookPath(c.Bin); err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrEngineUnavailable, c.Bin)
	}
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	// #nosec G204
	probe := exec.CommandContext(probeCtx, c.Bin, "info")
	probe.Stdout = nil
	probe.Stderr = nil
	if err := probe.Run(); err != nil {
		return fmt.Errorf("%w: daemon not responding (is it running?)", ErrEngineUnavailable)
	}
	return nil
}
