//go:build !windows

package compose

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFakeEngine(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "docker")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return bin
}

func writeComposeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	if err := os.WriteFile(path, []byte("services: {}\n"), 0o644); err != nil {
		t.Fatalf("write compose file: %v", err)
	}
	return path
}

func TestMissingEngineBinary(t *testing.T) {
	c := New(writeComposeFile(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Bin = filepath.Join(t.TempDir(), "no-such-engine")

	err := c.Up(context.Background())
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Up with missing binary: %v", err)
	}
}

func TestDaemonNotRespondingFailsProbe(t *testing.T) {
	c := New(writeComposeFile(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Bin = writeFakeEngine(t, `exit 1`)

	err := c.Status(context.Background())
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Status with dead daemon: %v", err)
	}
}

func TestMissingComposeFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "docker-compose.yml"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Bin = writeFakeEngine(t, `exit 0`)

	err := c.Up(context.Background())
	if !errors.Is(err, ErrComposeFileMissing) {
		t.Fatalf("Up with missing compose file: %v", err)
	}
}

func TestRunForwardsArgsAndSucceeds(t *testing.T) {
	file := writeComposeFile(t)
	argsOut := filepath.Join(t.TempDir(), "args.txt")
	c := New(file, slog.New(slog.NewTextHandler(io.Discard, nil)))
	// "docker info" probe succeeds silently; compose invocations record args.
	c.Bin = writeFakeEngine(t, `
if [ "$1" = "info" ]; then exit 0; fi
echo "$@" >> `+argsOut+`
exit 0`)

	if err := c.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := c.Logs(context.Background(), 25); err != nil {
		t.Fatalf("Logs: %v", err)
	}
	b, err := os.ReadFile(argsOut)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	got := string(b)
	wantUp := "compose -f " + file + " up -d\n"
	wantLogs := "compose -f " + file + " logs --tail 25\n"
	if got != wantUp+wantLogs {
		t.Fatalf("recorded args:\n%s\nwant:\n%s%s", got, wantUp, wantLogs)
	}
}

func TestComposeExitFailurePropagates(t *testing.T) {
	c := New(writeComposeFile(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Bin = writeFakeEngine(t, `
if [ "$1" = "info" ]; then exit 0; fi
exit 1`)

	err := c.Down(context.Background())
	if err == nil {
		t.Fatalf("expected error when compose exits nonzero")
	}
	if errors.Is(err, ErrEngineUnavailable) || errors.Is(err, ErrComposeFileMissing) {
		t.Fatalf("exit failure misclassified as precondition error: %v", err)
	}
}
