package devstack

import (
	"context"
	"log/slog"
	"os"

	"github.com/loykin/devstack/internal/compose"
	"github.com/loykin/devstack/internal/config"
	"github.com/loykin/devstack/internal/history"
	"github.com/loykin/devstack/internal/logger"
	"github.com/loykin/devstack/internal/orchestrator"
	"github.com/loykin/devstack/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = supervisor.Spec

type Status = supervisor.Status

type Config = config.Config

type Report = orchestrator.Report

type StepResult = orchestrator.StepResult

type HistoryRecord = history.Record

// LoadConfig reads the optional TOML file at path (may be empty) plus
// DEVSTACK_* environment overrides.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// Stack is the embedding facade: one fully wired orchestrator instance.
type Stack struct {
	cfg     Config
	logger  *slog.Logger
	orch    *orchestrator.Orchestrator
	journal *history.Journal
}

// New wires a supervisor, compose controller and event journal from cfg.
// Journal failures are logged and ignored; the journal is diagnostic only.
func New(cfg Config) *Stack {
	log := logger.New(cfg.Log)

	sup := supervisor.New(log)
	sup.SetConfirmWindow(cfg.ConfirmWindow, 0)
	for _, sp := range cfg.Specs() {
		sup.Register(sp)
	}

	s := &Stack{cfg: cfg, logger: log}
	if cfg.HistoryPath != "" {
		j, err := history.Open(context.Background(), cfg.HistoryPath)
		if err != nil {
			log.Warn("event journal unavailable", "path", cfg.HistoryPath, "error", err)
		} else {
			s.journal = j
			sup.SetObservers(
				func(name string, pid int) {
					_ = j.Record(context.Background(), name, pid, history.EventStart)
				},
				func(name string, pid int) {
					_ = j.Record(context.Background(), name, pid, history.EventStop)
				},
			)
		}
	}

	s.orch = &orchestrator.Orchestrator{
		Sup:        sup,
		Stack:      compose.New(cfg.ComposeFile, log),
		Logger:     log,
		Out:        os.Stdout,
		StopGrace:  cfg.StopGrace,
		AppCommand: cfg.AppCommand,
		AppDir:     cfg.BaseDir,
		AppEnv:     cfg.AppEnv(),
	}
	return s
}

func (s *Stack) Logger() *slog.Logger { return s.logger }

func (s *Stack) Up(ctx context.Context) Report      { return s.orch.Up(ctx) }
func (s *Stack) Down(ctx context.Context) Report    { return s.orch.Down(ctx) }
func (s *Stack) Restart(ctx context.Context) Report { return s.orch.Restart(ctx) }
func (s *Stack) Destroy(ctx context.Context) Report { return s.orch.Destroy(ctx) }

func (s *Stack) Run(ctx context.Context) (Report, error) { return s.orch.Run(ctx) }

func (s *Stack) Statuses() []Status { return s.orch.Statuses() }

func (s *Stack) StackStatus(ctx context.Context) Report { return s.orch.StackStatus(ctx) }

func (s *Stack) Logs(ctx context.Context, tail int) Report { return s.orch.Logs(ctx, tail) }

// History returns the most recent journal entries, newest first. Returns nil
// when the journal is disabled or unavailable.
func (s *Stack) History(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.Recent(ctx, limit)
}

// Close releases the journal. Safe to call once, or never.
func (s *Stack) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}

// DefaultStopGrace mirrors the supervisor default for CLI help text.
const DefaultStopGrace = supervisor.DefaultStopGrace
