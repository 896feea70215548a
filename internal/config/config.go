package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/devstack/internal/logger"
	"github.com/loykin/devstack/internal/supervisor"
)

// Service holds the address pair and launch command of one managed service.
type Service struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Command string `mapstructure:"command"`
}

// Config is the explicit configuration passed to an orchestrator instance.
// Everything is optional; defaults assume the layout of the application
// checkout the tool is invoked from.
type Config struct {
	BaseDir       string        `mapstructure:"base_dir"`
	StateDir      string        `mapstructure:"state_dir"` // PID files, logs, history live here
	ComposeFile   string        `mapstructure:"compose_file"`
	AppCommand    string        `mapstructure:"app_command"` // primary application, run in the foreground
	StopGrace     time.Duration `mapstructure:"stop_grace"`
	ConfirmWindow time.Duration `mapstructure:"confirm_window"`
	HistoryPath   string        `mapstructure:"history_path"` // empty string disables the journal

	Log logger.Config `mapstructure:"log"`

	Ollama     Service `mapstructure:"ollama"`
	Transcribe Service `mapstructure:"transcribe"`
	Dashboard  Service `mapstructure:"dashboard"`
}

// Load reads an optional TOML file and DEVSTACK_* environment overrides on top
// of documented defaults. path may be empty; a missing explicit path is fatal.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("devstack")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.applyDerived()
	if _, err := os.Stat(c.BaseDir); err != nil {
		return Config{}, fmt.Errorf("base dir %s: %w", c.BaseDir, err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", ".")
	v.SetDefault("state_dir", "")
	v.SetDefault("compose_file", "")
	v.SetDefault("app_command", "python main.py")
	v.SetDefault("stop_grace", "10s")
	v.SetDefault("confirm_window", "3s")
	v.SetDefault("history_path", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("ollama.host", "127.0.0.1")
	v.SetDefault("ollama.port", 11434)
	v.SetDefault("ollama.command", "ollama serve")

	v.SetDefault("transcribe.host", "127.0.0.1")
	v.SetDefault("transcribe.port", 8100)
	v.SetDefault("transcribe.command", "")

	v.SetDefault("dashboard.host", "127.0.0.1")
	v.SetDefault("dashboard.port", 8501)
	v.SetDefault("dashboard.command", "")
}

// applyDerived resolves paths that hang off the base dir when not set explicitly.
func (c *Config) applyDerived() {
	if abs, err := filepath.Abs(c.BaseDir); err == nil {
		c.BaseDir = abs
	}
	if c.StateDir == "" {
		c.StateDir = filepath.Join(c.BaseDir, ".devstack")
	}
	if c.ComposeFile == "" {
		c.ComposeFile = filepath.Join(c.BaseDir, "docker-compose.yml")
	}
	if c.HistoryPath == "" {
		c.HistoryPath = filepath.Join(c.StateDir, "history.db")
	}
	if c.Log.Dir == "" && c.Log.Path == "" {
		c.Log.Dir = c.LogDir()
	}
	if c.Transcribe.Command == "" {
		c.Transcribe.Command = filepath.Join(c.BaseDir, "scripts", "run_transcription.sh")
	}
	if c.Dashboard.Command == "" {
		c.Dashboard.Command = filepath.Join(c.BaseDir, "scripts", "run_dashboard.sh")
	}
}

// PIDDir is where per-service PID files are stored.
func (c Config) PIDDir() string { return filepath.Join(c.StateDir, "pids") }

// LogDir is where per-service log files are stored.
func (c Config) LogDir() string { return filepath.Join(c.StateDir, "logs") }

// Specs returns supervisor specs for the managed services in start order:
// the LLM server first, then the transcription API, then the dashboard.
func (c Config) Specs() []supervisor.Spec {
	return []supervisor.Spec{
		{
			Name:    "ollama",
			Command: c.Ollama.Command,
			WorkDir: c.BaseDir,
			Env: []string{
				"OLLAMA_HOST=" + addr(c.Ollama),
			},
			PIDFile: filepath.Join(c.PIDDir(), "ollama.pid"),
			LogFile: filepath.Join(c.LogDir(), "ollama.log"),
		},
		{
			Name:    "transcribe",
			Command: c.Transcribe.Command,
			WorkDir: c.BaseDir,
			Env: []string{
				"TRANSCRIBE_HOST=" + c.Transcribe.Host,
				"TRANSCRIBE_PORT=" + strconv.Itoa(c.Transcribe.Port),
			},
			PIDFile: filepath.Join(c.PIDDir(), "transcribe.pid"),
			LogFile: filepath.Join(c.LogDir(), "transcribe.log"),
		},
		{
			Name:    "dashboard",
			Command: c.Dashboard.Command,
			WorkDir: c.BaseDir,
			Env: []string{
				"DASHBOARD_HOST=" + c.Dashboard.Host,
				"DASHBOARD_PORT=" + strconv.Itoa(c.Dashboard.Port),
			},
			PIDFile: filepath.Join(c.PIDDir(), "dashboard.pid"),
			LogFile: filepath.Join(c.LogDir(), "dashboard.log"),
		},
	}
}

// AppEnv returns the service address variables handed to the primary
// application so it finds its collaborators.
func (c Config) AppEnv() []string {
	return []string{
		"OLLAMA_HOST=" + addr(c.Ollama),
		"TRANSCRIBE_HOST=" + c.Transcribe.Host,
		"TRANSCRIBE_PORT=" + strconv.Itoa(c.Transcribe.Port),
		"DASHBOARD_HOST=" + c.Dashboard.Host,
		"DASHBOARD_PORT=" + strconv.Itoa(c.Dashboard.Port),
	}
}

func addr(s Service) string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}
