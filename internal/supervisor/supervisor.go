package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/devstack/internal/detector"
)

// Default timing for launch confirmation and shutdown escalation.
const (
	DefaultConfirmWindow   = 3 * time.Second
	DefaultConfirmInterval = 250 * time.Millisecond
	DefaultStopGrace       = 10 * time.Second
	stopPollInterval       = time.Second
)

// ErrUnknownService is returned for names that were never registered.
var ErrUnknownService = errors.New("unknown service")

// LaunchError reports a launch that could not be confirmed within the
// confirmation window. It carries the log file path for diagnosis.
type LaunchError struct {
	Name    string
	LogFile string
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed to start: %v (see %s)", e.Name, e.Err, e.LogFile)
	}
	return fmt.Sprintf("service %s did not stay up; check %s", e.Name, e.LogFile)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// StartResult describes the outcome of a Start call.
type StartResult struct {
	Name           string
	PID            int
	AlreadyRunning bool
	LogFile        string
}

// StopResult describes the outcome of a Stop call.
type StopResult struct {
	Name       string
	WasRunning bool
	PID        int
	Killed     bool // graceful signal was not enough; SIGKILL was sent
}

// Status is derived entirely from IsAlive; there is no pushed state.
type Status struct {
	Name       string `json:"name"`
	Running    bool   `json:"running"`
	PID        int    `json:"pid"`
	PIDFile    string `json:"pid_file"`
	LogFile    string `json:"log_file"`
	DetectedBy string `json:"detected_by"`
}

// Supervisor starts, stops, and probes services tracked through PID files.
// It holds no live handle to the processes it launches: every later question
// is answered by re-reading the PID file and the OS process table. A single
// supervisor instance per invocation is assumed; PID files are not locked.
type Supervisor struct {
	specs           map[string]Spec
	order           []string
	logger          *slog.Logger
	confirmWindow   time.Duration
	confirmInterval time.Duration

	// onStart/onStop are optional observers (history journal etc.);
	// their failures never affect the operation.
	onStart func(name string, pid int)
	onStop  func(name string, pid int)
}

// New returns a Supervisor with default timing. logger may not be nil.
func New(logger *slog.Logger) *Supervisor {
	return &Supervisor{
		specs:           make(map[string]Spec),
		logger:          logger,
		confirmWindow:   DefaultConfirmWindow,
		confirmInterval: DefaultConfirmInterval,
	}
}

// SetConfirmWindow overrides the launch confirmation window (tests use a short one).
func (s *Supervisor) SetConfirmWindow(window, interval time.Duration) {
	if window > 0 {
		s.confirmWindow = window
	}
	if interval > 0 {
		s.confirmInterval = interval
	}
}

// SetObservers installs start/stop callbacks. Either may be nil.
func (s *Supervisor) SetObservers(onStart, onStop func(name string, pid int)) {
	s.onStart = onStart
	s.onStop = onStop
}

// Register adds a service spec. Re-registering a name replaces its spec.
func (s *Supervisor) Register(spec Spec) {
	if _, ok := s.specs[spec.Name]; !ok {
		s.order = append(s.order, spec.Name)
	}
	s.specs[spec.Name] = spec
}

// Names returns registered service names in registration order.
func (s *Supervisor) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Spec returns the registered spec for name.
func (s *Supervisor) Spec(name string) (Spec, bool) {
	sp, ok := s.specs[name]
	return sp, ok
}

// IsAlive reports whether the service's stored PID denotes a live process.
// A stored-but-dead PID is purged as a side effect and reported as not alive.
// Cleanup is lazy: staleness is only corrected here, on query.
func (s *Supervisor) IsAlive(name string) (bool, error) {
	spec, ok := s.specs[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	pid := readPIDFile(spec.PIDFile)
	if pid == 0 {
		return false, nil
	}
	alive, err := detector.PIDFileDetector{PIDFile: spec.PIDFile}.Alive()
	if err != nil {
		return false, err
	}
	if !alive {
		s.logger.Debug("purging stale pidfile", "service", name, "pid", pid, "pidfile", spec.PIDFile)
		removePIDFile(spec.PIDFile)
	}
	return alive, nil
}

// Start launches the service fully detached and confirms the launch with a
// bounded polling loop. When the service is already running it is a no-op
// reporting AlreadyRunning. A stale PID from a dead incarnation is purged by
// the IsAlive pre-check before launching.
func (s *Supervisor) Start(name string) (StartResult, error) {
	spec, ok := s.specs[name]
	if !ok {
		return StartResult{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	res := StartResult{Name: name, LogFile: spec.LogFile}
	alive, err := s.IsAlive(name)
	if err != nil {
		return res, err
	}
	if alive {
		res.AlreadyRunning = true
		res.PID = readPIDFile(spec.PIDFile)
		s.logger.Info("service already running", "service", name, "pid", res.PID)
		return res, nil
	}

	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	cmd.Env = append(os.Environ(), spec.Env...)
	configureSysProcAttr(cmd)

	// The child must own its log file descriptor: an in-process writer would
	// die with the orchestrator while the detached service keeps running.
	logF, err := openLogFile(spec.LogFile)
	if err != nil {
		return res, fmt.Errorf("open log file for %s: %w", name, err)
	}
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		_ = logF.Close()
		return res, &LaunchError{Name: name, LogFile: spec.LogFile, Err: err}
	}
	pid := cmd.Process.Pid
	res.PID = pid
	if err := writePIDFile(spec.PIDFile, pid); err != nil {
		s.logger.Warn("failed to write pidfile", "service", name, "error", err)
	}
	_ = logF.Close()
	// Detach: the service must survive orchestrator exit; liveness is
	// re-derived from the PID file from here on.
	_ = cmd.Process.Release()

	s.logger.Info("service launched", "service", name, "pid", pid, "log", spec.LogFile)

	if err := s.confirmLaunch(name, spec); err != nil {
		removePIDFile(spec.PIDFile)
		return res, err
	}
	if s.onStart != nil {
		s.onStart(name, pid)
	}
	return res, nil
}

// confirmLaunch polls liveness until the confirmation window elapses.
// A heuristic, not a guarantee: a slow starter that dies right after the
// window closes is still reported as started.
func (s *Supervisor) confirmLaunch(name string, spec Spec) error {
	deadline := time.Now().Add(s.confirmWindow)
	for time.Now().Before(deadline) {
		alive, err := (detector.PIDFileDetector{PIDFile: spec.PIDFile}).Alive()
		if err != nil {
			return &LaunchError{Name: name, LogFile: spec.LogFile, Err: err}
		}
		if !alive {
			return &LaunchError{Name: name, LogFile: spec.LogFile}
		}
		time.Sleep(s.confirmInterval)
	}
	return nil
}

// Stop sends a graceful termination signal, polls once per second up to
// grace, then escalates to a forceful kill. The PID file is removed in all
// paths so a later Start cannot see a false "already running".
func (s *Supervisor) Stop(name string, grace time.Duration) (StopResult, error) {
	spec, ok := s.specs[name]
	if !ok {
		return StopResult{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	if grace <= 0 {
		grace = DefaultStopGrace
	}
	res := StopResult{Name: name}
	alive, err := s.IsAlive(name)
	if err != nil {
		return res, err
	}
	if !alive {
		s.logger.Info("service not running", "service", name)
		return res, nil
	}
	pid := readPIDFile(spec.PIDFile)
	res.WasRunning = true
	res.PID = pid

	s.logger.Info("stopping service", "service", name, "pid", pid)
	if err := signalTerm(pid); err != nil {
		s.logger.Warn("graceful signal failed", "service", name, "pid", pid, "error", err)
	}
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if ok, _ := (detector.PIDDetector{PID: pid}).Alive(); !ok {
			break
		}
		time.Sleep(stopPollInterval)
	}
	if ok, _ := (detector.PIDDetector{PID: pid}).Alive(); ok {
		s.logger.Warn("graceful shutdown timed out, killing", "service", name, "pid", pid)
		_ = signalKill(pid)
		res.Killed = true
	}
	removePIDFile(spec.PIDFile)
	if s.onStop != nil {
		s.onStop(name, pid)
	}
	return res, nil
}

// Status derives the service state purely from IsAlive.
func (s *Supervisor) Status(name string) (Status, error) {
	spec, ok := s.specs[name]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	st := Status{Name: name, PIDFile: spec.PIDFile, LogFile: spec.LogFile}
	pid := readPIDFile(spec.PIDFile)
	alive, err := s.IsAlive(name)
	if err != nil {
		return st, err
	}
	if alive {
		st.Running = true
		st.PID = pid
		st.DetectedBy = detector.PIDFileDetector{PIDFile: spec.PIDFile}.Describe()
	}
	return st, nil
}

// StatusAll returns statuses for every registered service in order.
func (s *Supervisor) StatusAll() []Status {
	out := make([]Status, 0, len(s.order))
	for _, name := range s.order {
		st, err := s.Status(name)
		if err != nil {
			st = Status{Name: name}
		}
		out = append(out, st)
	}
	return out
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	// #nosec G304
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
