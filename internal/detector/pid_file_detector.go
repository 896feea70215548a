package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Meta is the optional JSON document following the PID line in a PID file.
// StartUnix pins the PID to a specific process incarnation so a reused PID
// is not mistaken for the managed process.
type Meta struct {
	StartUnix int64 `json:"start_unix"`
}

// PIDFileDetector detects a process via a PID file.
type PIDFileDetector struct {
	PIDFile string
}

func (d PIDFileDetector) Alive() (bool, error) {
	data, err := os.ReadFile(d.PIDFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	pid, meta, err := Parse(data)
	if err != nil {
		return false, fmt.Errorf("invalid pidfile %s: %w", d.PIDFile, err)
	}
	if meta != nil && meta.StartUnix > 0 {
		cur := getProcStartUnix(pid)
		if cur > 0 && cur != meta.StartUnix {
			return false, nil // PID reused; not our process
		}
	}
	return pidAlive(pid), nil
}

func (d PIDFileDetector) Describe() string { return "pidfile:" + d.PIDFile }

// PIDDetector detects by a provided PID number.
type PIDDetector struct{ PID int }

func (d PIDDetector) Alive() (bool, error) { return pidAlive(d.PID), nil }
func (d PIDDetector) Describe() string     { return fmt.Sprintf("pid:%d", d.PID) }

// Parse splits PID file contents into the PID on the first line and the
// optional Meta JSON on the second. A bare PID is accepted with nil meta.
func Parse(data []byte) (int, *Meta, error) {
	pidLine, rest, _ := strings.Cut(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	pidStr := strings.TrimSpace(pidLine)
	if pidStr == "" {
		return 0, nil, errors.New("empty pidfile")
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, nil, err
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return pid, nil, nil
	}
	var m Meta
	if err := json.Unmarshal([]byte(rest), &m); err != nil {
		// Return PID even if meta cannot be parsed
		return pid, nil, nil
	}
	return pid, &m, nil
}
