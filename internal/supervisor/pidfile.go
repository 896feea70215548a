package supervisor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/loykin/devstack/internal/detector"
)

// writePIDFile persists the PID plus a meta line pinning the process start
// time, so a reused PID is not mistaken for the managed service later.
func writePIDFile(path string, pid int) error {
	if path == "" || pid <= 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	content := strconv.Itoa(pid)
	if start := detector.ProcStartUnix(pid); start > 0 {
		if b, err := json.Marshal(detector.Meta{StartUnix: start}); err == nil {
			content += "\n" + string(b)
		}
	}
	return os.WriteFile(path, []byte(content+"\n"), 0o600)
}

// readPIDFile returns the stored PID, or 0 when the file is absent or unparsable.
func readPIDFile(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, _, err := detector.Parse(b)
	if err != nil {
		return 0
	}
	return pid
}

// removePIDFile best-effort
func removePIDFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
