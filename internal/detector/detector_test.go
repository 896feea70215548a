//go:build !windows

package detector

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestParsePIDOnly(t *testing.T) {
	pid, meta, err := Parse([]byte("1234\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pid != 1234 || meta != nil {
		t.Fatalf("got pid=%d meta=%+v", pid, meta)
	}
}

func TestParsePIDWithMeta(t *testing.T) {
	pid, meta, err := Parse([]byte("42\n{\"start_unix\":1700000000}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pid != 42 {
		t.Fatalf("pid = %d, want 42", pid)
	}
	if meta == nil || meta.StartUnix != 1700000000 {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseGarbageMetaIsIgnored(t *testing.T) {
	pid, meta, err := Parse([]byte("7\nnot-json"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pid != 7 || meta != nil {
		t.Fatalf("got pid=%d meta=%+v", pid, meta)
	}
}

func TestParseRejectsEmptyAndNonNumeric(t *testing.T) {
	if _, _, err := Parse([]byte("")); err == nil {
		t.Fatalf("empty input should fail")
	}
	if _, _, err := Parse([]byte("abc\n")); err == nil {
		t.Fatalf("non-numeric pid should fail")
	}
}

func TestPIDFileDetectorMissingFileNotAlive(t *testing.T) {
	d := PIDFileDetector{PIDFile: filepath.Join(t.TempDir(), "missing.pid")}
	alive, err := d.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if alive {
		t.Fatalf("missing pidfile reported alive")
	}
}

func TestPIDFileDetectorLiveProcess(t *testing.T) {
	pid := os.Getpid()
	path := filepath.Join(t.TempDir(), "self.pid")
	start := ProcStartUnix(pid)
	if start <= 0 {
		t.Skipf("process start time unavailable on this platform")
	}
	content := fmt.Sprintf("%d\n{\"start_unix\":%d}\n", pid, start)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pidfile: %v", err)
	}
	alive, err := PIDFileDetector{PIDFile: path}.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if !alive {
		t.Fatalf("own pid with correct start time reported dead")
	}
}

func TestPIDFileDetectorDetectsReusedPID(t *testing.T) {
	pid := os.Getpid()
	path := filepath.Join(t.TempDir(), "self.pid")
	start := ProcStartUnix(pid)
	if start <= 0 {
		t.Skipf("process start time unavailable on this platform")
	}
	// A start time that cannot match the live process marks the PID as reused.
	content := fmt.Sprintf("%d\n{\"start_unix\":%d}\n", pid, start-12345)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pidfile: %v", err)
	}
	alive, err := PIDFileDetector{PIDFile: path}.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if alive {
		t.Fatalf("mismatched start time should report not alive")
	}
}

func TestPIDDetectorDeadProcess(t *testing.T) {
	cmd := exec.Command("sleep", "0.01")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start helper: %v", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Wait()
	alive, err := PIDDetector{PID: pid}.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if alive {
		t.Fatalf("reaped pid %d reported alive", pid)
	}
}

func TestPIDDetectorSelf(t *testing.T) {
	alive, err := PIDDetector{PID: os.Getpid()}.Alive()
	if err != nil || !alive {
		t.Fatalf("own pid: alive=%v err=%v", alive, err)
	}
}

func TestProcStartUnixInvalidPID(t *testing.T) {
	if got := ProcStartUnix(0); got != 0 {
		t.Fatalf("ProcStartUnix(0) = %d, want 0", got)
	}
	if got := ProcStartUnix(-5); got != 0 {
		t.Fatalf("ProcStartUnix(-5) = %d, want 0", got)
	}
}
