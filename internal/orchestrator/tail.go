package orchestrator

import (
	"os"
	"strings"
)

// tailFile returns the last n lines of the file at path. Service logs in a
// dev environment stay small enough to read whole; no reverse seeking needed.
func tailFile(path string, n int) ([]string, error) {
	if n <= 0 {
		n = 40
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := strings.TrimRight(string(b), "\n")
	if s == "" {
		return nil, nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
