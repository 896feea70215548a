package detector

// Detector is a strategy that determines if a managed process is running.
// Implementations may check a PID file or a raw PID number.
// It must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the process is detected as running.
	Alive() (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}

// ProcStartUnix returns the start time of pid as Unix seconds, or 0 when it
// cannot be determined. Callers record it in PID file meta to pin a PID to a
// single process incarnation.
func ProcStartUnix(pid int) int64 { return getProcStartUnix(pid) }
