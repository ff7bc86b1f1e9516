// Package result defines sandbox execution results and status mapping.
package result

// Status represents the final outcome of one execution.
type Status string

const (
	StatusOK               Status = "ok"
	StatusError            Status = "error"
	StatusTimedOut         Status = "timed_out"
	StatusResourceExceeded Status = "resource_exceeded"
	StatusSetupFailure     Status = "setup_failure"
)

// Billable reports whether a run with this status consumes a credit.
// Setup failures are infrastructure faults and are never charged.
func (s Status) Billable() bool {
	return s != StatusSetupFailure
}

// RunResult captures raw sandbox execution data before classification.
type RunResult struct {
	ExitCode   int
	TimeMs     int64
	WallTimeMs int64
	MemoryKB   int64
	OutputKB   int64
	Stdout     string
	Stderr     string
	OomKilled  bool
	TimedOut   bool
}

// Outcome is the classified result handed back to the execution pipeline.
type Outcome struct {
	ExecutionID string
	Status      Status
	ExitCode    int
	DurationMs  int64
	MemoryKB    int64
	Stdout      string
	Stderr      string
	Truncated   bool
}
