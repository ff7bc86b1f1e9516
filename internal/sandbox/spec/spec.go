// Package spec defines the execution specification and resource limits.
package spec

// ResourceLimit describes hard limits enforced by the sandbox.
type ResourceLimit struct {
	CPUTimeMs  int64
	WallTimeMs int64
	MemoryMB   int64
	OutputMB   int64
	PIDs       int64
}

// RunSpec is the unified execution specification for one run.
type RunSpec struct {
	ExecutionID    string
	WorkDir        string
	Cmd            []string
	Env            []string
	StdoutPath     string
	StderrPath     string
	DisableNetwork bool
	Limits         ResourceLimit
}
