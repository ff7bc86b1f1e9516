package engine

import (
	"context"

	"runbox/internal/sandbox/result"
	"runbox/internal/sandbox/spec"
)

// Engine executes a RunSpec inside an isolated sandbox.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error)
	Kill(ctx context.Context, executionID string) error
}

// Config controls sandbox engine behavior.
type Config struct {
	CgroupRoot           string
	StdoutStderrMaxBytes int64
	EnableCgroup         bool
	EnableNamespaces     bool
}
