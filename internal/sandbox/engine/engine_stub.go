//go:build !linux

package engine

import (
	"context"
	"fmt"

	"runbox/internal/sandbox/result"
	"runbox/internal/sandbox/spec"
)

type stubEngine struct{}

func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error) {
	return result.RunResult{}, fmt.Errorf("sandbox engine is only supported on linux")
}

func (s *stubEngine) Kill(ctx context.Context, executionID string) error {
	return fmt.Errorf("sandbox engine is only supported on linux")
}
