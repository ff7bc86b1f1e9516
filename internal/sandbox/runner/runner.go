// Package runner prepares a scratch workspace and drives the engine for one run.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"runbox/internal/sandbox/engine"
	"runbox/internal/sandbox/profile"
	"runbox/internal/sandbox/result"
	"runbox/internal/sandbox/spec"
	appErr "runbox/pkg/errors"
	"runbox/pkg/utils/logger"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

const (
	stdoutFileName = "stdout.log"
	stderrFileName = "stderr.log"

	// TruncationMarker is appended to captured output that hit the cap.
	TruncationMarker = "\n[output truncated]"
)

// RunRequest describes one execution task.
type RunRequest struct {
	ExecutionID string
	Language    string
	Code        string
	Limits      spec.ResourceLimit
}

// Runner executes user code in an isolated scratch workspace.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (result.Outcome, error)
}

// Config controls runner behavior.
type Config struct {
	ScratchRoot    string
	DisableNetwork bool
	DefaultLimits  spec.ResourceLimit
	MaxOutputBytes int64
}

type defaultRunner struct {
	cfg      Config
	registry *profile.Registry
	engine   engine.Engine
}

// New creates a runner backed by the given engine and language registry.
func New(cfg Config, registry *profile.Registry, eng engine.Engine) (Runner, error) {
	if registry == nil {
		return nil, fmt.Errorf("language registry is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.ScratchRoot == "" {
		cfg.ScratchRoot = filepath.Join(os.TempDir(), "runbox")
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 1 << 20
	}
	if cfg.DefaultLimits.WallTimeMs <= 0 {
		cfg.DefaultLimits.WallTimeMs = 10000
	}
	if cfg.DefaultLimits.MemoryMB <= 0 {
		cfg.DefaultLimits.MemoryMB = 128
	}
	if cfg.DefaultLimits.PIDs <= 0 {
		cfg.DefaultLimits.PIDs = 64
	}
	return &defaultRunner{cfg: cfg, registry: registry, engine: eng}, nil
}

func (r *defaultRunner) Run(ctx context.Context, req RunRequest) (result.Outcome, error) {
	if req.ExecutionID == "" {
		return result.Outcome{}, appErr.ValidationError("execution_id", "required")
	}
	if strings.TrimSpace(req.Code) == "" {
		return result.Outcome{}, appErr.ValidationError("code", "required")
	}

	lang, err := r.registry.Resolve(req.Language)
	if err != nil {
		return result.Outcome{}, appErr.Wrap(err, appErr.LanguageNotSupported)
	}

	workDir, err := r.setupWorkspace(req.ExecutionID, lang, req.Code)
	if err != nil {
		return result.Outcome{}, appErr.Wrap(err, appErr.SandboxSetupFailed)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn(ctx, "scratch cleanup failed", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	cmd, err := buildCommand(lang.RunCmdTpl, lang, workDir)
	if err != nil {
		return result.Outcome{}, appErr.Wrap(err, appErr.SandboxSetupFailed)
	}

	limits := applyLimitDefaults(req.Limits, r.cfg.DefaultLimits)
	stdoutPath := filepath.Join(workDir, stdoutFileName)
	stderrPath := filepath.Join(workDir, stderrFileName)
	runSpec := spec.RunSpec{
		ExecutionID:    req.ExecutionID,
		WorkDir:        workDir,
		Cmd:            cmd,
		Env:            buildEnv(lang, workDir),
		StdoutPath:     stdoutPath,
		StderrPath:     stderrPath,
		DisableNetwork: r.cfg.DisableNetwork,
		Limits:         limits,
	}

	res, err := r.engine.Run(ctx, runSpec)
	if err != nil {
		return result.Outcome{}, appErr.Wrap(err, appErr.SandboxSetupFailed)
	}

	outcome := classify(req.ExecutionID, res, limits)
	if exceedsCap(stdoutPath, r.cfg.MaxOutputBytes) {
		outcome.Truncated = true
		outcome.Stdout += TruncationMarker
	}
	if exceedsCap(stderrPath, r.cfg.MaxOutputBytes) {
		outcome.Truncated = true
		outcome.Stderr += TruncationMarker
	}
	return outcome, nil
}

func exceedsCap(path string, maxBytes int64) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > maxBytes
}

func (r *defaultRunner) setupWorkspace(executionID string, lang profile.LanguageSpec, code string) (string, error) {
	workDir := filepath.Join(r.cfg.ScratchRoot, executionID)
	if err := os.MkdirAll(workDir, 0750); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	srcPath := filepath.Join(workDir, lang.SourceFile)
	if err := os.WriteFile(srcPath, []byte(code), 0640); err != nil {
		_ = os.RemoveAll(workDir)
		return "", fmt.Errorf("write source file: %w", err)
	}
	return workDir, nil
}

func buildCommand(tpl string, lang profile.LanguageSpec, workDir string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("command template is required")
	}
	expanded := strings.ReplaceAll(tpl, "{src}", filepath.Join(workDir, lang.SourceFile))
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, fmt.Errorf("parse command template: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("command template is empty after expansion")
	}
	return fields, nil
}

func buildEnv(lang profile.LanguageSpec, workDir string) []string {
	env := []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"HOME=" + workDir,
	}
	return append(env, lang.Env...)
}

func applyLimitDefaults(limits, defaults spec.ResourceLimit) spec.ResourceLimit {
	if limits.WallTimeMs <= 0 {
		limits.WallTimeMs = defaults.WallTimeMs
	}
	if limits.CPUTimeMs <= 0 {
		limits.CPUTimeMs = defaults.CPUTimeMs
	}
	if limits.MemoryMB <= 0 {
		limits.MemoryMB = defaults.MemoryMB
	}
	if limits.OutputMB <= 0 {
		limits.OutputMB = defaults.OutputMB
	}
	if limits.PIDs <= 0 {
		limits.PIDs = defaults.PIDs
	}
	return limits
}

func classify(executionID string, res result.RunResult, limits spec.ResourceLimit) result.Outcome {
	outcome := result.Outcome{
		ExecutionID: executionID,
		ExitCode:    res.ExitCode,
		DurationMs:  res.WallTimeMs,
		MemoryKB:    res.MemoryKB,
		Stdout:      res.Stdout,
		Stderr:      res.Stderr,
	}

	switch {
	case res.TimedOut:
		outcome.Status = result.StatusTimedOut
	case res.OomKilled:
		outcome.Status = result.StatusResourceExceeded
	case limits.MemoryMB > 0 && res.MemoryKB > limits.MemoryMB*1024:
		outcome.Status = result.StatusResourceExceeded
	case res.ExitCode != 0:
		outcome.Status = result.StatusError
	default:
		outcome.Status = result.StatusOK
	}
	return outcome
}
