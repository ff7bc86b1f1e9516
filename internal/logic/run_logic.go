package logic

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"runbox/internal/artifact"
	"runbox/internal/repository"
	sandboxresult "runbox/internal/sandbox/result"
	"runbox/internal/sandbox/runner"
	"runbox/internal/svc"
	"runbox/internal/types"
	pkgerrors "runbox/pkg/errors"
	"runbox/pkg/utils/logger"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"go.uber.org/zap"
)

// ExecutionManager gates, runs and bills code executions.
type ExecutionManager struct {
	svcCtx *svc.ServiceContext
}

func NewExecutionManager(svcCtx *svc.ServiceContext) *ExecutionManager {
	return &ExecutionManager{svcCtx: svcCtx}
}

// Run executes one snippet for a verified user. Every completed run is
// billed, including runs where the user's code failed. Sandbox setup
// failures are retried once and never billed.
func (m *ExecutionManager) Run(ctx context.Context, req *types.RunRequest) (*types.RunResponse, error) {
	username := strings.TrimSpace(req.Username)
	language := strings.ToLower(strings.TrimSpace(req.Language))
	logger.Info(ctx, "run start", zap.String("username", username), zap.String("language", language))

	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := m.checkWindow(ctx, user.ID); err != nil {
		logger.Warn(ctx, "run rejected by trust gate", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	if _, err := m.svcCtx.Languages.Resolve(language); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.LanguageNotSupported)
	}
	if int64(len(req.Code)) > m.svcCtx.Config.MaxCodeBytes {
		logger.Warn(ctx, "run code too large", zap.Int64("user_id", user.ID), zap.Int("bytes", len(req.Code)))
		return nil, pkgerrors.Newf(pkgerrors.CodeTooLarge, "code exceeds %d bytes", m.svcCtx.Config.MaxCodeBytes)
	}

	if err := m.svcCtx.Pool.Acquire(ctx); err != nil {
		logger.Warn(ctx, "run rejected by worker pool", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	defer m.svcCtx.Pool.Release()

	executionID := uuid.NewString()
	outcome, err := m.runWithRetry(ctx, runner.RunRequest{
		ExecutionID: executionID,
		Language:    language,
		Code:        req.Code,
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.SandboxSetupFailed) {
			m.recordSetupFailure(ctx, executionID, user.ID, language)
		}
		logger.Error(ctx, "run did not complete", zap.Int64("user_id", user.ID), zap.String("execution_id", executionID), zap.Error(err))
		return nil, err
	}

	cost := m.svcCtx.Config.Billing.CostPerRun
	var totalCost float64
	var fnInfo *types.FunctionRunInfo
	var functionID sql.NullInt64

	err = withTransaction(ctx, m.svcCtx.Conn, func(session sqlx.Session) error {
		if req.Name != "" {
			deps := extractDependencies(language, req.Code)
			fn, upsertErr := m.svcCtx.FunctionRepo.WithSession(session).UpsertRun(ctx, &repository.Function{
				UserID:       user.ID,
				Language:     language,
				Name:         req.Name,
				Code:         req.Code,
				Dependencies: joinDependencies(deps),
			})
			if upsertErr != nil {
				return upsertErr
			}
			functionID = sql.NullInt64{Int64: fn.ID, Valid: true}
			fnInfo = &types.FunctionRunInfo{Name: fn.Name, RunCount: fn.RunCount}
		}

		if _, createErr := m.svcCtx.ExecutionRepo.WithSession(session).Create(ctx, &repository.Execution{
			ExecutionID: executionID,
			UserID:      user.ID,
			FunctionID:  functionID,
			Language:    language,
			Status:      string(outcome.Status),
			ExitCode:    int64(outcome.ExitCode),
			DurationMs:  outcome.DurationMs,
			Stdout:      outcome.Stdout,
			Stderr:      outcome.Stderr,
			Cost:        cost,
		}); createErr != nil {
			return createErr
		}

		total, usageErr := m.svcCtx.UserRepo.WithSession(session).AddUsage(ctx, user.ID, language, cost)
		if usageErr != nil {
			return usageErr
		}
		totalCost = total
		return nil
	})
	if err != nil {
		logger.Error(ctx, "run billing transaction failed", zap.Int64("user_id", user.ID), zap.String("execution_id", executionID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.ExecutionRecordFailed)
	}

	m.publishUsage(ctx, executionID, user.ID, language, outcome, cost)
	m.archive(ctx, executionID, outcome)

	logger.Info(ctx, "run finished",
		zap.Int64("user_id", user.ID),
		zap.String("execution_id", executionID),
		zap.String("status", string(outcome.Status)),
		zap.Int64("duration_ms", outcome.DurationMs))

	return &types.RunResponse{
		ExecutionID: executionID,
		Status:      string(outcome.Status),
		ExitCode:    outcome.ExitCode,
		Stdout:      outcome.Stdout,
		Stderr:      outcome.Stderr,
		DurationMs:  outcome.DurationMs,
		Cost:        cost,
		TotalCost:   totalCost,
		Truncated:   outcome.Truncated,
		Function:    fnInfo,
	}, nil
}

func (m *ExecutionManager) runWithRetry(ctx context.Context, req runner.RunRequest) (sandboxresult.Outcome, error) {
	outcome, err := m.svcCtx.Runner.Run(ctx, req)
	if err == nil {
		return outcome, nil
	}
	if !pkgerrors.Is(err, pkgerrors.SandboxSetupFailed) {
		return sandboxresult.Outcome{}, err
	}
	logger.Warn(ctx, "sandbox setup failed, retrying once", zap.String("execution_id", req.ExecutionID), zap.Error(err))
	return m.svcCtx.Runner.Run(ctx, req)
}

func (m *ExecutionManager) checkWindow(ctx context.Context, userID int64) error {
	window, err := m.svcCtx.SessionRepo.Get(ctx, userID)
	if err != nil {
		logger.Error(ctx, "run read window failed", zap.Int64("user_id", userID), zap.Error(err))
		return pkgerrors.Wrap(err, pkgerrors.CacheError)
	}
	if window == nil {
		return pkgerrors.New(pkgerrors.NotVerified)
	}
	if !window.Active(now(m.svcCtx)) {
		return pkgerrors.New(pkgerrors.WindowExpired)
	}
	return nil
}

// recordSetupFailure keeps a non-billed trace of infrastructure faults.
func (m *ExecutionManager) recordSetupFailure(ctx context.Context, executionID string, userID int64, language string) {
	_, err := m.svcCtx.ExecutionRepo.Create(ctx, &repository.Execution{
		ExecutionID: executionID,
		UserID:      userID,
		Language:    language,
		Status:      string(sandboxresult.StatusSetupFailure),
		ExitCode:    -1,
	})
	if err != nil {
		logger.Warn(ctx, "record setup failure failed", zap.String("execution_id", executionID), zap.Error(err))
	}
}

func (m *ExecutionManager) publishUsage(ctx context.Context, executionID string, userID int64, language string, outcome sandboxresult.Outcome, cost float64) {
	if m.svcCtx.Usage == nil {
		return
	}
	err := m.svcCtx.Usage.PublishUsage(ctx, repository.UsageEvent{
		ExecutionID: executionID,
		UserID:      userID,
		Language:    language,
		Status:      string(outcome.Status),
		DurationMs:  outcome.DurationMs,
		Cost:        cost,
		OccurredAt:  now(m.svcCtx),
	})
	if err != nil {
		logger.Warn(ctx, "usage publish failed", zap.String("execution_id", executionID), zap.Error(err))
	}
}

func (m *ExecutionManager) archive(ctx context.Context, executionID string, outcome sandboxresult.Outcome) {
	if m.svcCtx.Artifacts == nil {
		return
	}
	_, err := m.svcCtx.Artifacts.Archive(ctx, artifact.Record{
		ExecutionID: executionID,
		Stdout:      outcome.Stdout,
		Stderr:      outcome.Stderr,
	})
	if err != nil {
		logger.Warn(ctx, "artifact archive failed", zap.String("execution_id", executionID), zap.Error(err))
	}
}

func (m *ExecutionManager) getUser(ctx context.Context, username string) (*repository.User, error) {
	user, err := m.svcCtx.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, pkgerrors.New(pkgerrors.UserNotFound)
		}
		logger.Error(ctx, "get user failed", zap.String("username", username), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	return user, nil
}
