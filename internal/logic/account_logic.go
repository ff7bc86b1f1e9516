package logic

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"runbox/internal/repository"
	"runbox/internal/svc"
	"runbox/internal/types"
	pkgerrors "runbox/pkg/errors"
	"runbox/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountManager handles registration and usage reporting.
type AccountManager struct {
	svcCtx *svc.ServiceContext
}

func NewAccountManager(svcCtx *svc.ServiceContext) *AccountManager {
	return &AccountManager{svcCtx: svcCtx}
}

func (m *AccountManager) Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	logger.Info(ctx, "account register start", zap.String("username", username))

	if err := validateUsername(username); err != nil {
		logger.Warn(ctx, "account register invalid username", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		logger.Warn(ctx, "account register invalid email", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		logger.Warn(ctx, "account register invalid password", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error(ctx, "account register hash password failed", zap.String("username", username), zap.Error(err))
		return nil, pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}

	user := &repository.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	userID, err := m.svcCtx.UserRepo.Create(ctx, user)
	if err != nil {
		logger.Warn(ctx, "account register create user failed", zap.String("username", username), zap.Error(err))
		return nil, mapUserCreateError(err)
	}

	logger.Info(ctx, "account register success", zap.Int64("user_id", userID), zap.String("username", username))
	return &types.RegisterResponse{
		UserID:   userID,
		Username: username,
	}, nil
}

func (m *AccountManager) Usage(ctx context.Context, username string) (*types.UsageResponse, error) {
	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}

	totalFunctions, err := m.svcCtx.FunctionRepo.CountByUser(ctx, user.ID)
	if err != nil {
		logger.Error(ctx, "usage count functions failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	totalExecutions, err := m.svcCtx.ExecutionRepo.CountByUser(ctx, user.ID)
	if err != nil {
		logger.Error(ctx, "usage count executions failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}

	return &types.UsageResponse{
		TotalRuns:       user.PythonFunctions + user.JavascriptFunctions,
		PythonRuns:      user.PythonFunctions,
		JavascriptRuns:  user.JavascriptFunctions,
		TotalCost:       user.Cost,
		TotalFunctions:  totalFunctions,
		TotalExecutions: totalExecutions,
	}, nil
}

func (m *AccountManager) ListFunctions(ctx context.Context, username, language string) (*types.FunctionListResponse, error) {
	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}

	var fns []*repository.Function
	if language != "" {
		if _, err := m.svcCtx.Languages.Resolve(language); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.LanguageNotSupported)
		}
		fns, err = m.svcCtx.FunctionRepo.ListByUserAndLanguage(ctx, user.ID, language)
	} else {
		fns, err = m.svcCtx.FunctionRepo.ListByUser(ctx, user.ID)
	}
	if err != nil {
		logger.Error(ctx, "list functions failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}

	resp := &types.FunctionListResponse{Functions: make([]types.FunctionInfo, 0, len(fns))}
	for _, fn := range fns {
		resp.Functions = append(resp.Functions, buildFunctionInfo(fn))
	}
	return resp, nil
}

func (m *AccountManager) FunctionDetail(ctx context.Context, username, language, name string) (*types.FunctionDetailResponse, error) {
	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}

	fn, err := m.svcCtx.FunctionRepo.GetByName(ctx, user.ID, language, name)
	if err != nil {
		if stderrors.Is(err, repository.ErrFunctionNotFound) {
			return nil, pkgerrors.New(pkgerrors.FunctionNotFound)
		}
		logger.Error(ctx, "get function failed", zap.Int64("user_id", user.ID), zap.String("name", name), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}

	execs, err := m.svcCtx.ExecutionRepo.ListByFunction(ctx, fn.ID, 20)
	if err != nil {
		logger.Error(ctx, "list function executions failed", zap.Int64("function_id", fn.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}

	resp := &types.FunctionDetailResponse{
		Function:         buildFunctionInfo(fn),
		RecentExecutions: make([]types.ExecutionInfo, 0, len(execs)),
	}
	for _, exec := range execs {
		resp.RecentExecutions = append(resp.RecentExecutions, types.ExecutionInfo{
			ExecutionID: exec.ExecutionID,
			Status:      exec.Status,
			ExitCode:    exec.ExitCode,
			DurationMs:  exec.DurationMs,
			Cost:        exec.Cost,
			CreatedAt:   exec.CreatedAt.Unix(),
		})
	}
	return resp, nil
}

func (m *AccountManager) getUser(ctx context.Context, username string) (*repository.User, error) {
	user, err := m.svcCtx.UserRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, pkgerrors.New(pkgerrors.UserNotFound)
		}
		logger.Error(ctx, "get user failed", zap.String("username", username), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	return user, nil
}

func buildFunctionInfo(fn *repository.Function) types.FunctionInfo {
	info := types.FunctionInfo{
		Name:         fn.Name,
		Language:     fn.Language,
		RunCount:     fn.RunCount,
		Dependencies: splitDependencies(fn.Dependencies),
		CreatedAt:    fn.CreatedAt.Unix(),
	}
	if fn.LastRunAt.Valid {
		info.LastRunAt = fn.LastRunAt.Time.Unix()
	}
	return info
}

func mapUserCreateError(err error) error {
	switch {
	case stderrors.Is(err, repository.ErrUsernameExists):
		return pkgerrors.New(pkgerrors.UsernameAlreadyExists)
	case stderrors.Is(err, repository.ErrEmailExists):
		return pkgerrors.New(pkgerrors.EmailAlreadyExists)
	case stderrors.Is(err, repository.ErrDuplicate):
		return pkgerrors.New(pkgerrors.RecordAlreadyExists)
	default:
		return pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
}
