package logic

import (
	"context"
	stderrors "errors"
	"strings"

	"runbox/internal/repository"
	"runbox/internal/svc"
	"runbox/internal/types"
	pkgerrors "runbox/pkg/errors"
	"runbox/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// VerificationManager issues one-time codes and manages trust windows.
type VerificationManager struct {
	svcCtx *svc.ServiceContext
}

func NewVerificationManager(svcCtx *svc.ServiceContext) *VerificationManager {
	return &VerificationManager{svcCtx: svcCtx}
}

// RequestCode issues a fresh challenge. The caller must present the
// account password. A new request silently replaces any pending code.
// If the user already holds a live trust window, no code is issued.
func (m *VerificationManager) RequestCode(ctx context.Context, username, password string) (*types.OTPResponse, error) {
	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "otp request with wrong password", zap.Int64("user_id", user.ID))
		return nil, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	nowTs := now(m.svcCtx)

	window, err := m.svcCtx.SessionRepo.Get(ctx, user.ID)
	if err != nil {
		logger.Error(ctx, "otp request read window failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.CacheError)
	}
	if window.Active(nowTs) {
		logger.Info(ctx, "otp request while already verified", zap.Int64("user_id", user.ID))
		return &types.OTPResponse{AlreadyVerified: true}, nil
	}

	code, err := generateCode()
	if err != nil {
		logger.Error(ctx, "otp code generation failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}

	expiresAt := nowTs.Add(m.svcCtx.Config.Verification.CodeTTL)
	if err := m.svcCtx.OTPRepo.Issue(ctx, user.ID, code, expiresAt); err != nil {
		logger.Error(ctx, "otp issue failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.CacheError)
	}

	if err := m.svcCtx.Deliverer.Deliver(ctx, user.Username, user.Email, code); err != nil {
		logger.Error(ctx, "otp delivery failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.OTPDeliveryFailed)
	}

	logger.Info(ctx, "otp issued", zap.Int64("user_id", user.ID))
	resp := &types.OTPResponse{
		Delivered:        true,
		ExpiresInSeconds: int64(m.svcCtx.Config.Verification.CodeTTL.Seconds()),
	}
	if m.svcCtx.Config.Verification.EchoCode {
		resp.Code = code
	}
	return resp, nil
}

// Verify redeems a code and opens a trust window. The code is consumed
// atomically so it can never be redeemed twice.
func (m *VerificationManager) Verify(ctx context.Context, username, code string) (*types.VerifyResponse, error) {
	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := validateCode(code); err != nil {
		return nil, err
	}
	nowTs := now(m.svcCtx)

	outcome, err := m.svcCtx.OTPRepo.Consume(ctx, user.ID, code, nowTs)
	if err != nil {
		logger.Error(ctx, "otp consume failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.CacheError)
	}
	switch outcome {
	case repository.OTPConsumeOK:
	case repository.OTPConsumeNone:
		logger.Warn(ctx, "otp verify without active challenge", zap.Int64("user_id", user.ID))
		return nil, pkgerrors.New(pkgerrors.NoActiveChallenge)
	case repository.OTPConsumeExpired:
		logger.Warn(ctx, "otp verify with expired challenge", zap.Int64("user_id", user.ID))
		return nil, pkgerrors.New(pkgerrors.ChallengeExpired)
	case repository.OTPConsumeMismatch:
		logger.Warn(ctx, "otp verify code mismatch", zap.Int64("user_id", user.ID))
		return nil, pkgerrors.New(pkgerrors.CodeMismatch)
	default:
		return nil, pkgerrors.Newf(pkgerrors.InternalServerError, "unexpected consume outcome: %s", outcome)
	}

	window := repository.SessionWindow{
		VerifiedAt: nowTs,
		ExpiresAt:  nowTs.Add(m.svcCtx.Config.Verification.WindowTTL),
	}
	if err := m.svcCtx.SessionRepo.Open(ctx, user.ID, window); err != nil {
		logger.Error(ctx, "open trust window failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.CacheError)
	}

	logger.Info(ctx, "trust window opened", zap.Int64("user_id", user.ID), zap.Time("expires_at", window.ExpiresAt))
	return &types.VerifyResponse{
		VerifiedAt:       window.VerifiedAt.Unix(),
		ExpiresAt:        window.ExpiresAt.Unix(),
		RemainingMinutes: window.Remaining(nowTs).Minutes(),
	}, nil
}

// Status reports the current trust window. Expiry is always recomputed
// against the clock, never cached.
func (m *VerificationManager) Status(ctx context.Context, username string) (*types.StatusResponse, error) {
	user, err := m.getUser(ctx, username)
	if err != nil {
		return nil, err
	}
	nowTs := now(m.svcCtx)

	window, err := m.svcCtx.SessionRepo.Get(ctx, user.ID)
	if err != nil {
		logger.Error(ctx, "status read window failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.Wrap(err, pkgerrors.CacheError)
	}
	if window == nil {
		return &types.StatusResponse{Verified: false}, nil
	}

	resp := &types.StatusResponse{
		Verified:         window.Active(nowTs),
		VerifiedAt:       window.VerifiedAt.Unix(),
		ExpiresAt:        window.ExpiresAt.Unix(),
		RemainingMinutes: window.Remaining(nowTs).Minutes(),
	}
	return resp, nil
}

func (m *VerificationManager) getUser(ctx context.Context, username string) (*repository.User, error) {
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
