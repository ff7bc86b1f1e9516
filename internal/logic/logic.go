package logic

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"runbox/internal/svc"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func withTransaction(ctx context.Context, conn sqlx.SqlConn, fn func(session sqlx.Session) error) error {
	return conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		return fn(session)
	})
}

func now(svcCtx *svc.ServiceContext) time.Time {
	if svcCtx != nil && svcCtx.Now != nil {
		return svcCtx.Now()
	}
	return time.Now()
}

// generateCode produces a 6-char verification code from A-Z0-9.
func generateCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
