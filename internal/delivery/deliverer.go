// Package delivery abstracts how verification codes reach the user.
package delivery

import (
	"context"

	"runbox/pkg/utils/logger"

	"go.uber.org/zap"
)

// Deliverer sends a verification code over some out-of-band channel.
type Deliverer interface {
	Deliver(ctx context.Context, username, email, code string) error
}

// LogDeliverer writes the code to the service log. It stands in for a
// real mail or SMS integration in development deployments.
type LogDeliverer struct{}

func NewLogDeliverer() *LogDeliverer {
	return &LogDeliverer{}
}

func (d *LogDeliverer) Deliver(ctx context.Context, username, email, code string) error {
	logger.Info(ctx, "verification code issued",
		zap.String("username", username),
		zap.String("email", email),
		zap.String("code", code))
	return nil
}
