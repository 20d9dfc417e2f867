package notify

import (
	"context"
	"time"

	"github.com/dropDatabas3/careid/internal/observability/logger"
)

// LogNotifier registra la entrega sin mandar nada. Default en dev cuando no
// hay SMTP configurado. Nunca loguea el código.
type LogNotifier struct{}

func (LogNotifier) SendOTP(ctx context.Context, email string, code int, ttl time.Duration) error {
	logger.From(ctx).Info("otp delivery skipped (no smtp configured)",
		logger.Component("notify"),
		logger.Email(email),
	)
	return nil
}

func (LogNotifier) SendPasswordChanged(ctx context.Context, email string) error {
	logger.From(ctx).Info("password-changed notice skipped (no smtp configured)",
		logger.Component("notify"),
		logger.Email(email),
	)
	return nil
}
