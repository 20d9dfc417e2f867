package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dropDatabas3/careid/internal/domain/repository"
)

const (
	// DefaultCallTimeout limita cada llamada al store cuando el caller
	// no fijó un deadline propio.
	DefaultCallTimeout = 3 * time.Second

	retryBackoff = 100 * time.Millisecond
)

// WithTimeout aplica el CallTimeout si el contexto aún no tiene deadline.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultCallTimeout
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Call ejecuta fn reintentando una sola vez ante fallas transitorias
// (conectividad, timeout) con un backoff corto. Si el reintento también
// falla, el error se reporta como repository.ErrTransient para que los
// services lo distingan de los errores de validación.
func Call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := WithTimeout(ctx, timeout)
	defer cancel()

	b := retry.WithMaxRetries(1, retry.NewConstant(retryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsTransientErr(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil && IsTransientErr(err) {
		return fmt.Errorf("%w: %v", repository.ErrTransient, err)
	}
	return err
}

// IsTransientErr clasifica errores de conectividad/timeout como transitorios.
// Los errores de dominio (ErrNotFound, ErrConflict) nunca lo son.
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if repository.IsNotFound(err) || repository.IsConflict(err) || errors.Is(err, repository.ErrInvalidInput) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
