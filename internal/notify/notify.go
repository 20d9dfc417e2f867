// Package notify es el canal de notificación out-of-band del flujo de
// recuperación. El core solo produce los valores; la entrega vive acá.
package notify

import (
	"context"
	"time"
)

// Notifier entrega credenciales de recuperación al usuario.
type Notifier interface {
	// SendOTP entrega el código de un solo uso.
	SendOTP(ctx context.Context, email string, code int, ttl time.Duration) error

	// SendPasswordChanged avisa que el password fue cambiado.
	SendPasswordChanged(ctx context.Context, email string) error
}
