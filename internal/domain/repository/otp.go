package repository

import (
	"context"
	"time"
)

// OTPRecord representa el intento de recuperación vigente de un usuario.
// Hay a lo sumo un registro vivo por user_id.
//
// ResetTokenHash guarda sha256(token) en hex; el token en claro solo existe
// en la respuesta del paso de verificación. Vacío = código aún no verificado.
// El código y el token traen cada uno su propia expiración.
type OTPRecord struct {
	ID                  string
	UserID              string
	Code                int
	CodeExpiresAt       time.Time
	ResetTokenHash      string
	ResetTokenExpiresAt time.Time
	CreatedAt           time.Time
}

// CodeExpired indica si el código ya no es usable en el instante dado.
func (r *OTPRecord) CodeExpired(now time.Time) bool {
	return !now.Before(r.CodeExpiresAt)
}

// TokenExpired indica si el reset token ya no es canjeable. Un registro sin
// token (aún no verificado) nunca reporta token expirado.
func (r *OTPRecord) TokenExpired(now time.Time) bool {
	return r.ResetTokenHash != "" && !now.Before(r.ResetTokenExpiresAt)
}

// OTPRepository define operaciones sobre registros OTP.
//
// Replace y la secuencia fetch/validate/delete de la verificación deben ser
// atómicas entre sí para un mismo user_id (transacción o lock por clave):
// de lo contrario un código viejo puede validar un token emitido por una
// solicitud más nueva.
type OTPRepository interface {
	// Exclusive ejecuta fn serializado respecto de cualquier otra llamada
	// Exclusive del mismo user_id (lock por clave o advisory lock).
	// Las operaciones del flujo de recuperación corren adentro de fn.
	Exclusive(ctx context.Context, userID string, fn func(ctx context.Context) error) error

	// Replace elimina cualquier registro previo del usuario e inserta el
	// nuevo, como una sola operación respecto de otros llamados del mismo
	// user_id.
	Replace(ctx context.Context, rec *OTPRecord) error

	// GetByUserID retorna el registro vivo del usuario.
	// Retorna ErrNotFound si no hay solicitud pendiente.
	GetByUserID(ctx context.Context, userID string) (*OTPRecord, error)

	// SetResetTokenHash persiste el hash del reset token y su expiración
	// sobre el registro existente (prueba de verificación exitosa).
	SetResetTokenHash(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// Delete purga el registro del usuario. Borrar un registro inexistente
	// no es error.
	Delete(ctx context.Context, userID string) error

	// DeleteExpired elimina registros muertos (housekeeping): código vencido
	// sin verificar, o token vencido sin canjear. Retorna la cantidad
	// eliminada.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
