package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/store"
)

// recordGrace extiende la vida en cache más allá de la expiración del código
// o del token: un registro vencido pero presente permite distinguir
// CodeExpired de NoPendingRequest antes de que el sweeper lo purgue.
const recordGrace = 15 * time.Minute

type otpRepo struct {
	c     *gocache.Cache
	locks *store.KeyedMutex
}

func newOTPRepo(locks *store.KeyedMutex) *otpRepo {
	return &otpRepo{
		c:     gocache.New(gocache.NoExpiration, time.Minute),
		locks: locks,
	}
}

func otpKey(userID string) string { return "otp:" + userID }

// Exclusive serializa el flujo completo de un usuario con un lock por clave.
// Las operaciones individuales son thread-safe de por sí (go-cache); el lock
// cubre las secuencias fetch/validate/delete que cruzan varias llamadas.
func (r *otpRepo) Exclusive(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	unlock := r.locks.Lock(userID)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (r *otpRepo) Replace(ctx context.Context, rec *repository.OTPRecord) error {
	ttl := time.Until(rec.CodeExpiresAt) + recordGrace
	if ttl <= 0 {
		return repository.ErrInvalidInput
	}
	cp := *rec
	// Set pisa cualquier registro previo: a lo sumo uno vivo por usuario.
	r.c.Set(otpKey(rec.UserID), &cp, ttl)
	return nil
}

func (r *otpRepo) GetByUserID(ctx context.Context, userID string) (*repository.OTPRecord, error) {
	v, ok := r.c.Get(otpKey(userID))
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *(v.(*repository.OTPRecord))
	return &cp, nil
}

func (r *otpRepo) SetResetTokenHash(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	v, ok := r.c.Get(otpKey(userID))
	if !ok {
		return repository.ErrNotFound
	}
	cp := *(v.(*repository.OTPRecord))
	cp.ResetTokenHash = tokenHash
	cp.ResetTokenExpiresAt = expiresAt
	r.c.Set(otpKey(userID), &cp, time.Until(expiresAt)+recordGrace)
	return nil
}

func (r *otpRepo) Delete(ctx context.Context, userID string) error {
	r.c.Delete(otpKey(userID))
	return nil
}

func (r *otpRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	// go-cache expira solo por TTL; acá purgamos los registros ya muertos
	// (código vencido sin verificar, token vencido sin canjear) sin esperar
	// ese TTL extendido.
	n := 0
	for k, item := range r.c.Items() {
		rec, ok := item.Object.(*repository.OTPRecord)
		if !ok {
			continue
		}
		dead := (rec.ResetTokenHash == "" && rec.CodeExpired(now)) || rec.TokenExpired(now)
		if dead {
			r.c.Delete(k)
			n++
		}
	}
	return n, nil
}
