// Package redisotp implementa OTPRepository sobre Redis.
//
// Cada registro vive como JSON bajo "otp:<user_id>" con expiración del lado
// del server: un código vencido y nunca verificado desaparece solo, sin
// sweeper. Se puede combinar con cualquier UserRepository vía
// store.Compose.
package redisotp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/store"
)

// recordGrace es el margen de TTL por encima de la expiración del código o
// del token, para distinguir vencido de inexistente mientras el registro
// sigue presente.
const recordGrace = 15 * time.Minute

type Repo struct {
	rdb    *redis.Client
	prefix string
	locks  *store.KeyedMutex
}

// New crea el repositorio sobre un cliente Redis existente.
func New(rdb *redis.Client, prefix string) *Repo {
	if prefix == "" {
		prefix = "careid"
	}
	return &Repo{rdb: rdb, prefix: prefix, locks: store.NewKeyedMutex()}
}

func (r *Repo) key(userID string) string {
	return fmt.Sprintf("%s:otp:%s", r.prefix, userID)
}

// Exclusive usa un lock por clave en el proceso. Con múltiples réplicas del
// servicio conviene el adapter pg, que serializa con advisory locks.
func (r *Repo) Exclusive(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	unlock := r.locks.Lock(userID)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

type record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Code           int       `json:"code"`
	CodeExpiresAt  time.Time `json:"code_expires_at"`
	ResetTokenHash string    `json:"reset_token_hash,omitempty"`
	TokenExpiresAt time.Time `json:"reset_token_expires_at,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toRecord(rec *repository.OTPRecord) record {
	return record{
		ID:             rec.ID,
		UserID:         rec.UserID,
		Code:           rec.Code,
		CodeExpiresAt:  rec.CodeExpiresAt,
		ResetTokenHash: rec.ResetTokenHash,
		TokenExpiresAt: rec.ResetTokenExpiresAt,
		CreatedAt:      rec.CreatedAt,
	}
}

func (rec record) domain() *repository.OTPRecord {
	return &repository.OTPRecord{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		Code:                rec.Code,
		CodeExpiresAt:       rec.CodeExpiresAt,
		ResetTokenHash:      rec.ResetTokenHash,
		ResetTokenExpiresAt: rec.TokenExpiresAt,
		CreatedAt:           rec.CreatedAt,
	}
}

func (r *Repo) Replace(ctx context.Context, rec *repository.OTPRecord) error {
	ttl := time.Until(rec.CodeExpiresAt) + recordGrace
	if ttl <= 0 {
		return repository.ErrInvalidInput
	}
	b, err := json.Marshal(toRecord(rec))
	if err != nil {
		return err
	}
	// SET pisa el registro previo de forma atómica.
	return r.rdb.Set(ctx, r.key(rec.UserID), b, ttl).Err()
}

func (r *Repo) GetByUserID(ctx context.Context, userID string) (*repository.OTPRecord, error) {
	b, err := r.rdb.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return rec.domain(), nil
}

func (r *Repo) SetResetTokenHash(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	rec, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	rec.ResetTokenHash = tokenHash
	rec.ResetTokenExpiresAt = expiresAt
	b, err := json.Marshal(toRecord(rec))
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(userID), b, time.Until(expiresAt)+recordGrace).Err()
}

func (r *Repo) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, r.key(userID)).Err()
}

// DeleteExpired es un no-op: Redis expira los registros del lado del server.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
