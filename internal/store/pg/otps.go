package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/careid/internal/domain/repository"
	"github.com/dropDatabas3/careid/internal/store"
)

type otpRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// querier es lo que ambos *pgxpool.Pool y *pgxpool.Conn saben hacer; permite
// que las operaciones corran sobre la conexión del lock cuando hay una.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type lockedConnKey struct{}

func withLockedConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, lockedConnKey{}, conn)
}

func lockedConnFrom(ctx context.Context) (*pgxpool.Conn, bool) {
	conn, ok := ctx.Value(lockedConnKey{}).(*pgxpool.Conn)
	return conn, ok
}

/// db resuelve sobre qué correr un statement: la conexión que sostiene el
// advisory lock si estamos dentro de Exclusive, el pool si no. Sin esto,
// cada operación interna pediría una conexión extra al pool mientras el
// lock retiene otra, y con el pool lleno los flujos se trabarían entre sí.
func (r *otpRepo) db(ctx context.Context) querier {
	if conn, ok := lockedConnFrom(ctx); ok {
		return conn
	}
	return r.pool
}

// Exclusive serializa el flujo de un usuario con un advisory lock de sesión
// sobre una conexión dedicada. fn corre con esa misma conexión en el
/// contexto: sus statements no consumen conexiones adicionales del pool.
func (r *otpRepo) Exclusive(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return mapErr(err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended('otp:' || $1, 0))`, userID); err != nil {
		return mapErr(err)
	}
	defer func() {
		// Mejor esfuerzo: si la conexión muere, el lock cae con ella.
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock(hashtextextended('otp:' || $1, 0))`, userID)
	}()

	return fn(withLockedConn(ctx, conn))
}

func (r *otpRepo) Replace(ctx context.Context, rec *repository.OTPRecord) error {
	return store.Call(ctx, r.timeout, func(ctx context.Context) error {
		tx, err := r.db(ctx).Begin(ctx)
		if err != nil {
			return mapErr(err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM otp_records WHERE user_id = $1`, rec.UserID); err != nil {
			return mapErr(err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO otp_records (id, user_id, code, code_expires_at, reset_token_hash, reset_token_expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.UserID, rec.Code, rec.CodeExpiresAt, rec.ResetTokenHash, rec.ResetTokenExpiresAt, rec.CreatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
		return mapErr(tx.Commit(ctx))
	})
}

func (r *otpRepo) GetByUserID(ctx context.Context, userID string) (*repository.OTPRecord, error) {
	var out *repository.OTPRecord
	err := store.Call(ctx, r.timeout, func(ctx context.Context) error {
		var rec repository.OTPRecord
		err := r.db(ctx).QueryRow(ctx, `
			SELECT id, user_id, code, code_expires_at, reset_token_hash, reset_token_expires_at, created_at
			FROM otp_records WHERE user_id = $1`, userID,
		).Scan(&rec.ID, &rec.UserID, &rec.Code, &rec.CodeExpiresAt, &rec.ResetTokenHash, &rec.ResetTokenExpiresAt, &rec.CreatedAt)
		if err != nil {
			return mapErr(err)
		}
		out = &rec
		return nil
	})
	return out, err
}

func (r *otpRepo) SetResetTokenHash(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return store.Call(ctx, r.timeout, func(ctx context.Context) error {
		tag, err := r.db(ctx).Exec(ctx,
			`UPDATE otp_records SET reset_token_hash = $2, reset_token_expires_at = $3 WHERE user_id = $1`,
			userID, tokenHash, expiresAt)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *otpRepo) Delete(ctx context.Context, userID string) error {
	return store.Call(ctx, r.timeout, func(ctx context.Context) error {
		_, err := r.db(ctx).Exec(ctx, `DELETE FROM otp_records WHERE user_id = $1`, userID)
		return mapErr(err)
	})
}

func (r *otpRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := store.Call(ctx, r.timeout, func(ctx context.Context) error {
		tag, err := r.db(ctx).Exec(ctx, `
			DELETE FROM otp_records
			WHERE (reset_token_hash = ''  AND code_expires_at < $1)
			   OR (reset_token_hash <> '' AND reset_token_expires_at < $1)`, now)
		if err != nil {
			return mapErr(err)
		}
		n = int(tag.RowsAffected())
		return nil
	})
	return n, err
}
