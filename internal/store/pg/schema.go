package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureSchema crea las dos tablas lógicas si no existen.
// El deployment serio corre migraciones afuera; esto cubre dev y tests.
func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    is_staff      BOOLEAN NOT NULL DEFAULT FALSE,
    is_superuser  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS otp_records (
    id                     TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL UNIQUE REFERENCES users(id),
    code                   INTEGER NOT NULL,
    code_expires_at        TIMESTAMPTZ NOT NULL,
    reset_token_hash       TEXT NOT NULL DEFAULT '',
    reset_token_expires_at TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := pool.Exec(ctx, ddl)
	return err
}
