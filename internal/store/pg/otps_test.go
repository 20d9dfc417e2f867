package pg

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func TestOTPRepoRunsOnLockedConn(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := &otpRepo{pool: pool, timeout: time.Second}

	// Fuera de Exclusive los statements van al pool.
	ctx := context.Background()
	_, ok := lockedConnFrom(ctx)
	require.False(t, ok)
	require.Same(t, pool, repo.db(ctx).(*pgxpool.Pool))

	// Dentro, reutilizan la conexión que sostiene el advisory lock en vez
	// de pedir otra al pool.
	conn := &pgxpool.Conn{}
	locked := withLockedConn(ctx, conn)
	got, ok := lockedConnFrom(locked)
	require.True(t, ok)
	require.Same(t, conn, got)
	require.Same(t, conn, repo.db(locked).(*pgxpool.Conn))
}
