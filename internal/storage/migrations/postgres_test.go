package migrations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-blog-pass/internal/storage/postgres"
)

func setupPostgres(t *testing.T) *postgres.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRunPostgresMigrations_AppliesOnce(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	applied, err := RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_blog"}, applied)

	again, err := RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, again)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.notifications') IS NOT NULL`).Scan(&exists))
	assert.True(t, exists)
}

func TestRunPostgresMigrations_FailedFileNotRecorded(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	ms := []Migration{
		{Version: "001_ok", SQL: `CREATE TABLE ok_table (x INT)`},
		{Version: "002_bad", SQL: `CREATE TABLE bad_table (x INT); SELECT * FROM missing_table`},
	}
	done, err := applyPostgres(ctx, pool, ms)
	require.Error(t, err)
	assert.Equal(t, []string{"001_ok"}, done)

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.bad_table') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists, "failed migration must roll back")

	require.NoError(t, pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = '002_bad')`).Scan(&exists))
	assert.False(t, exists)
}
