package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pethealth/pethealth/pkg/observability"
)

func TestOpen_RequiresURL(t *testing.T) {
	_, err := Open(context.Background(), ConnectionConfig{})
	assert.ErrorContains(t, err, "database URL is required")
}

func TestOpen_PingFailure(t *testing.T) {
	_, err := Open(context.Background(), ConnectionConfig{
		URL:     "postgres://test@127.0.0.1:1/test?sslmode=disable&connect_timeout=1",
		Timeout: 2 * time.Second,
	})
	assert.ErrorContains(t, err, "failed to ping database")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_species.sql",
		"00003_create_pets.sql",
	}, names)
}

func TestMigrate(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("runs embedded dir", func(t *testing.T) {
		var gotDir string
		gooseUp = func(ctx context.Context, got *sql.DB, dir string) error {
			assert.Same(t, db, got)
			gotDir = dir
			return nil
		}
		require.NoError(t, Migrate(context.Background(), db))
		assert.Equal(t, migrationsDir, gotDir)
	})

	t.Run("wraps failure", func(t *testing.T) {
		gooseUp = func(context.Context, *sql.DB, string) error {
			return errors.New("boom")
		}
		err := Migrate(context.Background(), db)
		assert.ErrorContains(t, err, "failed to run migrations: boom")
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 4})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 4, client.Options().PoolSize)
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{URL: "not-a-url"})
	assert.ErrorContains(t, err, "invalid redis URL")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisClient(context.Background(), RedisConfig{URL: "redis://" + addr, MaxRetries: 1})
	assert.ErrorContains(t, err, "failed to connect to redis")
}

type statsRecorder struct {
	ch chan sql.DBStats
}

func (r *statsRecorder) RecordDBStats(stats sql.DBStats) {
	select {
	case r.ch <- stats:
	default:
	}
}

func TestStartStatsRoutine(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &statsRecorder{ch: make(chan sql.DBStats, 1)}
	StartStatsRoutine(ctx, db, rec, 10*time.Millisecond, observability.NopLogger())

	select {
	case <-rec.ch:
	case <-time.After(time.Second):
		t.Fatal("stats were never recorded")
	}
}
