// Package storage opens the snapshot backend selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackgods/care-ledger/internal/booking"
	"github.com/hackgods/care-ledger/internal/config"
	"github.com/hackgods/care-ledger/internal/db"
	redisclient "github.com/hackgods/care-ledger/internal/redis"
)

// Backend is an opened snapshot backend. Repository is nil for the memory
// backend, in which case nothing is persisted.
type Backend struct {
	Name       string
	Repository booking.SnapshotRepository
	Checks     map[string]func(ctx context.Context) error

	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Backend, error) {
	b := &Backend{Name: cfg.SnapshotBackend, Checks: map[string]func(context.Context) error{}}

	switch cfg.SnapshotBackend {
	case config.BackendMemory:
		log.Warn().Msg("snapshot backend is memory, state is lost on restart")

	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.Options{})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		if err := db.EnsureSchema(ctx, pool); err != nil {
			b.Close()
			return nil, err
		}
		b.Repository = booking.NewPgRepository(pool, log.With().Str("component", "pg_snapshot").Logger())
		b.Checks["postgres"] = pool.Ping

	case config.BackendRedis:
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.ClientOptions{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		b.Repository = redisclient.NewSnapshotRepository(rdb, locker, cfg.RedisKeyPrefix,
			log.With().Str("component", "redis_snapshot").Logger())
		b.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}

	log.Info().Str("backend", b.Name).Msg("snapshot backend ready")
	return b, nil
}
