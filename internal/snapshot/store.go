package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rickgao/pond-monitor/internal/config"
	"github.com/rickgao/pond-monitor/internal/database"
)

// ErrNotFound is returned by Load when the slot has never been written.
var ErrNotFound = errors.New("snapshot not found")

// Store is a keyed slot for serialized snapshots.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Name() string
	Close() error
}

// Open builds the store selected by cfg.Backend. The returned store owns
// any connection it opened and releases it on Close.
func Open(ctx context.Context, cfg config.SnapshotConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return NopStore{}, nil

	case config.BackendFile:
		return NewFileStore(cfg.File.Dir)

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		s := NewRedisStore(client, cfg.Redis.TTL)
		s.closer = client
		return s, nil

	case config.BackendPostgres:
		db, err := database.Open(ctx, cfg.Postgres.DB)
		if err != nil {
			return nil, err
		}

		s, err := NewPostgresStore(db, cfg.Postgres.Table)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		s.closer = db
		return s, nil

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

// NopStore never holds a snapshot.
type NopStore struct{}

func (NopStore) Load(context.Context, string) ([]byte, error) { return nil, ErrNotFound }

func (NopStore) Save(context.Context, string, []byte) error { return nil }

func (NopStore) Name() string { return config.BackendNone }

func (NopStore) Close() error { return nil }

func closeIfSet(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}
