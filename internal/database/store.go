package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/config"
)

var (
	// ErrRecordNotFound is returned by Get when nothing is stored under the key.
	ErrRecordNotFound = errors.New("record not found")
	// ErrVersionMismatch is returned by CompareAndSwap when the record changed since it was read.
	ErrVersionMismatch = errors.New("record version mismatch")
)

// Record is a stored value together with its revision.
// Revisions start at 1; version 0 stands for "no record".
type Record struct {
	Value   []byte
	Version int64
}

// Store is a single-key versioned record store. Every write is a compare-and-swap
// against the version the caller read, so concurrent read-modify-write cycles on the
// same key cannot silently overwrite each other.
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	// CompareAndSwap writes value only if the stored version equals version
	// (0 means the key must not exist yet) and returns the new version.
	CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error)
	Close() error
}

// Open builds the record store selected by STORE_BACKEND. The Redis client is owned
// by the caller and shared with sessions and events.
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *zap.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		log.Info("using redis record store")
		return NewRedisStore(rdb), nil

	case config.BackendPostgres:
		log.Info("connecting to PostgreSQL record store")
		db, err := ConnectPostgres(ctx, cfg.PostgresURI)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, nil

	case config.BackendMongo:
		log.Info("connecting to MongoDB record store")
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return NewMongoStore(client, cfg.MongoDB), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
