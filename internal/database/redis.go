package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis connects to Redis and verifies the connection.
func ConnectRedis(ctx context.Context, redisURI string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, err
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// RedisStore keeps the value at key and its revision at key+":rev".
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type recordReader interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Type(ctx context.Context, key string) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

func revKey(key string) string {
	return key + ":rev"
}

// currentVersion reads the value and revision together. A value written without a
// revision key counts as version 1.
func currentVersion(ctx context.Context, c recordReader, key string) (Record, error) {
	vals, err := c.MGet(ctx, key, revKey(key)).Result()
	if err != nil {
		return Record{}, err
	}

	var value []byte
	if vals[0] == nil {
		// MGET reports keys holding other types as nil too.
		value, err = readListValue(ctx, c, key)
		if err != nil || value == nil {
			return Record{}, err
		}
	} else {
		s, _ := vals[0].(string)
		value = []byte(s)
	}

	rec := Record{Value: value, Version: 1}
	if rev, ok := vals[1].(string); ok {
		v, err := strconv.ParseInt(rev, 10, 64)
		if err != nil {
			return Record{}, err
		}
		rec.Version = v
	}
	return rec, nil
}

// readListValue returns a list stored at key as a JSON array of its elements, head
// first, so lists pushed with LPUSH read newest first. The first write replaces the
// list with a string record. A missing key yields nil; other types are an error.
func readListValue(ctx context.Context, c recordReader, key string) ([]byte, error) {
	typ, err := c.Type(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	switch typ {
	case "none":
		return nil, nil
	case "list":
	default:
		return nil, fmt.Errorf("%s holds a redis %s, not a record", key, typ)
	}

	items, err := c.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return json.Marshal(items)
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	rec, err := currentVersion(ctx, s.client, key)
	if err != nil {
		return Record{}, err
	}
	if rec.Version == 0 {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// CompareAndSwap watches both keys, checks the revision and writes value and the
// bumped revision in one MULTI/EXEC.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	var next int64
	txf := func(tx *redis.Tx) error {
		current, err := currentVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != version {
			return ErrVersionMismatch
		}

		next = current.Version + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			pipe.Set(ctx, revKey(key), next, 0)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key, revKey(key))
	if errors.Is(err, redis.TxFailedErr) {
		return 0, ErrVersionMismatch
	}
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Close is a no-op; the client is shared and closed by its owner.
func (s *RedisStore) Close() error {
	return nil
}
