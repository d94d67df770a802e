package services

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/database"
	"github.com/AnshRaj112/grow-backend/internal/models"
)

type testEnv struct {
	mr     *miniredis.Miniredis
	client *redis.Client
	store  database.Store
	codec  *Codec
	log    *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &testEnv{
		mr:     mr,
		client: client,
		store:  database.NewRedisStore(client),
		codec:  NewCodec(nil),
		log:    zap.NewNop(),
	}
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.JournalEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event models.JournalEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []models.JournalEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.JournalEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func rawRecord(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
