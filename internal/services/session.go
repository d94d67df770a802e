package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/grow-backend/internal/models"
)

// SessionKeyPrefix is the Redis key prefix for sessions
const SessionKeyPrefix = "session:"

// SessionService issues opaque bearer tokens that map to a user's email in Redis.
type SessionService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionService(client *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{client: client, ttl: ttl}
}

// Create stores a new session for email and returns its token.
func (s *SessionService) Create(ctx context.Context, email string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	if err := s.client.Set(ctx, SessionKeyPrefix+token, email, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Validate returns the email behind token, or ErrUnauthorized if the session is unknown or expired.
func (s *SessionService) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", models.ErrUnauthorized
	}

	email, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", models.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	if email == "" {
		return "", models.ErrUnauthorized
	}
	return email, nil
}

// Refresh restarts the expiry of an existing session.
func (s *SessionService) Refresh(ctx context.Context, token string) error {
	ok, err := s.client.Expire(ctx, SessionKeyPrefix+token, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrUnauthorized
	}
	return nil
}

// Invalidate removes a session. Unknown tokens are ignored.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, SessionKeyPrefix+token).Err()
}
