package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AnshRaj112/grow-backend/internal/database"
	"github.com/AnshRaj112/grow-backend/internal/models"
	"github.com/AnshRaj112/grow-backend/pkg/utils"
)

// Codec turns typed records into stored bytes and back. Records are JSON; when a
// Sealer is configured the JSON is encrypted before it reaches the store.
type Codec struct {
	sealer *utils.Sealer
}

// NewCodec returns a codec. sealer may be nil to store plain JSON.
func NewCodec(sealer *utils.Sealer) *Codec {
	return &Codec{sealer: sealer}
}

// NewCodecFromKey builds a codec from a base64 ENCRYPTION_KEY. An empty key disables sealing.
func NewCodecFromKey(keyBase64 string) (*Codec, error) {
	if keyBase64 == "" {
		return NewCodec(nil), nil
	}
	key, err := utils.ParseEncryptionKey(keyBase64)
	if err != nil {
		return nil, err
	}
	sealer, err := utils.NewSealer(key)
	if err != nil {
		return nil, err
	}
	return NewCodec(sealer), nil
}

func (c *Codec) Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if c.sealer == nil {
		return data, nil
	}
	return c.sealer.Seal(data)
}

// Decode reverses Encode. Plain JSON arrays and objects are accepted even when sealing
// is on, so records written before ENCRYPTION_KEY was set stay readable.
func (c *Codec) Decode(data []byte, v interface{}) error {
	if c.sealer != nil && !isPlainJSON(data) {
		opened, err := c.sealer.Open(data)
		if err != nil {
			return err
		}
		data = opened
	}
	return json.Unmarshal(data, v)
}

func isPlainJSON(data []byte) bool {
	return len(data) > 0 && (data[0] == '[' || data[0] == '{')
}

// loadRecord reads key into dest and returns the version to write back against.
// A missing record leaves dest untouched and yields version 0.
func loadRecord(ctx context.Context, store database.Store, codec *Codec, key string, dest interface{}) (int64, error) {
	rec, err := store.Get(ctx, key)
	if errors.Is(err, database.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %w", models.ErrStorage, key, err)
	}
	if err := codec.Decode(rec.Value, dest); err != nil {
		return 0, fmt.Errorf("%w: decode %s: %w", models.ErrStorage, key, err)
	}
	return rec.Version, nil
}

// saveRecord writes v if key is still at version.
func saveRecord(ctx context.Context, store database.Store, codec *Codec, key string, version int64, v interface{}) error {
	data, err := codec.Encode(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", models.ErrStorage, key, err)
	}
	if _, err := store.CompareAndSwap(ctx, key, version, data); err != nil {
		if errors.Is(err, database.ErrVersionMismatch) {
			return models.ErrConflict
		}
		return fmt.Errorf("%w: write %s: %w", models.ErrStorage, key, err)
	}
	return nil
}
