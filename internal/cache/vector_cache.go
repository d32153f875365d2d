package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store is the byte-level cache a VectorCache writes through
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// VectorCache remembers the feature vector computed for an image. Entries are
// keyed by content, so a photo replaced behind the same URL is embedded again.
type VectorCache struct {
	store Store
	ttl   time.Duration
}

func NewVectorCache(store Store, ttl time.Duration) *VectorCache {
	return &VectorCache{store: store, ttl: ttl}
}

// VectorKey is stable per image content and bounded in length
func VectorKey(image []byte) string {
	sum := sha256.Sum256(image)
	return "vector:" + hex.EncodeToString(sum[:])
}

// Get returns (nil, false, nil) on miss or expiry
func (c *VectorCache) Get(ctx context.Context, image []byte) ([]float64, bool, error) {
	raw, err := c.store.Get(ctx, VectorKey(image))
	if errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheExpired) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var vector []float64
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, false, fmt.Errorf("decode cached vector: %w", err)
	}
	if len(vector) == 0 {
		return nil, false, nil
	}
	return vector, true, nil
}

func (c *VectorCache) Put(ctx context.Context, image []byte, vector []float64) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	return c.store.Set(ctx, VectorKey(image), raw, c.ttl)
}
