package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data map[string][]byte
	err  error
	ttl  time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func TestVectorCache_RoundTrip(t *testing.T) {
	store := newMemStore()
	vc := NewVectorCache(store, time.Hour)
	ctx := context.Background()

	_, ok, err := vc.Get(ctx, []byte("jpeg-a"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, vc.Put(ctx, []byte("jpeg-a"), []float64{0.25, -0.5}))
	assert.Equal(t, time.Hour, store.ttl)

	vector, ok, err := vc.Get(ctx, []byte("jpeg-a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float64{0.25, -0.5}, vector)
}

func TestVectorCache_ExpiredIsMiss(t *testing.T) {
	store := newMemStore()
	store.err = ErrCacheExpired

	_, ok, err := NewVectorCache(store, time.Hour).Get(context.Background(), []byte("jpeg"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorCache_StoreError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("db down")

	_, _, err := NewVectorCache(store, time.Hour).Get(context.Background(), []byte("jpeg"))
	assert.Error(t, err)
}

func TestVectorCache_ReplacedPhotoMisses(t *testing.T) {
	vc := NewVectorCache(newMemStore(), time.Hour)
	ctx := context.Background()

	require.NoError(t, vc.Put(ctx, []byte("old photo"), []float64{0.1}))

	_, ok, err := vc.Get(ctx, []byte("new photo"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorKey(t *testing.T) {
	a := VectorKey([]byte("jpeg-a"))
	assert.Equal(t, a, VectorKey([]byte("jpeg-a")))
	assert.NotEqual(t, a, VectorKey([]byte("jpeg-b")))
	assert.Len(t, a, len("vector:")+64)
}
