package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLazyConstruction(t *testing.T) {
	store := &memTokenStore{token: "tok-123"}
	cache := NewCache(func() string { return "ABC-100" }, store)

	first, err := cache.Client(context.Background())
	require.NoError(t, err)

	second, err := cache.Client(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second, "handle is shared until invalidated")
}

func TestCacheUnavailableWithoutCredentials(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		token    string
	}{
		{"missing client id", "", "tok-123"},
		{"missing token", "ABC-100", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(func() string { return tt.clientID }, &memTokenStore{token: tt.token})

			_, err := cache.Client(context.Background())
			assert.ErrorIs(t, err, ErrClientUnavailable)
		})
	}
}

func TestCacheInvalidate(t *testing.T) {
	store := &memTokenStore{token: "tok-123"}
	cache := NewCache(func() string { return "ABC-100" }, store)

	first, err := cache.Client(context.Background())
	require.NoError(t, err)

	cache.Invalidate()
	store.token = "tok-456"

	second, err := cache.Client(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second, "invalidation forces reconstruction")
}

func TestCacheRecoversAfterCredentialsAppear(t *testing.T) {
	store := &memTokenStore{}
	cache := NewCache(func() string { return "ABC-100" }, store)

	_, err := cache.Client(context.Background())
	require.ErrorIs(t, err, ErrClientUnavailable)

	store.token = "tok-123"
	client, err := cache.Client(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, client)
}
