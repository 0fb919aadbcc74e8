package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantabox/fyers-mcp-server/internal/envfile"
)

func TestEnvFileStoreRoundTrip(t *testing.T) {
	store, err := NewEnvFileStore(envfile.New(filepath.Join(t.TempDir(), ".env")), "TEST_TOKENSTORE_TOKEN")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Unsetenv("TEST_TOKENSTORE_TOKEN") })

	ctx := context.Background()

	_, err = store.Read(ctx)
	assert.Error(t, err, "empty store should error on read")

	require.NoError(t, store.Write(ctx, "tok-123"))

	token, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	assert.Equal(t, "tok-123", os.Getenv("TEST_TOKENSTORE_TOKEN"), "write mirrors into environment")
}

func TestEnvFileStoreReadFallsBackToEnvironment(t *testing.T) {
	store, err := NewEnvFileStore(envfile.New(filepath.Join(t.TempDir(), ".env")), "TEST_TOKENSTORE_FALLBACK")
	require.NoError(t, err)

	t.Setenv("TEST_TOKENSTORE_FALLBACK", "from-env")

	token, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}

func TestEnvFileStoreValidation(t *testing.T) {
	_, err := NewEnvFileStore(nil, "KEY")
	assert.Error(t, err)

	_, err = NewEnvFileStore(envfile.New(".env"), "")
	assert.Error(t, err)
}
