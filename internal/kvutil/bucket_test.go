package kvutil

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	leadertest "github.com/arloliu/leadersvc/testing"
)

func TestEnsureBucketWithRetry(t *testing.T) {
	_, nc := leadertest.StartEmbeddedNATS(t)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	cfg := jetstream.KeyValueConfig{
		Bucket:  "kvutil-bucket",
		TTL:     time.Minute,
		Storage: jetstream.MemoryStorage,
	}

	t.Run("creates new bucket", func(t *testing.T) {
		kv, err := EnsureBucketWithRetry(t.Context(), js, cfg, 3)
		require.NoError(t, err)
		require.Equal(t, "kvutil-bucket", kv.Bucket())
	})

	t.Run("opens existing bucket", func(t *testing.T) {
		kv, err := EnsureBucketWithRetry(t.Context(), js, cfg, 3)
		require.NoError(t, err)

		_, err = kv.PutString(t.Context(), "probe", "value")
		require.NoError(t, err)
	})
}

func TestIsNoKeysFound(t *testing.T) {
	require.False(t, IsNoKeysFound(nil))
	require.False(t, IsNoKeysFound(errors.New("connection refused")))
	require.True(t, IsNoKeysFound(jetstream.ErrNoKeysFound))
	require.True(t, IsNoKeysFound(fmt.Errorf("listing roster: %w", jetstream.ErrNoKeysFound)))
	require.True(t, IsNoKeysFound(errors.New("nats: no keys found")))
}
