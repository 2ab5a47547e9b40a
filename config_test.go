package leadersvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "leadersvc-election", cfg.ElectionBucket)
	require.Equal(t, "leader", cfg.ElectionKey)
	require.Equal(t, 10*time.Second, cfg.LeaseTTL)
	require.Equal(t, 5*time.Second, cfg.ReacquireDelay)
	require.Empty(t, cfg.ID, "ID has no default and must be supplied")
}

func TestSetDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		cfg := Config{ID: "host-a:9001"}
		SetDefaults(&cfg)

		require.Equal(t, "leadersvc-election", cfg.ElectionBucket)
		require.Equal(t, 10*time.Second, cfg.LeaseTTL)
		require.Equal(t, cfg.LeaseTTL/3, cfg.RenewInterval)
		require.Equal(t, 30*time.Second, cfg.StartupTimeout)
		require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("preserves explicit values", func(t *testing.T) {
		cfg := Config{
			ID:             "host-a:9001",
			ElectionBucket: "custom-bucket",
			LeaseTTL:       30 * time.Second,
			RenewInterval:  time.Second,
			ReacquireDelay: time.Minute,
		}
		SetDefaults(&cfg)

		require.Equal(t, "custom-bucket", cfg.ElectionBucket)
		require.Equal(t, 30*time.Second, cfg.LeaseTTL)
		require.Equal(t, time.Second, cfg.RenewInterval)
		require.Equal(t, time.Minute, cfg.ReacquireDelay)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.ID = "host-a:9001"
		SetDefaults(&cfg)

		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing ID", func(t *testing.T) {
		cfg := valid()
		cfg.ID = ""
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("zero lease TTL", func(t *testing.T) {
		cfg := valid()
		cfg.LeaseTTL = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("renew interval at or above lease TTL", func(t *testing.T) {
		cfg := valid()
		cfg.RenewInterval = cfg.LeaseTTL
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("negative reacquire delay", func(t *testing.T) {
		cfg := valid()
		cfg.ReacquireDelay = -time.Second
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestConfigYAML(t *testing.T) {
	raw := `
id: host-a:9001
electionBucket: orders-election
leaseTtl: 15s
renewInterval: 5s
reacquireDelay: 30s
`

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))

	require.Equal(t, "host-a:9001", cfg.ID)
	require.Equal(t, "orders-election", cfg.ElectionBucket)
	require.Equal(t, 15*time.Second, cfg.LeaseTTL)
	require.Equal(t, 5*time.Second, cfg.RenewInterval)
	require.Equal(t, 30*time.Second, cfg.ReacquireDelay)

	SetDefaults(&cfg)
	require.NoError(t, cfg.Validate())
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	cfg.ID = "test-worker:9001"

	require.NoError(t, cfg.Validate())
	require.Less(t, cfg.LeaseTTL, DefaultConfig().LeaseTTL)
	require.Less(t, cfg.RenewInterval, cfg.LeaseTTL)
}
