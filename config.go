package leadersvc

import (
	"fmt"
	"time"
)

// Config is the configuration for the LeaderService.
//
// All duration fields accept standard Go duration strings like "30s", "5m"
// when loaded from YAML.
type Config struct {
	// ID is this participant's identity, conventionally host:port. Required.
	//
	// The ID is visible to every participant through Leader and Participants
	// queries, so it should be meaningful to operators.
	ID string `yaml:"id"`

	// ElectionBucket is the NATS KV bucket name used for election
	// coordination. Participants contending for the same leadership token
	// must share the bucket and key.
	ElectionBucket string `yaml:"electionBucket"`

	// ElectionKey is the lease key contended for within the bucket.
	ElectionKey string `yaml:"electionKey"`

	// LeaseTTL is how long the leadership lease and roster entries remain
	// valid without renewal. A crashed leader fails over after at most this
	// duration.
	LeaseTTL time.Duration `yaml:"leaseTtl"`

	// RenewInterval is how often the lease is renewed by the leader and
	// claimed by followers. Must be well below LeaseTTL.
	// Default: LeaseTTL / 3.
	RenewInterval time.Duration `yaml:"renewInterval"`

	// ReacquireDelay is the pause between one leadership acquisition ending
	// and the next contention attempt. Applied uniformly regardless of how
	// the previous acquisition ended: clean delegate exit, delegate failure,
	// or leadership revocation.
	ReacquireDelay time.Duration `yaml:"reacquireDelay"`

	// OperationTimeout bounds individual coordination operations.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// StartupTimeout bounds a delegate's Start call. A delegate that fails
	// to start within this window counts as a startup failure.
	StartupTimeout time.Duration `yaml:"startupTimeout"`

	// ShutdownTimeout bounds a delegate's Stop call and the service's own
	// graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// WorkerName names the service's background goroutine context in logs.
	// Defaults to "leader-service".
	WorkerName string `yaml:"workerName"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// The ID field has no default and must be supplied by the caller.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		ElectionBucket:   "leadersvc-election",
		ElectionKey:      "leader",
		LeaseTTL:         10 * time.Second,
		ReacquireDelay:   5 * time.Second,
		OperationTimeout: 5 * time.Second,
		StartupTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		WorkerName:       "leader-service",
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.ElectionBucket == "" {
		cfg.ElectionBucket = defaults.ElectionBucket
	}
	if cfg.ElectionKey == "" {
		cfg.ElectionKey = defaults.ElectionKey
	}
	if cfg.LeaseTTL == 0 {
		cfg.LeaseTTL = defaults.LeaseTTL
	}
	if cfg.RenewInterval == 0 {
		cfg.RenewInterval = cfg.LeaseTTL / 3
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.WorkerName == "" {
		cfg.WorkerName = defaults.WorkerName
	}
	if cfg.ReacquireDelay == 0 {
		cfg.ReacquireDelay = defaults.ReacquireDelay
	}
}

// Validate checks the configuration for correctness.
//
// Returns:
//   - error: Validation error with clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.ID == "" {
		return fmt.Errorf("%w: ID is required", ErrInvalidConfig)
	}

	if cfg.LeaseTTL <= 0 {
		return fmt.Errorf("%w: LeaseTTL must be > 0, got %v", ErrInvalidConfig, cfg.LeaseTTL)
	}

	if cfg.RenewInterval <= 0 {
		return fmt.Errorf("%w: RenewInterval must be > 0, got %v", ErrInvalidConfig, cfg.RenewInterval)
	}

	// Leadership survives only while renewals land inside the TTL window.
	if cfg.RenewInterval >= cfg.LeaseTTL {
		return fmt.Errorf(
			"%w: RenewInterval (%v) must be < LeaseTTL (%v) to keep the lease alive",
			ErrInvalidConfig, cfg.RenewInterval, cfg.LeaseTTL,
		)
	}

	if cfg.ReacquireDelay < 0 {
		return fmt.Errorf("%w: ReacquireDelay must be >= 0, got %v", ErrInvalidConfig, cfg.ReacquireDelay)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values.
//
// This is called after Validate() in New() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	// A renewal interval close to the TTL leaves a single renewal attempt
	// between keeping and losing the lease.
	if cfg.RenewInterval > cfg.LeaseTTL/2 {
		logger.Warn(
			"RenewInterval is above recommended maximum",
			"renewInterval", cfg.RenewInterval,
			"leaseTTL", cfg.LeaseTTL,
			"recommended", cfg.LeaseTTL/3,
		)
	}

	if cfg.ReacquireDelay < time.Second {
		logger.Warn(
			"ReacquireDelay is very short, a crash-looping delegate will flap leadership rapidly",
			"reacquireDelay", cfg.ReacquireDelay,
			"recommended", "5s or higher",
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Test timings are 10-100x faster than production defaults to enable rapid
// iteration without sacrificing test coverage. Use DefaultConfig() for
// production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := leadersvc.TestConfig()
//	cfg.ID = "test-worker:9001"
//	svc, err := leadersvc.New(&cfg, nc, factory)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.LeaseTTL = 2 * time.Second
	cfg.RenewInterval = 100 * time.Millisecond
	cfg.ReacquireDelay = 200 * time.Millisecond
	cfg.OperationTimeout = 2 * time.Second
	cfg.StartupTimeout = 5 * time.Second
	cfg.ShutdownTimeout = 5 * time.Second

	return cfg
}
