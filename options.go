package leadersvc

// Option configures a LeaderService with optional dependencies.
type Option func(*serviceOptions)

// serviceOptions holds optional LeaderService configuration.
type serviceOptions struct {
	elector Elector
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
}

// WithElector sets a custom elector.
//
// When supplied, the service skips building its NATS KV elector and the NATS
// connection passed to New may be nil. Useful for alternative coordination
// backends and for deterministic tests.
//
// Parameters:
//   - elector: Elector implementation
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	svc, err := leadersvc.New(&cfg, nil, factory, leadersvc.WithElector(myElector))
func WithElector(elector Elector) Option {
	return func(o *serviceOptions) {
		o.elector = elector
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	hooks := &leadersvc.Hooks{
//	    OnLeadershipChanged: func(ctx context.Context, isLeader bool, cause leadersvc.RevokeCause) error {
//	        return notify(isLeader, cause)
//	    },
//	}
//	svc, err := leadersvc.New(&cfg, nc, factory, leadersvc.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *serviceOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	collector := myPrometheusCollector
//	svc, err := leadersvc.New(&cfg, nc, factory, leadersvc.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *serviceOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	svc, err := leadersvc.New(&cfg, nc, factory, leadersvc.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}
