// Package leadersvc ties leader election to the lifecycle of a delegate
// worker.
//
// A LeaderService contends for a mutually exclusive leadership token stored
// in a NATS JetStream KV bucket and runs a caller-supplied delegate for
// exactly as long as it holds leadership. Every acquisition gets a fresh
// delegate instance from the factory; when the delegate exits, fails, or
// leadership is revoked, the service relinquishes leadership, pauses for a
// configurable reacquire delay, and contends again.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/arloliu/leadersvc"
//
//	cfg := leadersvc.DefaultConfig()
//	cfg.ID = "host-a:9001"
//
//	svc, err := leadersvc.New(&cfg, natsConn, func() leadersvc.Delegate {
//	    return newWorker()
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := svc.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Stop(context.Background())
//
// # Key Guarantees
//
//   - At most one live delegate per service, and at most one leader across
//     all participants sharing a bucket and key
//   - A fresh delegate instance on every acquisition, never reused
//   - Delegate failures are absorbed; the service keeps contending
//   - A uniform reacquire delay between acquisitions, regardless of how the
//     previous one ended
//
// # Architecture
//
// The service progresses through a state machine:
//
//	IDLE → CONTENDING ⇄ LEADING
//	         (any) → STOPPING → STOPPED
//
// The Contending↔Leading cycle repeats for every leadership change.
// Stopping is one-way: a stopped service cannot be restarted.
//
// # Advanced Usage
//
// Hooks and a custom elector:
//
//	hooks := &leadersvc.Hooks{
//	    OnLeadershipChanged: func(ctx context.Context, isLeader bool, cause leadersvc.RevokeCause) error {
//	        log.Printf("leadership=%v cause=%s", isLeader, cause)
//	        return nil
//	    },
//	}
//
//	svc, err := leadersvc.New(&cfg, nil, factory,
//	    leadersvc.WithHooks(hooks),
//	    leadersvc.WithElector(myConsulElector),
//	)
package leadersvc
