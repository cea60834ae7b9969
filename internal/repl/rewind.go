package repl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgtools/replctl/internal/postgres"
)

// workerShutdownWait gives the apply worker time to exit after DISABLE before
// the origin is touched.
const workerShutdownWait = 5 * time.Second

// RewindOptions parameterize the rewind workflow. Exactly one of LSN or
// RewindBytes must be set: LSN is an explicit target, RewindBytes rewinds
// that many bytes from the origin's current position.
type RewindOptions struct {
	Subscription string
	LSN          string
	RewindBytes  int64
}

// Rewind moves a subscription's replication origin to an operator-chosen LSN:
// disable the subscription, advance the origin, re-enable. The target LSN is
// deliberately not validated; rewinding to the wrong position re-applies or
// skips changes.
type Rewind struct {
	Source postgres.Querier
	Dest   postgres.Querier

	// sleep is replaced in tests to avoid the real worker-shutdown wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// Run executes the workflow. On origin-advance failure the subscription stays
// disabled and a *RewindFailedError is returned.
func (w *Rewind) Run(ctx context.Context, opts RewindOptions) error {
	// Advisory locks on both ends keep a second replctl from touching the
	// same origin mid-rewind.
	if locked, err := postgres.TryAdvisoryLock(ctx, w.Source); err != nil {
		return err
	} else if !locked {
		return &LockedError{Role: "source"}
	}
	defer func() { _ = postgres.AdvisoryUnlock(ctx, w.Source) }()

	if locked, err := postgres.TryAdvisoryLock(ctx, w.Dest); err != nil {
		return err
	} else if !locked {
		return &LockedError{Role: "destination"}
	}
	defer func() { _ = postgres.AdvisoryUnlock(ctx, w.Dest) }()

	sub, err := postgres.GetSubscription(ctx, w.Dest, opts.Subscription)
	if err != nil {
		return err
	}
	if sub == nil {
		return &SubscriptionNotFoundError{Name: opts.Subscription}
	}

	origin, err := postgres.SubscriptionOriginName(ctx, w.Dest, sub.Name)
	if err != nil {
		return err
	}
	if origin == "" {
		return &SubscriptionNotFoundError{Name: opts.Subscription}
	}

	target, err := w.resolveTarget(ctx, origin, opts)
	if err != nil {
		return err
	}

	if err := postgres.DisableSubscription(ctx, w.Dest, sub.Name); err != nil {
		return err
	}
	slog.Info("subscription disabled, waiting for apply worker to stop", "wait", workerShutdownWait)
	if err := w.wait(ctx, workerShutdownWait); err != nil {
		return &RewindFailedError{Subscription: sub.Name, Origin: origin, LSN: target, Err: err}
	}

	if err := postgres.AdvanceReplicationOrigin(ctx, w.Dest, origin, target); err != nil {
		return &RewindFailedError{Subscription: sub.Name, Origin: origin, LSN: target, Err: err}
	}
	slog.Info("origin advanced", "origin", origin, "lsn", target)

	if err := postgres.EnableSubscription(ctx, w.Dest, sub.Name); err != nil {
		return &ReenableFailedError{Subscription: sub.Name, LSN: target, Err: err}
	}
	return nil
}

// resolveTarget turns RewindOptions into a concrete LSN.
func (w *Rewind) resolveTarget(ctx context.Context, origin string, opts RewindOptions) (string, error) {
	switch {
	case opts.LSN != "" && opts.RewindBytes != 0:
		return "", fmt.Errorf("--lsn and --rewind-bytes are mutually exclusive")
	case opts.LSN != "":
		return opts.LSN, nil
	case opts.RewindBytes > 0:
		current, err := postgres.ReplicationOriginProgress(ctx, w.Dest, origin)
		if err != nil {
			return "", err
		}
		return postgres.SubtractLSN(current, opts.RewindBytes)
	default:
		return "", fmt.Errorf("a target is required: --lsn=<value> or --rewind-bytes=<n>")
	}
}

func (w *Rewind) wait(ctx context.Context, d time.Duration) error {
	if w.sleep != nil {
		return w.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
