package repl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgtools/replctl/internal/config"
	"github.com/pgtools/replctl/internal/debug"
	"github.com/pgtools/replctl/internal/postgres"
)

// Step identifies how far the reverse workflow has progressed. Everything up
// to and including StepSubscriptionDropped is safely retryable; StepRolesSwapped
// is the irreversibility boundary.
type Step int

const (
	StepIdle Step = iota
	StepSlotValidated
	StepSubscriptionDropped
	StepRolesSwapped
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "Idle"
	case StepSlotValidated:
		return "SlotValidated"
	case StepSubscriptionDropped:
		return "SubscriptionDropped"
	case StepRolesSwapped:
		return "RolesSwapped"
	case StepDone:
		return "Done"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Store is the slice of the topology store the reverse workflow mutates.
// *config.Store implements it; tests substitute an in-memory fake.
type Store interface {
	Swap() (config.Topology, error)
}

// ReverseOptions parameterize the reverse workflow.
type ReverseOptions struct {
	Subscription string
	Force        bool // proceed even when lag is non-zero or unknown
}

// Reverse turns the destination into the source and vice versa:
//
//  1. validate the subscription's slot is fully caught up on the source,
//  2. drop the subscription on the destination,
//  3. swap the recorded topology (the point of no return),
//  4. create the reversed subscription on the new destination.
//
// Nothing is retried and nothing rolls back across step 3.
type Reverse struct {
	Store  Store
	Source postgres.Querier // publisher before the swap
	Dest   postgres.Querier // subscriber before the swap

	step Step
}

// Step reports the last step the workflow completed.
func (w *Reverse) Step() Step { return w.step }

// Run executes the workflow and returns the post-swap topology on success.
func (w *Reverse) Run(ctx context.Context, opts ReverseOptions) (config.Topology, error) {
	w.step = StepIdle

	sub, err := postgres.GetSubscription(ctx, w.Dest, opts.Subscription)
	if err != nil {
		return config.Topology{}, err
	}
	if sub == nil {
		return config.Topology{}, &SubscriptionNotFoundError{Name: opts.Subscription}
	}

	if err := w.validateLag(ctx, sub, opts.Force); err != nil {
		return config.Topology{}, err
	}
	w.step = StepSlotValidated

	if err := DropSubscriptionSet(ctx, w.Dest, sub.Name); err != nil {
		return config.Topology{}, err
	}
	w.step = StepSubscriptionDropped
	slog.Info("subscription dropped", "name", sub.Name)
	debug.StopIf("subscription_dropped")

	// Leftover slot and publication on the old source are cleanup, not part
	// of the reversal. A failure here must not abort past-the-fact.
	DropSourceLeftovers(ctx, w.Source, sub)

	swapped, err := w.Store.Swap()
	if err != nil {
		return config.Topology{}, err
	}
	w.step = StepRolesSwapped
	slog.Info("topology swapped",
		"new_source", swapped.Source.DSN, "new_destination", swapped.Destination.DSN)
	debug.StopIf("roles_swapped")

	// From here the recorded topology names the former destination as the
	// source. The reversed subscription lives on the new destination (our
	// original source connection) and pulls from the new source (our original
	// destination connection).
	newName := sub.Name + "_reversed"
	err = CreateSubscriptionSet(ctx, w.Dest, w.Source, SetupOptions{
		Name:      newName,
		SourceDSN: swapped.Source.DSN,
		CopyData:  false,
		Enabled:   true,
	})
	if err != nil {
		return swapped, &PartiallyReversedError{Subscription: newName, Step: w.step, Err: err}
	}

	w.step = StepDone
	slog.Info("reverse complete", "subscription", newName)
	return swapped, nil
}

// validateLag refuses to reverse unless the slot backing the subscription has
// zero unconfirmed WAL on the source. Unknown lag also refuses. Force skips
// the refusal, never the measurement.
func (w *Reverse) validateLag(ctx context.Context, sub *postgres.Subscription, force bool) error {
	if sub.SlotName == "" {
		if force {
			slog.Warn("subscription has no slot name; lag unknown, proceeding under --force")
			return nil
		}
		return &UnsafeToReverseError{Reason: fmt.Sprintf("subscription %q has no slot, lag cannot be established", sub.Name)}
	}
	lag, err := postgres.ReplicationLag(ctx, w.Source, sub.SlotName)
	if err != nil {
		if force {
			slog.Warn("lag check failed, proceeding under --force", "err", err)
			return nil
		}
		return &UnsafeToReverseError{Reason: fmt.Sprintf("lag cannot be established: %v", err)}
	}
	if lag != 0 {
		if force {
			slog.Warn("non-zero replication lag, proceeding under --force", "lag_bytes", lag)
			return nil
		}
		return &UnsafeToReverseError{Reason: fmt.Sprintf("replication lag is %d bytes, destination is not caught up", lag), Lag: lag}
	}
	return nil
}
