package repl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgtools/replctl/internal/postgres"
)

// SlotName returns the slot created for a subscription when none is named
// explicitly.
func SlotName(subscription string) string { return subscription + "_slot" }

// PublicationName returns the publication created for a subscription.
func PublicationName(subscription string) string { return subscription + "_publication" }

// EnsureReplicationSlot creates the slot on the source when it is missing.
func EnsureReplicationSlot(ctx context.Context, src postgres.Querier, name string) error {
	slot, err := postgres.GetReplicationSlot(ctx, src, name)
	if err != nil {
		return err
	}
	if slot != nil {
		return nil
	}
	return postgres.CreateReplicationSlot(ctx, src, name)
}

// EnsurePublication creates the FOR ALL TABLES publication on the source when
// it is missing.
func EnsurePublication(ctx context.Context, src postgres.Querier, name string) error {
	pub, err := postgres.GetPublication(ctx, src, name)
	if err != nil {
		return err
	}
	if pub != nil {
		return nil
	}
	return postgres.CreatePublication(ctx, src, name)
}

// SetupOptions parameterize CreateSubscriptionSet.
type SetupOptions struct {
	Name      string
	SourceDSN string // conninfo the destination's apply worker uses
	SlotName  string // optional; defaults to SlotName(Name)
	CopyData  bool
	Enabled   bool
}

// CreateSubscriptionSet provisions slot and publication on the source, then
// creates the subscription on the destination with create_slot=false. The
// order matters: the subscription must never reference objects that do not
// exist yet.
func CreateSubscriptionSet(ctx context.Context, src, dest postgres.Querier, opts SetupOptions) error {
	slot := opts.SlotName
	if slot == "" {
		slot = SlotName(opts.Name)
	}
	publication := PublicationName(opts.Name)

	if err := EnsureReplicationSlot(ctx, src, slot); err != nil {
		return err
	}
	if err := EnsurePublication(ctx, src, publication); err != nil {
		return err
	}

	existing, err := postgres.GetSubscription(ctx, dest, opts.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("subscription %q already exists on the destination", opts.Name)
	}
	return postgres.CreateSubscription(ctx, dest, postgres.SubscriptionOptions{
		Name:        opts.Name,
		ConnInfo:    opts.SourceDSN,
		Publication: publication,
		SlotName:    slot,
		CopyData:    opts.CopyData,
		Enabled:     opts.Enabled,
	})
}

// DropSourceLeftovers drops the slot and publications a dropped subscription
// leaves behind on the source. Best effort: failures are logged and do not
// abort the caller, the objects can always be dropped by hand.
func DropSourceLeftovers(ctx context.Context, src postgres.Querier, sub *postgres.Subscription) {
	if sub.SlotName != "" {
		if err := postgres.DropReplicationSlot(ctx, src, sub.SlotName); err != nil {
			slog.Warn("could not drop old slot on source", "slot", sub.SlotName, "err", err)
		}
	}
	for _, pub := range sub.Publications {
		if err := postgres.DropPublication(ctx, src, pub); err != nil {
			slog.Warn("could not drop old publication on source", "publication", pub, "err", err)
		}
	}
}

// DropSubscriptionSet tears the subscription down without touching the slot
// on the source: DISABLE, detach the slot, then DROP. The detach keeps DROP
// SUBSCRIPTION from reaching out to the source and failing there.
func DropSubscriptionSet(ctx context.Context, dest postgres.Querier, name string) error {
	if err := postgres.DisableSubscription(ctx, dest, name); err != nil {
		return err
	}
	if err := postgres.DetachSubscriptionSlot(ctx, dest, name); err != nil {
		return err
	}
	return postgres.DropSubscription(ctx, dest, name)
}
