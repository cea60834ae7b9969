package repl

import (
	"context"
	"strconv"

	"github.com/pgtools/replctl/internal/postgres"
)

// StatusUnknown is rendered when a subscription's slot cannot be found on the
// source, so its lag cannot be measured.
const StatusUnknown = "unknown"

// SubscriptionStatus is one destination subscription joined with its slot's
// state on the source.
type SubscriptionStatus struct {
	postgres.Subscription

	// Lag is the unconfirmed WAL in bytes, as text.
	Lag        string
	FlushedLSN string
}

// SubscriptionStatuses lists the destination's subscriptions and measures
// each one's replication lag and confirmed flush position on the source.
// Subscriptions without a matching slot report both as unknown.
func SubscriptionStatuses(ctx context.Context, src, dest postgres.Querier) ([]SubscriptionStatus, error) {
	subs, err := postgres.ListSubscriptions(ctx, dest)
	if err != nil {
		return nil, err
	}

	statuses := make([]SubscriptionStatus, 0, len(subs))
	for _, s := range subs {
		st := SubscriptionStatus{Subscription: s, Lag: StatusUnknown, FlushedLSN: StatusUnknown}
		if s.SlotName != "" {
			slot, err := postgres.GetReplicationSlot(ctx, src, s.SlotName)
			if err != nil {
				return nil, err
			}
			if slot != nil {
				st.FlushedLSN = slot.ConfirmedFlushLSN
				lag, err := postgres.ReplicationLag(ctx, src, s.SlotName)
				if err != nil {
					return nil, err
				}
				st.Lag = strconv.FormatInt(lag, 10)
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
