package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Subscription mirrors one pg_subscription row on the destination.
type Subscription struct {
	Name         string
	Enabled      bool
	ConnInfo     string
	SlotName     string
	Publications []string
}

const subscriptionCols = `subname, subenabled, subconninfo, COALESCE(subslotname, ''), subpublications`

// ListSubscriptions returns all subscriptions on the endpoint.
func ListSubscriptions(ctx context.Context, q Querier) ([]Subscription, error) {
	sql := `SELECT ` + subscriptionCols + ` FROM pg_subscription ORDER BY subname`
	debugQuery(sql)
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, dbErr("list subscriptions", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.Name, &s.Enabled, &s.ConnInfo, &s.SlotName, &s.Publications); err != nil {
			return nil, dbErr("list subscriptions", err)
		}
		subs = append(subs, s)
	}
	return subs, dbErr("list subscriptions", rows.Err())
}

// GetSubscription returns the named subscription, or nil when it does not
// exist.
func GetSubscription(ctx context.Context, q Querier, name string) (*Subscription, error) {
	sql := `SELECT ` + subscriptionCols + ` FROM pg_subscription WHERE subname = $1`
	debugQuery(sql, name)
	var s Subscription
	err := q.QueryRow(ctx, sql, name).Scan(&s.Name, &s.Enabled, &s.ConnInfo, &s.SlotName, &s.Publications)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("get subscription %s", name), err)
	}
	return &s, nil
}

// SubscriptionOptions parameterize CreateSubscription.
type SubscriptionOptions struct {
	Name        string
	ConnInfo    string // DSN of the source the apply worker connects to
	Publication string
	SlotName    string // must already exist; create_slot is always false
	CopyData    bool
	Enabled     bool
}

// CreateSubscription issues CREATE SUBSCRIPTION. The slot is never created
// implicitly: callers pre-create it so a failed CREATE leaves nothing behind
// on the source. CREATE SUBSCRIPTION cannot take bind parameters, hence the
// quoting.
func CreateSubscription(ctx context.Context, q Querier, opts SubscriptionOptions) error {
	sql := fmt.Sprintf(
		`CREATE SUBSCRIPTION %s CONNECTION %s PUBLICATION %s WITH (copy_data = %t, slot_name = %s, create_slot = false, enabled = %t)`,
		quoteIdent(opts.Name), quoteLiteral(opts.ConnInfo), quoteIdent(opts.Publication),
		opts.CopyData, quoteIdent(opts.SlotName), opts.Enabled)
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("create subscription %s", opts.Name), err)
}

// DisableSubscription stops the apply worker.
func DisableSubscription(ctx context.Context, q Querier, name string) error {
	sql := fmt.Sprintf(`ALTER SUBSCRIPTION %s DISABLE`, quoteIdent(name))
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("disable subscription %s", name), err)
}

// EnableSubscription starts the apply worker.
func EnableSubscription(ctx context.Context, q Querier, name string) error {
	sql := fmt.Sprintf(`ALTER SUBSCRIPTION %s ENABLE`, quoteIdent(name))
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("enable subscription %s", name), err)
}

// DetachSubscriptionSlot dissociates the remote slot so a later DROP
// SUBSCRIPTION does not try to drop it on the source.
func DetachSubscriptionSlot(ctx context.Context, q Querier, name string) error {
	sql := fmt.Sprintf(`ALTER SUBSCRIPTION %s SET (slot_name = NONE)`, quoteIdent(name))
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("detach slot of subscription %s", name), err)
}

// DropSubscription removes the subscription. The slot must be detached first
// (see DetachSubscriptionSlot) when the slot should survive the drop.
func DropSubscription(ctx context.Context, q Querier, name string) error {
	sql := fmt.Sprintf(`DROP SUBSCRIPTION %s`, quoteIdent(name))
	debugQuery(sql)
	_, err := q.Exec(ctx, sql)
	return dbErr(fmt.Sprintf("drop subscription %s", name), err)
}
