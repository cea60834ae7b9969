package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ReplicationSlot mirrors one pg_replication_slots row on the source.
type ReplicationSlot struct {
	Name              string
	Plugin            string
	SlotType          string
	ConfirmedFlushLSN string
}

const slotCols = `slot_name, COALESCE(plugin, ''), slot_type, COALESCE(confirmed_flush_lsn::text, '')`

// ListReplicationSlots returns all replication slots on the endpoint.
func ListReplicationSlots(ctx context.Context, q Querier) ([]ReplicationSlot, error) {
	sql := `SELECT ` + slotCols + ` FROM pg_replication_slots ORDER BY slot_name`
	debugQuery(sql)
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, dbErr("list replication slots", err)
	}
	defer rows.Close()

	var slots []ReplicationSlot
	for rows.Next() {
		var s ReplicationSlot
		if err := rows.Scan(&s.Name, &s.Plugin, &s.SlotType, &s.ConfirmedFlushLSN); err != nil {
			return nil, dbErr("list replication slots", err)
		}
		slots = append(slots, s)
	}
	return slots, dbErr("list replication slots", rows.Err())
}

// GetReplicationSlot returns the named slot, or nil when it does not exist.
func GetReplicationSlot(ctx context.Context, q Querier, name string) (*ReplicationSlot, error) {
	sql := `SELECT ` + slotCols + ` FROM pg_replication_slots WHERE slot_name = $1`
	debugQuery(sql, name)
	var s ReplicationSlot
	err := q.QueryRow(ctx, sql, name).Scan(&s.Name, &s.Plugin, &s.SlotType, &s.ConfirmedFlushLSN)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("get replication slot %s", name), err)
	}
	return &s, nil
}

// CreateReplicationSlot creates a logical slot with the pgoutput plugin.
func CreateReplicationSlot(ctx context.Context, q Querier, name string) error {
	sql := `SELECT pg_create_logical_replication_slot($1, 'pgoutput')`
	debugQuery(sql, name)
	_, err := q.Exec(ctx, sql, name)
	return dbErr(fmt.Sprintf("create replication slot %s", name), err)
}

// DropReplicationSlot drops the slot. Fails if the slot is still in use.
func DropReplicationSlot(ctx context.Context, q Querier, name string) error {
	sql := `SELECT pg_drop_replication_slot($1)`
	debugQuery(sql, name)
	_, err := q.Exec(ctx, sql, name)
	return dbErr(fmt.Sprintf("drop replication slot %s", name), err)
}

// ReplicationLag returns how many bytes of WAL the slot's consumer has not
// yet confirmed, measured on the source.
func ReplicationLag(ctx context.Context, q Querier, slotName string) (int64, error) {
	sql := `SELECT (pg_current_wal_lsn() - confirmed_flush_lsn)::bigint
            FROM pg_replication_slots WHERE slot_name = $1`
	debugQuery(sql, slotName)
	var lag int64
	err := q.QueryRow(ctx, sql, slotName).Scan(&lag)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, dbErr("replication lag", fmt.Errorf("slot %s does not exist on source", slotName))
	}
	if err != nil {
		return 0, dbErr("replication lag", err)
	}
	return lag, nil
}
