package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// advisoryKey is derived from the tool name so all replctl instances contend
// on the same session-level advisory lock.
var advisoryKey = func() int64 {
	sum := sha256.Sum256([]byte("replctl"))
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}()

// TryAdvisoryLock takes the replctl session lock on the endpoint without
// blocking. Returns false when another instance holds it.
func TryAdvisoryLock(ctx context.Context, q Querier) (bool, error) {
	sql := `SELECT pg_try_advisory_lock($1)`
	debugQuery(sql, advisoryKey)
	var locked bool
	if err := q.QueryRow(ctx, sql, advisoryKey).Scan(&locked); err != nil {
		return false, dbErr("advisory lock", err)
	}
	return locked, nil
}

// AdvisoryUnlock releases the replctl session lock.
func AdvisoryUnlock(ctx context.Context, q Querier) error {
	sql := `SELECT pg_advisory_unlock($1)`
	debugQuery(sql, advisoryKey)
	_, err := q.Exec(ctx, sql, advisoryKey)
	return dbErr("advisory unlock", err)
}
