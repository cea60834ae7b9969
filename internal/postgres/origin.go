package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ReplicationOrigin mirrors one pg_replication_origin row on the destination.
type ReplicationOrigin struct {
	Name string
}

// ListReplicationOrigins returns all replication origins on the endpoint.
func ListReplicationOrigins(ctx context.Context, q Querier) ([]ReplicationOrigin, error) {
	sql := `SELECT roname FROM pg_replication_origin ORDER BY roname`
	debugQuery(sql)
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, dbErr("list replication origins", err)
	}
	defer rows.Close()

	var origins []ReplicationOrigin
	for rows.Next() {
		var o ReplicationOrigin
		if err := rows.Scan(&o.Name); err != nil {
			return nil, dbErr("list replication origins", err)
		}
		origins = append(origins, o)
	}
	return origins, dbErr("list replication origins", rows.Err())
}

// SubscriptionOriginName resolves the origin tracking a subscription. The
// server names these pg_<suboid>. Returns "" when the subscription is absent.
func SubscriptionOriginName(ctx context.Context, q Querier, subscription string) (string, error) {
	sql := `SELECT 'pg_' || oid FROM pg_subscription WHERE subname = $1`
	debugQuery(sql, subscription)
	var name string
	err := q.QueryRow(ctx, sql, subscription).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", dbErr(fmt.Sprintf("resolve origin of %s", subscription), err)
	}
	return name, nil
}

// ReplicationOriginProgress returns the origin's tracked LSN on the
// destination.
func ReplicationOriginProgress(ctx context.Context, q Querier, origin string) (string, error) {
	sql := `SELECT pg_replication_origin_progress($1, false)::text`
	debugQuery(sql, origin)
	var lsn string
	if err := q.QueryRow(ctx, sql, origin).Scan(&lsn); err != nil {
		return "", dbErr(fmt.Sprintf("origin progress %s", origin), err)
	}
	return lsn, nil
}

// SubtractLSN computes lsn minus n bytes. Done client-side: the server's
// pg_lsn arithmetic operators only exist from PostgreSQL 14, and the tool
// supports 10+.
func SubtractLSN(lsn string, n int64) (string, error) {
	v, err := parseLSN(lsn)
	if err != nil {
		return "", err
	}
	if n < 0 || uint64(n) > v {
		return "", fmt.Errorf("cannot rewind %s by %d bytes", lsn, n)
	}
	return formatLSN(v - uint64(n)), nil
}

// parseLSN decodes PostgreSQL's hi/lo hexadecimal LSN text form.
func parseLSN(s string) (uint64, error) {
	hi, lo, ok := strings.Cut(s, "/")
	if !ok {
		return 0, fmt.Errorf("malformed LSN %q", s)
	}
	h, err := strconv.ParseUint(hi, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed LSN %q", s)
	}
	l, err := strconv.ParseUint(lo, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed LSN %q", s)
	}
	return h<<32 | l, nil
}

func formatLSN(v uint64) string {
	return fmt.Sprintf("%X/%X", uint32(v>>32), uint32(v))
}

// AdvanceReplicationOrigin moves the origin's tracked position to lsn. The
// server does not validate the target; a wrong value makes the apply worker
// skip or re-apply changes.
func AdvanceReplicationOrigin(ctx context.Context, q Querier, origin, lsn string) error {
	sql := `SELECT pg_replication_origin_advance($1, $2::pg_lsn)`
	debugQuery(sql, origin, lsn)
	_, err := q.Exec(ctx, sql, origin, lsn)
	return dbErr(fmt.Sprintf("advance origin %s to %s", origin, lsn), err)
}
