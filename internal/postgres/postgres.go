package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgtools/replctl/internal/config"
)

// Querier is the subset of *pgx.Conn the primitives need. pgxmock satisfies
// it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBError marks a failure coming from the database layer. The underlying
// server message is preserved untouched.
type DBError struct {
	Op  string
	Err error
}

func (e *DBError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *DBError) Unwrap() error { return e.Err }

func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DBError{Op: op, Err: err}
}

// Connect opens a single connection to the endpoint. No pooling: every
// invocation gets fresh connections and closes them on exit.
func Connect(ctx context.Context, ep config.Endpoint) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, ep.DSN)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("connect %s", ep.Role), err)
	}
	return conn, nil
}

// EnsureSuperuser checks the connected user is a SUPERUSER, which logical
// replication administration requires.
func EnsureSuperuser(ctx context.Context, q Querier) error {
	var super bool
	err := q.QueryRow(ctx, `SELECT usesuper FROM pg_user WHERE usename = CURRENT_USER`).Scan(&super)
	if err != nil {
		return dbErr("check superuser", err)
	}
	if !super {
		return dbErr("check superuser", fmt.Errorf("current user is not a SUPERUSER"))
	}
	return nil
}

// EnsureVersion10Plus checks that server_version_num >= 100000, the first
// release with native logical replication.
func EnsureVersion10Plus(ctx context.Context, q Querier) error {
	var verStr string
	if err := q.QueryRow(ctx, `SHOW server_version_num`).Scan(&verStr); err != nil {
		return dbErr("query version", err)
	}
	verNum, err := strconv.Atoi(verStr)
	if err != nil {
		return dbErr("query version", fmt.Errorf("parse version_num %s: %w", verStr, err))
	}
	if verNum < 100000 {
		return dbErr("query version", fmt.Errorf("PostgreSQL >= 10 required, server reports %s", verStr))
	}
	return nil
}

// Provider holds the topology and opens at most one connection per side,
// lazily, for the life of the invocation.
type Provider struct {
	topo config.Topology

	src  *pgx.Conn
	dest *pgx.Conn
}

// NewProvider wraps a loaded topology.
func NewProvider(t config.Topology) *Provider {
	return &Provider{topo: t}
}

// Topology returns the topology this provider was built from.
func (p *Provider) Topology() config.Topology { return p.topo }

// Source returns the connection to the source (publisher) side.
func (p *Provider) Source(ctx context.Context) (*pgx.Conn, error) {
	if p.src == nil {
		conn, err := p.open(ctx, p.topo.Source)
		if err != nil {
			return nil, err
		}
		p.src = conn
	}
	return p.src, nil
}

// Destination returns the connection to the destination (subscriber) side.
func (p *Provider) Destination(ctx context.Context) (*pgx.Conn, error) {
	if p.dest == nil {
		conn, err := p.open(ctx, p.topo.Destination)
		if err != nil {
			return nil, err
		}
		p.dest = conn
	}
	return p.dest, nil
}

func (p *Provider) open(ctx context.Context, ep config.Endpoint) (*pgx.Conn, error) {
	conn, err := Connect(ctx, ep)
	if err != nil {
		return nil, err
	}
	if err := EnsureSuperuser(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%s: %w", ep.Role, err)
	}
	if err := EnsureVersion10Plus(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%s: %w", ep.Role, err)
	}
	slog.Info("connected", "role", ep.Role)
	return conn, nil
}

// Close releases both connections; safe to call multiple times.
func (p *Provider) Close(ctx context.Context) {
	if p.src != nil {
		_ = p.src.Close(ctx)
		p.src = nil
	}
	if p.dest != nil {
		_ = p.dest.Close(ctx)
		p.dest = nil
	}
}

// debugQuery logs every statement sent to a server, like psql's echo.
func debugQuery(sql string, args ...any) {
	if len(args) == 0 {
		slog.Debug("psql", "query", sql)
		return
	}
	slog.Debug("psql", "query", sql, "args", args)
}

// quoteIdent quotes an SQL identifier for commands that cannot take
// parameters (CREATE/ALTER/DROP SUBSCRIPTION and friends).
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteLiteral quotes a string literal for the same class of commands.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
