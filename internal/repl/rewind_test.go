package repl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func expectAdvisoryLocks(src, dest pgxmock.PgxPoolIface) {
	src.ExpectQuery("pg_try_advisory_lock").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"locked"}).AddRow(true))
	dest.ExpectQuery("pg_try_advisory_lock").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"locked"}).AddRow(true))
}

func expectAdvisoryUnlocks(src, dest pgxmock.PgxPoolIface) {
	dest.ExpectExec("pg_advisory_unlock").WithArgs(pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	src.ExpectExec("pg_advisory_unlock").WithArgs(pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func TestRewindHappyPath(t *testing.T) {
	require := require.New(t)
	src, err := pgxmock.NewPool()
	require.NoError(err)
	defer src.Close()
	dest, err := pgxmock.NewPool()
	require.NoError(err)
	defer dest.Close()

	expectAdvisoryLocks(src, dest)
	dest.ExpectQuery("SELECT subname, subenabled").WithArgs("test_sub").WillReturnRows(subscriptionRow())
	dest.ExpectQuery("FROM pg_subscription").WithArgs("test_sub").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("pg_16384"))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnResult(pgxmock.NewResult("ALTER SUBSCRIPTION", 1))
	dest.ExpectExec("pg_replication_origin_advance").WithArgs("pg_16384", "0/16EDE8A0").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnResult(pgxmock.NewResult("ALTER SUBSCRIPTION", 1))
	expectAdvisoryUnlocks(src, dest)

	w := &Rewind{Source: src, Dest: dest, sleep: noSleep}
	err = w.Run(context.Background(), RewindOptions{Subscription: "test_sub", LSN: "0/16EDE8A0"})
	require.NoError(err)
	require.NoError(dest.ExpectationsWereMet())
	require.NoError(src.ExpectationsWereMet())
}

func TestRewindFailureLeavesSubscriptionDisabled(t *testing.T) {
	require := require.New(t)
	src, err := pgxmock.NewPool()
	require.NoError(err)
	defer src.Close()
	dest, err := pgxmock.NewPool()
	require.NoError(err)
	defer dest.Close()

	expectAdvisoryLocks(src, dest)
	dest.ExpectQuery("SELECT subname, subenabled").WithArgs("test_sub").WillReturnRows(subscriptionRow())
	dest.ExpectQuery("FROM pg_subscription").WithArgs("test_sub").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("pg_16384"))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnResult(pgxmock.NewResult("ALTER SUBSCRIPTION", 1))
	boom := errors.New("could not advance origin")
	dest.ExpectExec("pg_replication_origin_advance").WithArgs("pg_16384", "0/16EDE8A0").WillReturnError(boom)
	// no ENABLE after a failed advance
	expectAdvisoryUnlocks(src, dest)

	w := &Rewind{Source: src, Dest: dest, sleep: noSleep}
	err = w.Run(context.Background(), RewindOptions{Subscription: "test_sub", LSN: "0/16EDE8A0"})

	var failed *RewindFailedError
	require.ErrorAs(err, &failed)
	require.Equal("test_sub", failed.Subscription)
	require.NoError(dest.ExpectationsWereMet(), "subscription must not be re-enabled")
}

func TestRewindReenableFailure(t *testing.T) {
	require := require.New(t)
	src, err := pgxmock.NewPool()
	require.NoError(err)
	defer src.Close()
	dest, err := pgxmock.NewPool()
	require.NoError(err)
	defer dest.Close()

	expectAdvisoryLocks(src, dest)
	dest.ExpectQuery("SELECT subname, subenabled").WithArgs("test_sub").WillReturnRows(subscriptionRow())
	dest.ExpectQuery("FROM pg_subscription").WithArgs("test_sub").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("pg_16384"))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnResult(pgxmock.NewResult("ALTER SUBSCRIPTION", 1))
	dest.ExpectExec("pg_replication_origin_advance").WithArgs("pg_16384", "0/16EDE8A0").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnError(errors.New("deadlock detected"))
	expectAdvisoryUnlocks(src, dest)

	w := &Rewind{Source: src, Dest: dest, sleep: noSleep}
	err = w.Run(context.Background(), RewindOptions{Subscription: "test_sub", LSN: "0/16EDE8A0"})

	// The origin moved, so this is a partial state, not a plain failure.
	var reenable *ReenableFailedError
	require.ErrorAs(err, &reenable)
	require.Equal("test_sub", reenable.Subscription)
	require.Equal("0/16EDE8A0", reenable.LSN)
}

func TestRewindSubscriptionNotFound(t *testing.T) {
	require := require.New(t)
	src, err := pgxmock.NewPool()
	require.NoError(err)
	defer src.Close()
	dest, err := pgxmock.NewPool()
	require.NoError(err)
	defer dest.Close()

	expectAdvisoryLocks(src, dest)
	dest.ExpectQuery("SELECT subname, subenabled").WithArgs("nope").WillReturnError(pgx.ErrNoRows)
	expectAdvisoryUnlocks(src, dest)

	w := &Rewind{Source: src, Dest: dest, sleep: noSleep}
	err = w.Run(context.Background(), RewindOptions{Subscription: "nope", LSN: "0/1"})

	var notFound *SubscriptionNotFoundError
	require.ErrorAs(err, &notFound)
}

func TestRewindRefusedWhenLocked(t *testing.T) {
	require := require.New(t)
	src, err := pgxmock.NewPool()
	require.NoError(err)
	defer src.Close()
	dest, err := pgxmock.NewPool()
	require.NoError(err)
	defer dest.Close()

	src.ExpectQuery("pg_try_advisory_lock").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"locked"}).AddRow(false))

	w := &Rewind{Source: src, Dest: dest, sleep: noSleep}
	err = w.Run(context.Background(), RewindOptions{Subscription: "test_sub", LSN: "0/1"})

	var locked *LockedError
	require.ErrorAs(err, &locked)
	require.Equal("source", locked.Role)
}

func TestRewindBytesResolvesTarget(t *testing.T) {
	require := require.New(t)
	src, err := pgxmock.NewPool()
	require.NoError(err)
	defer src.Close()
	dest, err := pgxmock.NewPool()
	require.NoError(err)
	defer dest.Close()

	expectAdvisoryLocks(src, dest)
	dest.ExpectQuery("SELECT subname, subenabled").WithArgs("test_sub").WillReturnRows(subscriptionRow())
	dest.ExpectQuery("FROM pg_subscription").WithArgs("test_sub").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("pg_16384"))
	dest.ExpectQuery("pg_replication_origin_progress").WithArgs("pg_16384").
		WillReturnRows(pgxmock.NewRows([]string{"lsn"}).AddRow("0/16EE0000"))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnResult(pgxmock.NewResult("ALTER SUBSCRIPTION", 1))
	dest.ExpectExec("pg_replication_origin_advance").WithArgs("pg_16384", "0/16EDF000").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	dest.ExpectExec("ALTER SUBSCRIPTION").WillReturnResult(pgxmock.NewResult("ALTER SUBSCRIPTION", 1))
	expectAdvisoryUnlocks(src, dest)

	w := &Rewind{Source: src, Dest: dest, sleep: noSleep}
	err = w.Run(context.Background(), RewindOptions{Subscription: "test_sub", RewindBytes: 4096})
	require.NoError(err)
	require.NoError(dest.ExpectationsWereMet())
}
