package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestSubscriptionOriginName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock init: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM pg_subscription").WithArgs("test_sub").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("pg_16384"))

	name, err := SubscriptionOriginName(context.Background(), mock, "test_sub")
	if err != nil {
		t.Fatalf("SubscriptionOriginName: %v", err)
	}
	if name != "pg_16384" {
		t.Fatalf("expected pg_16384, got %q", name)
	}
}

func TestSubscriptionOriginNameMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock init: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM pg_subscription").WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	name, err := SubscriptionOriginName(context.Background(), mock, "nope")
	if err != nil {
		t.Fatalf("missing subscription must not be an error, got %v", err)
	}
	if name != "" {
		t.Fatalf("expected empty name, got %q", name)
	}
}

func TestSubtractLSN(t *testing.T) {
	cases := []struct {
		lsn  string
		n    int64
		want string
	}{
		{"0/16EE0000", 4096, "0/16EDF000"},
		{"0/16EDE8A0", 0, "0/16EDE8A0"},
		// crossing the 4 GiB segment boundary borrows from the high word
		{"1/10", 0x20, "0/FFFFFFF0"},
		{"A4/7D8C0000", 1, "A4/7D8BFFFF"},
	}
	for _, tc := range cases {
		got, err := SubtractLSN(tc.lsn, tc.n)
		if err != nil {
			t.Fatalf("SubtractLSN(%s, %d): %v", tc.lsn, tc.n, err)
		}
		if got != tc.want {
			t.Fatalf("SubtractLSN(%s, %d) = %s, want %s", tc.lsn, tc.n, got, tc.want)
		}
	}
}

func TestSubtractLSNErrors(t *testing.T) {
	if _, err := SubtractLSN("0/1000", 0x2000); err == nil {
		t.Fatal("expected an error rewinding past 0/0")
	}
	if _, err := SubtractLSN("0/1000", -1); err == nil {
		t.Fatal("expected an error for a negative rewind")
	}
	for _, bad := range []string{"", "16EE0000", "x/16EE0000", "0/zz"} {
		if _, err := SubtractLSN(bad, 1); err == nil {
			t.Fatalf("expected an error for malformed LSN %q", bad)
		}
	}
}

func TestAdvanceReplicationOrigin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock init: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("pg_replication_origin_advance").WithArgs("pg_16384", "0/16EDE8A0").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	if err := AdvanceReplicationOrigin(context.Background(), mock, "pg_16384", "0/16EDE8A0"); err != nil {
		t.Fatalf("AdvanceReplicationOrigin: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
