package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestCreateReplicationSlot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock init: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("pg_create_logical_replication_slot").WithArgs("test_slot").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	if err := CreateReplicationSlot(context.Background(), mock, "test_slot"); err != nil {
		t.Fatalf("CreateReplicationSlot: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDropReplicationSlotSurfacesError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock init: %v", err)
	}
	defer mock.Close()

	boom := errors.New(`replication slot "test_slot" is active`)
	mock.ExpectExec("pg_drop_replication_slot").WithArgs("test_slot").WillReturnError(boom)

	err = DropReplicationSlot(context.Background(), mock, "test_slot")
	if err == nil {
		t.Fatal("expected error")
	}
	var dberr *DBError
	if !errors.As(err, &dberr) {
		t.Fatalf("expected *DBError, got %T", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("server error must be preserved, got %v", err)
	}
}

func TestReplicationLag(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock init: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("pg_current_wal_lsn").WithArgs("test_slot").
		WillReturnRows(pgxmock.NewRows([]string{"lag"}).AddRow(int64(42)))

	lag, err := ReplicationLag(context.Background(), mock, "test_slot")
	if err != nil {
		t.Fatalf("ReplicationLag: %v", err)
	}
	if lag != 42 {
		t.Fatalf("expected lag 42, got %d", lag)
	}
}
