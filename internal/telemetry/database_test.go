package telemetry

import (
	"testing"

	_ "github.com/lib/pq"
)

func TestOpenDB(t *testing.T) {
	db, err := OpenDB("postgres", "postgres://boutiqa@localhost:5432/boutiqa?sslmode=disable")
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if got := db.Stats().MaxOpenConnections; got != 25 {
		t.Fatalf("expected pool bounded at 25 connections, got %d", got)
	}
}
