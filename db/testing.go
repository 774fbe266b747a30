package db

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

// InitForTests points Instance to a fresh in-memory SQLite database.
// A single connection keeps the shared cache free of table locks.
func InitForTests(t testing.TB) {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := Init("sqlite", "file:"+name+"?mode=memory&cache=shared"); err != nil {
		t.Fatal(err)
	}
	sqlDB, err := Instance.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
}
