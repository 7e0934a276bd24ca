// Package testdb opens migrated in-memory sqlite databases for tests.
package testdb

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"contact-book/internal/database"
)

// New returns an isolated migrated database that is closed when the test ends.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := database.Open(context.Background(), database.Options{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared&_foreign_keys=1",
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
