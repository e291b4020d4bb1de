package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

const sqliteScheme = "sqlite:"

// Connect picks the driver from the URL. "sqlite:<dsn>" and "file:" URLs
// open SQLite, everything else is handed to the PostgreSQL driver.
func Connect(url string) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(trimmed, sqliteScheme):
		return ConnectSQLite(strings.TrimPrefix(trimmed, sqliteScheme))
	case strings.HasPrefix(trimmed, "file:"), trimmed == ":memory:":
		return ConnectSQLite(trimmed)
	default:
		return ConnectPostgres(trimmed)
	}
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
