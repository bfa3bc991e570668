// ABOUTME: gorm-backed SQLite store for the tool-call audit trail.
// ABOUTME: Creates the database directory and migrates the schema on open.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is a gorm-backed audit store.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the audit database at path and migrates it.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if path == "" {
		return nil, errors.New("audit database path is required")
	}

	if !isMemory(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating audit database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	if isMemory(path) {
		// each connection to :memory: is a separate database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(&ToolCall{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrating audit database: %w", err)
	}

	log.Debug("audit store opened", "path", path)
	return &Store{db: db, logger: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return closeDB(s.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
