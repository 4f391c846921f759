package db

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openDialector(dsn string) gorm.Dialector {
	if isPostgresDSN(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func GetDB(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	if !isPostgresDSN(dsn) && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(openDialector(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("failed to connect to db", "err", err)
		return nil, errors.New("failed to connect to db")
	}

	if !isPostgresDSN(dsn) {
		db.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		logger.Error("failed to migrate db", "err", err)
		return nil, err
	}

	logger.Info("connected to db", "postgres", isPostgresDSN(dsn))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return errors.New("failed to migrate model: " + err.Error())
		}
	}
	return nil
}

func CloseDB(db *gorm.DB, logger *slog.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get db instance", "err", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("failed to close db", "err", err)
		return
	}

	logger.Info("db connection closed")
}

func ResetDB(db *gorm.DB, logger *slog.Logger) {
	logger.Warn("resetting db...")

	ctx := context.Background()
	tables := []string{
		"connections",
		"accounts",
	}

	for _, table := range tables {
		err := gorm.G[any](db).Exec(ctx, "DELETE FROM "+table)
		if err != nil {
			logger.Error("failed to reset table", "table", table, "err", err)
		}
	}

	logger.Info("db is reset")
}
