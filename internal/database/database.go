// Package database opens the Postgres pool and keeps the schema migrated.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/config"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// Connect opens a pool and pings it. With a non-nil log every query is
// traced at debug level.
func Connect(ctx context.Context, c config.PostgresConfig, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse pool config: %w", err)
	}
	if log != nil {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   tracer(log),
			LogLevel: tracelog.LogLevelDebug,
		}
	}
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return db, nil
}

func tracer(log logrus.FieldLogger) tracelog.LoggerFunc {
	return func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		entry := log.WithFields(data)
		switch level {
		case tracelog.LogLevelError:
			entry.Error(msg)
		case tracelog.LogLevelWarn:
			entry.Warn(msg)
		case tracelog.LogLevelInfo:
			entry.Info(msg)
		default:
			entry.Debug(msg)
		}
	}
}

// Migrate applies every pending migration found under migrations/ in src.
func Migrate(url string, src fs.FS) (*migrate.Migrate, error) {
	source, err := iofs.New(src, "migrations")
	if err != nil {
		return nil, fmt.Errorf("unable to create migrations iofs: %w", err)
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return migrator, nil
}

// Rollback reverts every migration found under migrations/ in src.
func Rollback(url string, src fs.FS) error {
	source, err := iofs.New(src, "migrations")
	if err != nil {
		return fmt.Errorf("unable to create migrations iofs: %w", err)
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("unable to create migrator: %w", err)
	}
	defer migrator.Close()
	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back database: %w", err)
	}
	return nil
}

func ConnectAndMigrate(ctx context.Context, c config.PostgresConfig, log logrus.FieldLogger) (*pgxpool.Pool, *migrate.Migrate, error) {
	migrator, err := Migrate(c.URL(), Migrations)
	if err != nil {
		return nil, nil, err
	}
	db, err := Connect(ctx, c, log)
	if err != nil {
		return nil, nil, err
	}
	return db, migrator, nil
}
