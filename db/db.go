// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/deliberate/cliparse"
)

// sqlitePragmas are appended to every SQLite DSN. Foreign keys are off by
// default in SQLite and the schema relies on ON DELETE CASCADE.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg cliparse.Config) (*sql.DB, error) {
	driver, dsn, err := driverDSN(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DatabaseType, err)
	}

	if cfg.DatabaseType == cliparse.DatabasePostgres {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

func driverDSN(dbType, url string) (string, string, error) {
	switch dbType {
	case cliparse.DatabasePostgres:
		return "postgres", url, nil
	case cliparse.DatabaseSQLite:
		if strings.Contains(url, "_pragma=") {
			return "sqlite", url, nil
		}
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		return "sqlite", url + sep + sqlitePragmas, nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", dbType)
	}
}
