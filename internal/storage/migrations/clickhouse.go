package migrations

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/rs/zerolog"

	chstore "solana-revival-lab/internal/storage/clickhouse"
)

const chVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    String,
    applied_at DateTime64(3) DEFAULT now64(3)
) ENGINE = ReplacingMergeTree
ORDER BY version`

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RunClickhouseMigrations creates the DSN's database when missing and applies
// pending clickhouse files statement by statement, since the native protocol
// rejects multi-statement queries. The returned connection targets that database.
func RunClickhouseMigrations(ctx context.Context, dsn string, logger zerolog.Logger) (*chstore.Conn, []string, error) {
	db, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := ensureDatabase(ctx, dsn, db); err != nil {
		return nil, nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, db)
	if err != nil {
		return nil, nil, fmt.Errorf("connect clickhouse database %s: %w", db, err)
	}
	done, err := applyClickhouse(ctx, conn, logger)
	if err != nil {
		_ = conn.Close()
		return nil, done, err
	}
	return conn, done, nil
}

func applyClickhouse(ctx context.Context, conn *chstore.Conn, logger zerolog.Logger) ([]string, error) {
	if err := conn.Exec(ctx, chVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations FINAL`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	names, err := pending(ClickhouseFS, "clickhouse", applied)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range names {
		body, err := readMigration(ClickhouseFS, "clickhouse", name)
		if err != nil {
			return done, err
		}
		if err := checkLiterals(body); err != nil {
			return done, fmt.Errorf("migration %s: %w", name, err)
		}
		for _, stmt := range splitStatements(body) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return done, fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
		if err := conn.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, name); err != nil {
			return done, fmt.Errorf("record migration %s: %w", name, err)
		}
		logger.Info().Str("version", name).Msg("clickhouse migration applied")
		done = append(done, name)
	}
	return done, nil
}

func ensureDatabase(ctx context.Context, dsn, db string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse server: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS `"+db+"`"); err != nil {
		return fmt.Errorf("create database %s: %w", db, err)
	}
	return nil
}

// databaseFromDSN returns the database named in the DSN. It must be a plain identifier.
func databaseFromDSN(dsn string) (string, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := opts.Auth.Database
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn has no database")
	}
	if !identifier.MatchString(db) {
		return "", fmt.Errorf("clickhouse database %q is not a plain identifier", db)
	}
	return db, nil
}
