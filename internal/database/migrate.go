package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"staff-quiz/internal/logger"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one versioned schema change split into executable statements.
type Migration struct {
	Version    uint
	Identifier string
	Up         []string
	Down       []string
}

// LoadMigrations reads the embedded migrations in version order.
func LoadMigrations() ([]Migration, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	defer src.Close()

	var migrations []Migration
	version, err := src.First()
	for err == nil {
		m, readErr := readMigration(src, version)
		if readErr != nil {
			return nil, readErr
		}
		migrations = append(migrations, m)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}
	return migrations, nil
}

func readMigration(src source.Driver, version uint) (Migration, error) {
	m := Migration{Version: version}

	r, identifier, err := src.ReadUp(version)
	if err != nil {
		return m, fmt.Errorf("failed to read up migration %d: %w", version, err)
	}
	body, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return m, fmt.Errorf("failed to read up migration %d: %w", version, err)
	}
	m.Identifier = identifier
	m.Up = SplitStatements(string(body))

	r, _, err = src.ReadDown(version)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("failed to read down migration %d: %w", version, err)
	}
	body, err = io.ReadAll(r)
	r.Close()
	if err != nil {
		return m, fmt.Errorf("failed to read down migration %d: %w", version, err)
	}
	m.Down = SplitStatements(string(body))
	return m, nil
}

// SplitStatements splits a script on statement-terminating semicolons. Oracle
// rejects a trailing semicolon on statements sent through the driver, so the
// terminator is dropped.
func SplitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";\n") {
		stmt := strings.TrimSpace(part)
		stmt = strings.TrimSuffix(stmt, ";")
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

const (
	countMigrationTableQuery  = `SELECT COUNT(*) FROM user_tables WHERE table_name = 'SCHEMA_MIGRATIONS'`
	createMigrationTableQuery = `CREATE TABLE schema_migrations (version NUMBER(10) PRIMARY KEY, identifier VARCHAR2(255) NOT NULL, applied_at TIMESTAMP NOT NULL)`
	selectAppliedQuery        = `SELECT version FROM schema_migrations ORDER BY version`
	insertAppliedQuery        = `INSERT INTO schema_migrations (version, identifier, applied_at) VALUES (:1, :2, :3)`
	deleteAppliedQuery        = `DELETE FROM schema_migrations WHERE version = :1`
)

// RunMigrations applies every embedded migration not yet recorded in
// schema_migrations and returns the versions it applied.
func RunMigrations(ctx context.Context, db *sqlx.DB) ([]uint, error) {
	migrations, err := LoadMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}

	var done []uint
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		for _, stmt := range m.Up {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return done, fmt.Errorf("could not execute migration %d (%s): %w", m.Version, m.Identifier, err)
			}
		}
		if _, err := db.ExecContext(ctx, insertAppliedQuery, m.Version, m.Identifier, time.Now().UTC()); err != nil {
			return done, fmt.Errorf("could not record migration %d: %w", m.Version, err)
		}
		logger.Get().Info("Executed migration", zap.Uint("version", m.Version), zap.String("identifier", m.Identifier))
		done = append(done, m.Version)
	}
	return done, nil
}

// RollbackLast reverts the most recently applied migration. It returns 0
// when nothing is applied.
func RollbackLast(ctx context.Context, db *sqlx.DB) (uint, error) {
	migrations, err := LoadMigrations()
	if err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		if !applied[m.Version] {
			continue
		}
		for _, stmt := range m.Down {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return 0, fmt.Errorf("could not revert migration %d: %w", m.Version, err)
			}
		}
		if _, err := db.ExecContext(ctx, deleteAppliedQuery, m.Version); err != nil {
			return 0, fmt.Errorf("could not unrecord migration %d: %w", m.Version, err)
		}
		logger.Get().Info("Reverted migration", zap.Uint("version", m.Version), zap.String("identifier", m.Identifier))
		return m.Version, nil
	}
	return 0, nil
}

func appliedVersions(ctx context.Context, db *sqlx.DB) (map[uint]bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, countMigrationTableQuery); err != nil {
		return nil, fmt.Errorf("could not inspect schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, createMigrationTableQuery); err != nil {
			return nil, fmt.Errorf("could not create schema_migrations: %w", err)
		}
	}

	var versions []int64
	if err := db.SelectContext(ctx, &versions, selectAppliedQuery); err != nil {
		return nil, fmt.Errorf("could not read applied migrations: %w", err)
	}
	applied := make(map[uint]bool, len(versions))
	for _, v := range versions {
		applied[uint(v)] = true
	}
	return applied, nil
}
