// Package repomanager vends the SQL-backed repositories for a configured
// driver and runs the embedded goose migrations for its dialect.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dharitri/backend/internal/dbx"
	"github.com/dharitri/backend/internal/server/migrations"
	"github.com/dharitri/backend/internal/server/repositories/reports"
	"github.com/dharitri/backend/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Reports(db dbx.DBTX) reports.Repository
}

// SQLRepositoryManager serves both drivers; only the migration dialect and
// directory differ between them.
type SQLRepositoryManager struct {
	dialect string
	dir     string
}

// NewRepositoryManager returns a manager for driver ("sqlite" or "pgx").
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverSQLite:
		return &SQLRepositoryManager{dialect: "sqlite3", dir: "sqlite"}, nil
	case DriverPostgres:
		return &SQLRepositoryManager{dialect: "postgres", dir: "postgres"}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Reports(db dbx.DBTX) reports.Repository {
	return reports.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, m.dir)
}

// Open opens and pings a database handle for driver. SQLite gets a single
// connection since it serialises writers anyway.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
