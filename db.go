package accounts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goliatone/go-accounts/migrations"
	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// OpenDatabase opens a bun database for the given dialect
func OpenDatabase(dialect, dsn string) (*bun.DB, error) {
	switch dialect {
	case DialectSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
		}
		// in memory databases live and die with their connection
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DialectPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres database")
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported database dialect %q", dialect), goerrors.CategoryBadInput)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for dialect
func RunMigrations(ctx context.Context, db *bun.DB, dialect string) error {
	var gooseDialect string
	switch dialect {
	case DialectSQLite:
		gooseDialect = "sqlite3"
	case DialectPostgres:
		gooseDialect = "postgres"
	default:
		return goerrors.New(fmt.Sprintf("unsupported database dialect %q", dialect), goerrors.CategoryBadInput)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set migration dialect")
	}

	if err := gooseUpContext(ctx, db.DB, dialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to run migrations")
	}

	return nil
}
