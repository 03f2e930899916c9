// Package mysql implements the store.Store capability on MySQL.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/store"
)

// Driver is a MySQL implementation of store.Store backed by database/sql.
type Driver struct {
	db *sql.DB
}

// New opens a MySQL connection pool using the provided Config and returns
// a Driver. It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *store.Config) (*Driver, error) {
	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid mysql config", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- store.Store implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

// Dialect reports DialectMySQL.
func (d *Driver) Dialect() store.Dialect {
	return store.DialectMySQL
}

// Exec runs arbitrary SQL text and returns the scanned result set.
func (d *Driver) Exec(ctx context.Context, query string, args ...any) (any, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}

	rs, err := store.ScanRows(&sqlRows{rows: rows})
	if err != nil {
		return nil, mapError(err, "failed to scan result set")
	}
	return rs, nil
}

// buildDSN constructs the mysql connection string from cfg.
func buildDSN(cfg *store.Config) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	return mc.FormatDSN()
}

// --- database/sql type wrappers ---

// sqlRows wraps *sql.Rows to satisfy store.Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }
func (r *sqlRows) Err() error                 { return r.rows.Err() }

// --- error mapping ---

// MySQL server error codes (read-relevant only).
const (
	myErrSyntax       = 1064
	myErrUnknownTable = 1146
	myErrBadField     = 1054
	myErrAccessDenied = 1045
)

// mapError translates go-sql-driver native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case myErrSyntax, myErrUnknownTable, myErrBadField:
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, myErr.Message), err)
		case myErrAccessDenied:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("%s: %s", msg, myErr.Message), err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
