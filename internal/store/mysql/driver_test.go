package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/store"
)

func TestBuildDSN(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Host = "db.internal"
	cfg.Port = 3307
	cfg.User = "app"
	cfg.Password = "secret"
	cfg.Database = "shop"

	dsn := buildDSN(cfg)
	assert.Contains(t, dsn, "app:secret@tcp(db.internal:3307)/shop")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestBuildDSN_DefaultPort(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Host = "localhost"
	cfg.User = "app"
	cfg.Database = "shop"

	assert.Contains(t, buildDSN(cfg), "tcp(localhost:3306)")
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"nil passthrough", nil, func(err error) bool { return err == nil }},
		{"deadline", context.DeadlineExceeded, errs.IsTimeout},
		{"canceled", context.Canceled, errs.IsTimeout},
		{"no rows", sql.ErrNoRows, errs.IsNotFound},
		{"syntax", &mysql.MySQLError{Number: 1064, Message: "syntax error"}, errs.IsQueryFailed},
		{"unknown table", &mysql.MySQLError{Number: 1146, Message: "no such table"}, errs.IsQueryFailed},
		{"bad field", &mysql.MySQLError{Number: 1054, Message: "unknown column"}, errs.IsQueryFailed},
		{"access denied", &mysql.MySQLError{Number: 1045, Message: "denied"}, errs.IsConnectionFailed},
		{"other server error", &mysql.MySQLError{Number: 1205, Message: "lock wait"}, errs.IsQueryFailed},
		{"transport", errors.New("broken pipe"), errs.IsConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err, "query failed")
			if tt.err == nil {
				assert.Nil(t, mapped)
				return
			}
			assert.True(t, tt.check(mapped))
			assert.True(t, errors.Is(mapped, tt.err), "the native cause is preserved")
		})
	}
}

func TestMapError_IncludesServerMessage(t *testing.T) {
	err := mapError(&mysql.MySQLError{Number: 1064, Message: "near 'FROMM'"}, "query failed")
	assert.Contains(t, err.Error(), "near 'FROMM'")
}
