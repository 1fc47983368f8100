package database_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/database"
)

func TestClassifyTxError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"deadlock", pkgerrors.Wrap(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, "decrement"), apperr.ErrTransactionFailed},
		{"lock wait", &mysql.MySQLError{Number: 1205}, apperr.ErrTransactionFailed},
		{"fk", fmt.Errorf("delete: %w", &mysql.MySQLError{Number: 1451}), apperr.ErrConflict},
		{"canceled", context.Canceled, apperr.ErrTransactionFailed},
		{"deadline", fmt.Errorf("commit: %w", context.DeadlineExceeded), apperr.ErrTransactionFailed},
		{"tx done", sql.ErrTxDone, apperr.ErrTransactionFailed},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), apperr.ErrTransactionFailed},
		{"known", apperr.New(apperr.ErrInsufficientStock, "x"), apperr.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, database.ClassifyTxError(tc.in), tc.want)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, database.ClassifyTxError(other))
	assert.NoError(t, database.ClassifyTxError(nil))
}
