package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"storefront/internal/pkg/apperr"
)

const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
	mysqlErrRowIsReferenced = 1451
)

// ClassifyTxError 把事务执行中的基础设施错误归类：
// 死锁、锁等待超时、提交失败、context 取消/超时 -> TransactionFailed；
// 外键仍被引用 -> Conflict。已是业务错误或无法归类的原样返回。
func ClassifyTxError(err error) error {
	if err == nil || apperr.IsKnown(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.New(apperr.ErrTransactionFailed, "Transaction aborted: %v", err)
	case errors.Is(err, sql.ErrTxDone):
		return apperr.New(apperr.ErrTransactionFailed, "Transaction could not be committed")
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return apperr.New(apperr.ErrTransactionFailed, "Transaction failed, please retry")
		case mysqlErrRowIsReferenced:
			return apperr.New(apperr.ErrConflict, "Resource is still referenced")
		}
		return err
	}

	// SQLite 的错误没有导出类型，只能按消息判断
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return apperr.New(apperr.ErrTransactionFailed, "Transaction failed, please retry")
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperr.New(apperr.ErrConflict, "Resource is still referenced")
	}
	return err
}
