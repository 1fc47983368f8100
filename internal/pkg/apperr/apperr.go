// internal/pkg/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误类别。业务层返回的错误都应能通过 errors.Is 归到其中之一，
// 其余错误一律视为内部错误。
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrConflict          = errors.New("conflict")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Error 携带错误类别和给调用方看的消息
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Kind 返回错误类别
func (e *Error) Kind() error { return e.kind }

// New 创建一个指定类别的业务错误
func New(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation, NotFound 等是常用类别的快捷方式
func Validation(format string, args ...any) error { return New(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error   { return New(ErrNotFound, format, args...) }
func Forbidden(format string, args ...any) error  { return New(ErrForbidden, format, args...) }

// IsKnown 判断 err 是否属于某个已知业务类别
func IsKnown(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

type mapping struct {
	kind   error
	code   string
	status int
}

var mappings = []mapping{
	{ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{ErrInsufficientStock, "INSUFFICIENT_STOCK", http.StatusConflict},
	{ErrConflict, "CONFLICT", http.StatusConflict},
	{ErrInvalidPrice, "INVALID_PRICE", http.StatusUnprocessableEntity},
	{ErrTransactionFailed, "TRANSACTION_FAILED", http.StatusServiceUnavailable},
}

// Code 返回错误的对外编码，未知错误为 INTERNAL
func Code(err error) string {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.code
		}
	}
	return "INTERNAL"
}

// HTTPStatus 把错误类别映射为 HTTP 状态码
func HTTPStatus(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
