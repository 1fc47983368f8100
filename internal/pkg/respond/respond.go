// internal/pkg/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/logger"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// JSON 写成功响应 {"success":true,"data":...}
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// Page 写分页响应 {"success":true,"data":[...],"meta":{...}}
func Page(w http.ResponseWriter, status int, data, meta any) {
	write(w, status, envelope{Success: true, Data: data, Meta: meta})
}

// Message 写只有一句提示的成功响应 {"success":true,"message":...}
func Message(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Success: true, Message: msg})
}

// Error 把错误写成 {"success":false,"error":CODE,"message":...}。
// 未归类的错误记录完整信息，对外只返回 internal server error。
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	var (
		ae  *apperr.Error
		msg string
	)
	if errors.As(err, &ae) {
		msg = ae.Error()
	} else {
		logger.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("internal error")
		msg = "internal server error"
	}
	write(w, status, envelope{Success: false, Error: apperr.Code(err), Message: msg})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Warn().Err(err).Msg("failed to write response")
	}
}

// DecodeJSON 解析请求体，格式错误统一返回 ValidationError
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// PathID 读取路径参数中的正整数 ID
func PathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid %s", name)
	}
	return uint(id), nil
}
