// internal/service/order/domain/state.go
package domain

import (
	"strings"

	"storefront/internal/pkg/apperr"
)

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "PENDING"    // 已创建，库存已扣减
	StatusProcessing Status = "PROCESSING" // 商家处理中
	StatusCompleted  Status = "COMPLETED"  // 终态
	StatusCancelled  Status = "CANCELLED"  // 终态
)

// ActiveStatuses 是仍可变更的状态
var ActiveStatuses = []Status{StatusPending, StatusProcessing}

// ParseStatus 解析外部传入的状态值
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", apperr.Validation("Invalid status %q. Must be one of PENDING, PROCESSING, COMPLETED, CANCELLED", s)
}

// IsTerminal COMPLETED 和 CANCELLED 之后不再有任何变更
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanMoveTo 管理员状态变更规则：
// 非终态可以进入 PROCESSING / COMPLETED / CANCELLED，任何状态都不能回到 PENDING。
func (s Status) CanMoveTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// StatusValues 把状态列表转换为字符串，供 SQL IN 条件使用
func StatusValues(list ...Status) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}
