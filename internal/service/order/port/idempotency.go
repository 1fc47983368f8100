package port

import (
	"context"
	"time"
)

// IdempotencyState 幂等键的状态
type IdempotencyState int

const (
	IdempotencyAcquired IdempotencyState = iota // 首次出现，由本次请求处理
	IdempotencyInFlight                         // 同一个键的请求还在处理中
	IdempotencyDone                             // 已经成功处理过，带有订单ID
)

// IdempotencyStore 是下单幂等键的出站端口
type IdempotencyStore interface {
	// Acquire 尝试占用 key，处理中标记在 ttl 后过期；已完成时返回对应的订单ID
	Acquire(ctx context.Context, key string, ttl time.Duration) (IdempotencyState, uint, error)
	// Complete 记录 key 对应的订单
	Complete(ctx context.Context, key string, orderID uint, ttl time.Duration) error
	// Release 处理失败时释放 key，允许客户端重试
	Release(ctx context.Context, key string) error
}
