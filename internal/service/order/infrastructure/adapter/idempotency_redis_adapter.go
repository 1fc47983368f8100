package adapter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/order/port"
)

const (
	acquireScriptName = "idempotency_acquire"
	releaseScriptName = "idempotency_release"
	pendingMarker     = "PENDING"
	keyPrefix         = "idemp:order:"
)

// IdempotencyRedisAdapter 是 port.IdempotencyStore 的 Redis 实现。
// 键的值在处理中为 PENDING，成功后为订单ID。
type IdempotencyRedisAdapter struct {
	redisClient *redis.Client
}

// NewIdempotencyRedisAdapter 创建适配器并加载脚本
func NewIdempotencyRedisAdapter(redisClient *redis.Client) (*IdempotencyRedisAdapter, error) {
	scripts := map[string]string{acquireScriptName: acquireScript, releaseScriptName: releaseScript}
	for name, content := range scripts {
		if err := redisClient.LoadScriptFromContent(name, content); err != nil {
			return nil, fmt.Errorf("failed to load idempotency script %s: %w", name, err)
		}
	}
	return &IdempotencyRedisAdapter{redisClient: redisClient}, nil
}

// Acquire 在一个脚本里完成 SET NX 或读取已有值，ttl 只作用于处理中标记
func (a *IdempotencyRedisAdapter) Acquire(ctx context.Context, key string, ttl time.Duration) (port.IdempotencyState, uint, error) {
	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	res, err := a.redisClient.RunScript(ctx, acquireScriptName, []string{keyPrefix + key}, pendingMarker, ms)
	if err != nil {
		return 0, 0, fmt.Errorf("idempotency acquire: %w", err)
	}
	val, ok := res.(string)
	if !ok {
		return 0, 0, fmt.Errorf("idempotency key %s: unexpected script reply %T", key, res)
	}
	switch val {
	case "":
		return port.IdempotencyAcquired, 0, nil
	case pendingMarker:
		return port.IdempotencyInFlight, 0, nil
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("idempotency key %s holds unexpected value %q", key, val)
	}
	return port.IdempotencyDone, uint(id), nil
}

// Complete 把键的值改为订单ID
func (a *IdempotencyRedisAdapter) Complete(ctx context.Context, key string, orderID uint, ttl time.Duration) error {
	err := a.redisClient.GetClient().Set(ctx, keyPrefix+key, strconv.FormatUint(uint64(orderID), 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release 只删除仍处于 PENDING 的键，已完成的结果不受影响
func (a *IdempotencyRedisAdapter) Release(ctx context.Context, key string) error {
	_, err := a.redisClient.RunScript(ctx, releaseScriptName, []string{keyPrefix + key}, pendingMarker)
	if err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// 占用成功返回空串，否则返回当前值（PENDING 或订单ID）
var acquireScript = `
-- KEYS[1]: 幂等键
-- ARGV[1]: 处理中标记
-- ARGV[2]: 处理中标记的过期时间（毫秒）
if redis.call('set', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
    return ''
end
return redis.call('get', KEYS[1])
`

var releaseScript = `
-- KEYS[1]: 幂等键
-- ARGV[1]: 处理中标记
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`
