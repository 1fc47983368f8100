// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// RunAtomic 在一个事务中执行 fn，fn 返回错误时回滚全部修改
	RunAtomic(ctx context.Context, fn func(tx Tx) error) error

	// FindByID 查找订单，附带明细和当前商品信息
	FindByID(ctx context.Context, id uint) (*Order, error)
	// ListByUser 返回用户的订单，最新的在前
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)
	// List 管理员分页查询
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)

	// FindProducts 按 ID 批量读取商品，不存在的 ID 不出现在结果中
	FindProducts(ctx context.Context, ids []uint) (map[uint]Product, error)
}

// Tx 是事务内可用的操作，已绑定调用方的 context
type Tx interface {
	Create(order *Order) error
	FindByID(id uint) (*Order, error)
	// UpdateStatusIf 仅当当前状态在 from 中时更新，返回是否更新成功
	UpdateStatusIf(id uint, next Status, from ...Status) (bool, error)
	Delete(id uint) error
	Ledger() InventoryLedger
}

// InventoryLedger 在调用方事务中调整库存
type InventoryLedger interface {
	// Decrement 条件扣减（stock >= qty），不满足时返回 InsufficientStock
	Decrement(productID uint, qty int) error
	Increment(productID uint, qty int) error
}

// ListFilter 管理员列表的过滤和分页参数，已规范化
type ListFilter struct {
	Status *Status
	Offset int
	Limit  int
}
