package infrastructure

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/database"
	"storefront/internal/service/order/domain"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db        *gorm.DB
	txTimeout time.Duration
}

// NewGormOrderRepository 创建仓储；txTimeout > 0 时每个事务都有独立的超时
func NewGormOrderRepository(db *gorm.DB, txTimeout time.Duration) *GormOrderRepository {
	return &GormOrderRepository{db: db, txTimeout: txTimeout}
}

// RunAtomic 全部成功才提交，任一步骤出错回滚本次调用的所有修改。
// 死锁、锁等待超时、提交失败和 context 取消统一归为 TransactionFailed。
func (r *GormOrderRepository) RunAtomic(ctx context.Context, fn func(tx domain.Tx) error) error {
	if r.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.txTimeout)
		defer cancel()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	if err == nil {
		return nil
	}
	if !apperr.IsKnown(err) && ctx.Err() != nil {
		return apperr.New(apperr.ErrTransactionFailed, "Transaction aborted: %v", ctx.Err())
	}
	return database.ClassifyTxError(err)
}

// FindByID 查找订单，附带明细和当前商品信息
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var m OrderModel
	err := withItems(r.db.WithContext(ctx), true).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound(id)
		}
		return nil, pkgerrors.Wrapf(err, "find order %d", id)
	}
	return ToDomainOrder(&m), nil
}

// ListByUser 返回用户的全部订单，最新的在前
func (r *GormOrderRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.Order, error) {
	var models []OrderModel
	err := withItems(r.db.WithContext(ctx), true).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "list orders of user %d", userID)
	}
	return toDomainOrders(models), nil
}

// List 管理员分页查询，返回当前页和总数
func (r *GormOrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, int64, error) {
	// Count 会改写语句，计数和查询各用一条新的链
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&OrderModel{})
		if filter.Status != nil {
			q = q.Where("status = ?", string(*filter.Status))
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count orders")
	}

	var models []OrderModel
	err := withItems(scoped(), true).
		Order("created_at DESC").Order("id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list orders")
	}
	return toDomainOrders(models), total, nil
}

// FindProducts 按 ID 批量读取商品
func (r *GormOrderRepository) FindProducts(ctx context.Context, ids []uint) (map[uint]domain.Product, error) {
	var rows []ProductRef
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "find products")
	}
	out := make(map[uint]domain.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = ToDomainProduct(&rows[i])
	}
	return out, nil
}

// gormTx 是绑定在一个 GORM 事务上的 domain.Tx
type gormTx struct {
	db *gorm.DB
}

// Create 插入订单和明细，回填 ID 和时间戳
func (t *gormTx) Create(order *domain.Order) error {
	m := FromDomainOrder(order)
	if err := t.db.Omit("Items").Create(m).Error; err != nil {
		return pkgerrors.Wrap(err, "insert order")
	}
	for i := range m.Items {
		m.Items[i].OrderID = m.ID
	}
	if len(m.Items) > 0 {
		if err := t.db.Omit("Product").Create(&m.Items).Error; err != nil {
			return pkgerrors.Wrap(err, "insert order items")
		}
	}

	order.ID = m.ID
	order.CreatedAt = m.CreatedAt
	order.UpdatedAt = m.UpdatedAt
	for i := range order.Items {
		order.Items[i].ID = m.Items[i].ID
	}
	return nil
}

// FindByID 在事务内读取订单和明细（不含商品信息）
func (t *gormTx) FindByID(id uint) (*domain.Order, error) {
	var m OrderModel
	err := withItems(t.db, false).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound(id)
		}
		return nil, pkgerrors.Wrapf(err, "find order %d", id)
	}
	return ToDomainOrder(&m), nil
}

// UpdateStatusIf 条件更新，并发的状态变更只有一个能成功
func (t *gormTx) UpdateStatusIf(id uint, next domain.Status, from ...domain.Status) (bool, error) {
	res := t.db.Model(&OrderModel{}).
		Where("id = ? AND status IN ?", id, domain.StatusValues(from...)).
		Update("status", string(next))
	if res.Error != nil {
		return false, pkgerrors.Wrapf(res.Error, "update status of order %d", id)
	}
	return res.RowsAffected == 1, nil
}

// Delete 先删明细再删订单，不恢复库存
func (t *gormTx) Delete(id uint) error {
	if err := t.db.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
		return pkgerrors.Wrapf(err, "delete items of order %d", id)
	}
	res := t.db.Delete(&OrderModel{}, id)
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "delete order %d", id)
	}
	if res.RowsAffected == 0 {
		return orderNotFound(id)
	}
	return nil
}

func (t *gormTx) Ledger() domain.InventoryLedger {
	return &GormLedger{db: t.db}
}

func withItems(q *gorm.DB, withProduct bool) *gorm.DB {
	q = q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
	if withProduct {
		q = q.Preload("Items.Product")
	}
	return q
}

func toDomainOrders(models []OrderModel) []*domain.Order {
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, ToDomainOrder(&models[i]))
	}
	return out
}

func orderNotFound(id uint) error {
	return apperr.NotFound("Order %d not found", id)
}
