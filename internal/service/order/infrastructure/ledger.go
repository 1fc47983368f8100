package infrastructure

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/apperr"
	"storefront/internal/service/order/domain"
)

// GormLedger 在调用方的事务中调整库存，自身不开启事务
type GormLedger struct {
	db *gorm.DB
}

// Decrement 条件扣减：UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?。
// 库存在执行时重新判断，并发下单不会把库存扣成负数。
func (l *GormLedger) Decrement(productID uint, qty int) error {
	res := l.db.Model(&ProductRef{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "decrement stock of product %d", productID)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// 没有更新到行：商品不存在或库存已不足
	var p ProductRef
	if err := l.db.Select("id", "name", "stock").First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Product %d not found", productID)
		}
		return pkgerrors.Wrapf(err, "reload product %d", productID)
	}
	return domain.InsufficientStock(p.Name, p.Stock)
}

// Increment 归还库存
func (l *GormLedger) Increment(productID uint, qty int) error {
	res := l.db.Model(&ProductRef{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "increment stock of product %d", productID)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Product %d not found", productID)
	}
	return nil
}
