package application

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/service/order/domain"
)

// PlaceOrderRequest 是创建订单用例的输入数据
type PlaceOrderRequest struct {
	Items []LineItem
}

type LineItem struct {
	ProductID uint
	Quantity  int
}

func (r PlaceOrderRequest) lines() []domain.LineRequest {
	out := make([]domain.LineRequest, len(r.Items))
	for i, it := range r.Items {
		out[i] = domain.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// ListOrdersQuery 管理员列表查询参数，原样来自请求，由服务规范化
type ListOrdersQuery struct {
	Status string
	Page   int
	Limit  int
}

// OrderDTO 是对外返回的订单
type OrderDTO struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Items       []OrderItemDTO  `json:"items"`
}

type OrderItemDTO struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"` // 下单时的单价
	Product   *ProductDTO     `json:"product,omitempty"`
}

type ProductDTO struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// OrderPage 分页结果
type OrderPage struct {
	Data []OrderDTO `json:"data"`
	Meta PageMeta   `json:"meta"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// ToOrderDTO 领域模型 -> 输出
func ToOrderDTO(o *domain.Order) OrderDTO {
	dto := OrderDTO{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Items:       make([]OrderItemDTO, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		item := OrderItemDTO{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Price: it.UnitPrice}
		if it.Product != nil {
			item.Product = &ProductDTO{ID: it.Product.ID, Name: it.Product.Name, Price: it.Product.Price, Stock: it.Product.Stock}
		}
		dto.Items = append(dto.Items, item)
	}
	return dto
}

func toOrderDTOs(orders []*domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderDTO(o))
	}
	return out
}
