package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/respond"
	"storefront/internal/service/order/application"
)

// IdempotencyHeader 下单请求可选的幂等键
const IdempotencyHeader = "Idempotency-Key"

// Router 是 *bootstrap.AppCtx 和 *http.ServeMux 共有的注册方法
type Router interface {
	Handle(pattern string, h http.Handler)
}

// OrderHandler 封装了订单服务的 HTTP 处理器
type OrderHandler struct {
	service  *application.OrderApplicationService
	verifier *auth.Verifier
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service *application.OrderApplicationService, verifier *auth.Verifier) *OrderHandler {
	return &OrderHandler{service: service, verifier: verifier}
}

// RegisterRoutes 所有订单接口都需要登录
func (h *OrderHandler) RegisterRoutes(r Router) {
	routes := map[string]http.HandlerFunc{
		"POST /orders":              h.create,
		"GET /orders":               h.listMine,
		"GET /orders/admin/all":     h.listAll,
		"GET /orders/{id}":          h.get,
		"PATCH /orders/{id}/cancel": h.cancel,
		"PATCH /orders/{id}/status": h.updateStatus,
		"DELETE /orders/{id}":       h.delete,
	}
	for pattern, fn := range routes {
		r.Handle(pattern, h.verifier.Middleware(fn))
	}
}

// placeOrderBody 数字字段先按 json.Number 读入，非整数统一返回 ValidationError
type placeOrderBody struct {
	Items []struct {
		ProductID json.Number `json:"productId"`
		Quantity  json.Number `json:"quantity"`
	} `json:"items"`
}

func (b placeOrderBody) toRequest() (application.PlaceOrderRequest, error) {
	req := application.PlaceOrderRequest{Items: make([]application.LineItem, 0, len(b.Items))}
	for i, it := range b.Items {
		pid, err := strconv.ParseUint(it.ProductID.String(), 10, 64)
		if err != nil {
			return req, apperr.Validation("items[%d].productId must be a positive integer", i)
		}
		qty, err := strconv.Atoi(it.Quantity.String())
		if err != nil {
			return req, apperr.Validation("items[%d].quantity must be a positive integer", i)
		}
		req.Items = append(req.Items, application.LineItem{ProductID: uint(pid), Quantity: qty})
	}
	return req, nil
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())

	var body placeOrderBody
	if err := respond.DecodeJSON(r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	order, created, err := h.service.PlaceOrderIdempotent(r.Context(), actor, r.Header.Get(IdempotencyHeader), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respond.JSON(w, status, order)
}

func (h *OrderHandler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	orders, err := h.service.ListUserOrders(r.Context(), actor)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) listAll(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	q := r.URL.Query()
	// 无法解析的分页参数按缺省处理
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.service.ListAllOrders(r.Context(), actor, application.ListOrdersQuery{
		Status: q.Get("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Page(w, http.StatusOK, result.Data, result.Meta)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	order, err := h.service.GetOrder(r.Context(), actor, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	order, err := h.service.CancelOrder(r.Context(), actor, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := respond.DecodeJSON(r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), actor, id, body.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.DeleteOrder(r.Context(), actor, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Order deleted successfully")
}
