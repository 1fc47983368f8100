package interfaces

import (
	"net/http"

	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/respond"
	"storefront/internal/service/catalog/application"
)

// Router 是 *bootstrap.AppCtx 和 *http.ServeMux 共有的注册方法
type Router interface {
	Handle(pattern string, h http.Handler)
}

// ProductHandler 封装了商品目录的 HTTP 处理器
type ProductHandler struct {
	service  *application.CatalogService
	verifier *auth.Verifier
}

func NewProductHandler(service *application.CatalogService, verifier *auth.Verifier) *ProductHandler {
	return &ProductHandler{service: service, verifier: verifier}
}

// RegisterRoutes 读接口公开，写接口需要登录，是否管理员由应用层判断
func (h *ProductHandler) RegisterRoutes(r Router) {
	r.Handle("GET /products", http.HandlerFunc(h.list))
	r.Handle("GET /products/{id}", http.HandlerFunc(h.get))
	r.Handle("POST /products", h.verifier.Middleware(http.HandlerFunc(h.create)))
	r.Handle("PATCH /products/{id}", h.verifier.Middleware(http.HandlerFunc(h.update)))
	r.Handle("DELETE /products/{id}", h.verifier.Middleware(http.HandlerFunc(h.delete)))
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	var req application.CreateProductRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), actor, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var req application.UpdateProductRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), actor, id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), actor, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Product deleted")
}
