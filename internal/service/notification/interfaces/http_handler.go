package interfaces

import (
	"net/http"

	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/respond"
	"storefront/internal/service/notification/application"
)

// Router 是 *bootstrap.AppCtx 和 *http.ServeMux 共有的注册方法
type Router interface {
	Handle(pattern string, h http.Handler)
}

// LiveServer 把已认证的请求升级为推送连接
type LiveServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uint)
}

// NotificationHandler 封装了通知服务的 HTTP 处理器
type NotificationHandler struct {
	service  *application.NotificationService
	live     LiveServer
	verifier *auth.Verifier
}

func NewNotificationHandler(service *application.NotificationService, live LiveServer, verifier *auth.Verifier) *NotificationHandler {
	return &NotificationHandler{service: service, live: live, verifier: verifier}
}

// RegisterRoutes 所有接口都需要登录，只能访问自己的通知
func (h *NotificationHandler) RegisterRoutes(r Router) {
	r.Handle("GET /notifications", h.verifier.Middleware(http.HandlerFunc(h.list)))
	r.Handle("GET /notifications/unread-count", h.verifier.Middleware(http.HandlerFunc(h.unreadCount)))
	r.Handle("PATCH /notifications/mark-all-read", h.verifier.Middleware(http.HandlerFunc(h.markAllRead)))
	r.Handle("PATCH /notifications/{id}/read", h.verifier.Middleware(http.HandlerFunc(h.markRead)))
	r.Handle("DELETE /notifications/{id}", h.verifier.Middleware(http.HandlerFunc(h.delete)))
	if h.live != nil {
		r.Handle("GET /notifications/ws", h.verifier.Middleware(http.HandlerFunc(h.ws)))
	}
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	n, err := h.service.UnreadCount(r.Context(), actor)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	n, err := h.service.MarkRead(r.Context(), actor, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	n, err := h.service.MarkAllRead(r.Context(), actor)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Notification deleted")
}

func (h *NotificationHandler) ws(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	h.live.Serve(w, r, actor.UserID)
}
