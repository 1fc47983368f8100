package interfaces_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront/internal/pkg/auth"
	"storefront/internal/pkg/contracts"
	"storefront/internal/pkg/database"
	"storefront/internal/service/notification/application"
	"storefront/internal/service/notification/infrastructure"
	"storefront/internal/service/notification/interfaces"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type liveStub struct{ served []uint }

func (l *liveStub) Serve(w http.ResponseWriter, _ *http.Request, userID uint) {
	l.served = append(l.served, userID)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func TestNotificationRoutes(t *testing.T) {
	db := database.OpenTestDB(t, infrastructure.Models()...)
	svc := application.NewNotificationService(infrastructure.NewGormNotificationRepository(db), nil, noop.NewTracerProvider().Tracer("test"))
	verifier := auth.NewVerifier("test-secret")
	live := &liveStub{}
	mux := http.NewServeMux()
	interfaces.NewNotificationHandler(svc, live, verifier).RegisterRoutes(mux)

	for range 2 {
		require.NoError(t, svc.HandleOrderEvent(context.Background(), contracts.OrderEvent{Type: contracts.EventOrderPlaced, OrderID: 1, UserID: 5}))
	}
	token, err := verifier.Sign(auth.Actor{UserID: 5, Role: auth.RoleUser}, time.Hour)
	require.NoError(t, err)

	call := func(method, path string, withToken bool) (int, envelope) {
		req := httptest.NewRequest(method, path, nil)
		if withToken {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		var env envelope
		if rec.Code != http.StatusSwitchingProtocols {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		}
		return rec.Code, env
	}

	code, _ := call(http.MethodGet, "/notifications", false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := call(http.MethodGet, "/notifications", true)
	require.Equal(t, http.StatusOK, code)
	var list []application.NotificationDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)

	code, env = call(http.MethodGet, "/notifications/unread-count", true)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))

	code, _ = call(http.MethodPatch, fmt.Sprintf("/notifications/%d/read", list[0].ID), true)
	assert.Equal(t, http.StatusOK, code)
	code, env = call(http.MethodPatch, "/notifications/mark-all-read", true)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"updated":1}`, string(env.Data))

	code, _ = call(http.MethodDelete, fmt.Sprintf("/notifications/%d", list[1].ID), true)
	assert.Equal(t, http.StatusOK, code)
	code, env = call(http.MethodDelete, fmt.Sprintf("/notifications/%d", list[1].ID), true)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error)

	code, _ = call(http.MethodGet, "/notifications/ws", true)
	assert.Equal(t, http.StatusSwitchingProtocols, code)
	assert.Equal(t, []uint{5}, live.served)
}
