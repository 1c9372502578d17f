package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAuthenticate(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/admins/auth-with-password", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer server.Close()

	svc := NewStoreService(server.URL, "admin@buku.test", "secret")
	token, err := svc.Authenticate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "admin@buku.test", gotBody["identity"])
	assert.Equal(t, "secret", gotBody["password"])
}

func TestStoreAuthenticateFailures(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		svc := NewStoreService("http://localhost:1", "", "")
		_, err := svc.Authenticate(context.Background())
		require.Error(t, err)
	})

	t.Run("non-2xx", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
		}))
		defer server.Close()

		svc := NewStoreService(server.URL, "admin@buku.test", "wrong")
		_, err := svc.Authenticate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("empty token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		svc := NewStoreService(server.URL, "admin@buku.test", "secret")
		_, err := svc.Authenticate(context.Background())
		require.Error(t, err)
	})
}

func TestStoreListOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/orders/records", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "50", r.URL.Query().Get("perPage"))
		assert.Equal(t, "(status='pending')", r.URL.Query().Get("filter"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "rec1", "customerName": "Aina", "status": "pending", "followupCount": 1, "amount": 59.9},
			},
		})
	}))
	defer server.Close()

	svc := NewStoreService(server.URL, "a", "b")
	orders, err := svc.ListOrders(context.Background(), "tok-123", OrderFilter{Status: OrderStatusPending, Limit: 50})

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "rec1", orders[0].ID)
	assert.Equal(t, 1, orders[0].FollowupCount)
	assert.Equal(t, 59.9, orders[0].Amount)
}

func TestStoreUpdateOrder(t *testing.T) {
	var gotFields map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/collections/orders/records/rec1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFields))
		_, _ = w.Write([]byte(`{"id":"rec1"}`))
	}))
	defer server.Close()

	svc := NewStoreService(server.URL, "a", "b")
	err := svc.UpdateOrder(context.Background(), "tok", "rec1", map[string]any{"followupCount": 2})

	require.NoError(t, err)
	assert.Equal(t, float64(2), gotFields["followupCount"])
}

func TestStoreCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rec9", "status": "pending"})
	}))
	defer server.Close()

	svc := NewStoreService(server.URL, "a", "b")
	order, err := svc.CreateOrder(context.Background(), "tok", map[string]any{"customerName": "Farid"})

	require.NoError(t, err)
	assert.Equal(t, "rec9", order.ID)
	assert.Equal(t, OrderStatusPending, order.Status)
}

func TestParseStoreTime(t *testing.T) {
	rfc, ok := ParseStoreTime("2026-03-02T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, 2026, rfc.Year())

	store, ok := ParseStoreTime("2026-03-02 10:00:00.000Z")
	require.True(t, ok)
	assert.Equal(t, time.March, store.Month())

	_, ok = ParseStoreTime("")
	assert.False(t, ok)

	_, ok = ParseStoreTime("yesterday")
	assert.False(t, ok)
}

func TestOrderCreatedAtFallback(t *testing.T) {
	primary := StoreOrder{CreatedAt: "2026-03-02T10:00:00Z", Created: "2026-01-01 00:00:00.000Z"}
	got, ok := OrderCreatedAt(primary)
	require.True(t, ok)
	assert.Equal(t, time.March, got.Month(), "explicit createdAt wins")

	fallback := StoreOrder{Created: "2026-01-01 00:00:00.000Z"}
	got, ok = OrderCreatedAt(fallback)
	require.True(t, ok)
	assert.Equal(t, time.January, got.Month())

	_, ok = OrderCreatedAt(StoreOrder{})
	assert.False(t, ok)
}
