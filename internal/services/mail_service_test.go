package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailSend(t *testing.T) {
	var got mailEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := NewMailService(server.URL, "key-1", "tim@buku.test", "Tim Buku")
	err := svc.Send(context.Background(), "aina@example.com", "Aina", "Hello", "<p>Hi</p>")

	require.NoError(t, err)
	assert.Equal(t, "tim@buku.test", got.From.Email)
	assert.Equal(t, "Tim Buku", got.From.Name)
	require.Len(t, got.To, 1)
	assert.Equal(t, "aina@example.com", got.To[0].Email)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "<p>Hi</p>", got.HTML)
}

func TestMailSendWithoutKeyIsNoOp(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	svc := NewMailService(server.URL, "", "tim@buku.test", "Tim Buku")
	err := svc.Send(context.Background(), "aina@example.com", "Aina", "Hello", "<p>Hi</p>")

	require.NoError(t, err, "missing credential degrades to a no-op, not an error")
	assert.False(t, called)
	assert.False(t, svc.Enabled())
}

func TestMailSendNon2xxReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewMailService(server.URL, "key-1", "tim@buku.test", "Tim Buku")
	err := svc.Send(context.Background(), "aina@example.com", "Aina", "Hello", "<p>Hi</p>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
