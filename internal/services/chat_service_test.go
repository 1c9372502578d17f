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

func TestChatSend(t *testing.T) {
	var got chatMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sendText", r.URL.Path)
		require.Equal(t, "key-9", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "key-9", "funnel")
	err := svc.Send(context.Background(), "60123456789@c.us", "Hai!")

	require.NoError(t, err)
	assert.Equal(t, "60123456789@c.us", got.ChatID)
	assert.Equal(t, "Hai!", got.Text)
	assert.Equal(t, "funnel", got.Session)
}

func TestChatSessionDefaults(t *testing.T) {
	svc := NewChatService("http://localhost:1", "", "")
	assert.Equal(t, "default", svc.session)
}

func TestChatDisabledWithoutGatewayURL(t *testing.T) {
	svc := NewChatService("", "", "")
	assert.False(t, svc.Enabled())

	err := svc.Send(context.Background(), "60123456789@c.us", "Hai!")
	require.NoError(t, err, "unconfigured channel is a logged no-op")
}

func TestChatSendNon2xxReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not started", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "", "default")
	err := svc.Send(context.Background(), "60123456789@c.us", "Hai!")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
