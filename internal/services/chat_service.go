package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ChatSender relays text messages through the WhatsApp gateway. Implemented
// by ChatService; faked in tests.
type ChatSender interface {
	Enabled() bool
	Send(ctx context.Context, chatID, text string) error
}

// ChatService posts messages to a WhatsApp HTTP gateway.
type ChatService struct {
	gatewayURL string
	apiKey     string
	session    string
	client     *http.Client
}

// NewChatService creates a new ChatService.
func NewChatService(gatewayURL, apiKey, session string) *ChatService {
	if session == "" {
		session = "default"
	}
	return &ChatService{
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		apiKey:     apiKey,
		session:    session,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type chatMessage struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Session string `json:"session"`
}

// Enabled reports whether the gateway endpoint is configured. Callers check
// this once per run and skip the channel entirely when it is off.
func (s *ChatService) Enabled() bool {
	return s.gatewayURL != ""
}

// Send relays one message to the given chat id.
func (s *ChatService) Send(ctx context.Context, chatID, text string) error {
	if s.gatewayURL == "" {
		log.Println("[Chat] Gateway URL not configured, skipping send")
		return nil
	}

	msg := chatMessage{
		ChatID:  chatID,
		Text:    text,
		Session: s.session,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL+"/api/sendText", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[Chat] Failed to send to %s: %v", chatID, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("[Chat] Unexpected status %d for %s: %s", resp.StatusCode, chatID, string(respBody))
		return fmt.Errorf("chat gateway returned status %d", resp.StatusCode)
	}

	return nil
}
