package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// MailSender sends transactional email. Implemented by MailService; faked in
// tests.
type MailSender interface {
	Enabled() bool
	Send(ctx context.Context, toEmail, toName, subject, html string) error
}

// MailService posts transactional email to an HTTP email API.
type MailService struct {
	apiURL    string
	apiKey    string
	fromEmail string
	fromName  string
	client    *http.Client
}

// NewMailService creates a new MailService.
func NewMailService(apiURL, apiKey, fromEmail, fromName string) *MailService {
	return &MailService{
		apiURL:    apiURL,
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type mailParty struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type mailEnvelope struct {
	From    mailParty   `json:"from"`
	To      []mailParty `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html"`
}

// Enabled reports whether the email API credential is configured.
func (s *MailService) Enabled() bool {
	return s.apiKey != ""
}

// Send delivers one email. A missing API key turns the call into a logged
// no-op so the dispatcher keeps working in degraded environments.
func (s *MailService) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	if s.apiKey == "" {
		log.Println("[Mail] API key not configured, skipping send")
		return nil
	}

	envelope := mailEnvelope{
		From:    mailParty{Email: s.fromEmail, Name: s.fromName},
		To:      []mailParty{{Email: toEmail, Name: toName}},
		Subject: subject,
		HTML:    html,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[Mail] Failed to send to %s: %v", toEmail, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("[Mail] Unexpected status %d for %s: %s", resp.StatusCode, toEmail, string(respBody))
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	return nil
}
