package notify

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

// Message is a single transactional email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendClient posts messages to the Resend HTTP API.
type ResendClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewResendClient builds a Resend client. A nil client gets a 10 second timeout.
func NewResendClient(client *http.Client, baseURL, apiKey string) *ResendClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &ResendClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Send posts the message to /emails.
func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend error (status %d): %s", resp.StatusCode, extractResendError(resp.Body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func extractResendError(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return "resend returned an error"
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return string(data)
}

// LogSender only logs messages. It is used when no API key is configured.
type LogSender struct{}

// Send logs the recipients and subject.
func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Printf("component=mailer sender=log to=%s subject=%q", strings.Join(msg.To, ","), msg.Subject)
	return nil
}

var (
	_ Sender = (*ResendClient)(nil)
	_ Sender = LogSender{}
)
