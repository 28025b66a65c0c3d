package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrNotConfigured = errors.New("email transport is not configured")

// SendGridConfig holds SendGrid configuration
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	BaseURL   string // defaults to https://api.sendgrid.com
}

// SendGridClient sends emails via SendGrid API
type SendGridClient struct {
	config     SendGridConfig
	httpClient *http.Client
}

// NewSendGridClient creates a new SendGrid email client
func NewSendGridClient(config SendGridConfig) *SendGridClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.sendgrid.com"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &SendGridClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// EmailMessage represents an email to send
type EmailMessage struct {
	To          string
	ToName      string
	Subject     string
	HTMLContent string
	TextContent string
}

// SendGridRequest represents the SendGrid API request
type SendGridRequest struct {
	Personalizations []SendGridPersonalization `json:"personalizations"`
	From             SendGridEmail             `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []SendGridContent         `json:"content"`
}

type SendGridPersonalization struct {
	To []SendGridEmail `json:"to"`
}

type SendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// StatusError is returned when SendGrid answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid returned status %d: %s", e.StatusCode, e.Body)
}

// Send delivers msg. A nil error means SendGrid accepted the message.
func (c *SendGridClient) Send(ctx context.Context, msg *EmailMessage) error {
	if c.config.APIKey == "" {
		return ErrNotConfigured
	}

	request := SendGridRequest{
		Personalizations: []SendGridPersonalization{
			{To: []SendGridEmail{{Email: msg.To, Name: msg.ToName}}},
		},
		From: SendGridEmail{
			Email: c.config.FromEmail,
			Name:  c.config.FromName,
		},
		Subject: msg.Subject,
	}

	// SendGrid requires text/plain before text/html
	if msg.TextContent != "" {
		request.Content = append(request.Content, SendGridContent{Type: "text/plain", Value: msg.TextContent})
	}
	if msg.HTMLContent != "" {
		request.Content = append(request.Content, SendGridContent{Type: "text/html", Value: msg.HTMLContent})
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return nil
}

// LogSender writes messages to the log instead of delivering them. Used in
// development when no SendGrid key is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg *EmailMessage) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("Email not delivered (development log sender)")
	return nil
}
