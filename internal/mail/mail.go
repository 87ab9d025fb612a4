// Package mail delivers outbound email through an HTTP relay API.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client posts messages to the configured relay endpoint.
type Client struct {
	http *resty.Client
	from string
	log  *zap.Logger
}

// NewClient builds a mail client from config. When no relay URL is
// configured, messages are logged and dropped (development mode).
func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.MailAPIURL).
		SetTimeout(10 * time.Second).
		SetHeader("Authorization", "Bearer "+cfg.MailAPIKey)

	return &Client{http: http, from: cfg.MailFrom, log: logger}
}

// Send delivers one message. Failure is a generic delivery error; callers
// treat delivery as fire-and-forget.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.http.BaseURL == "" {
		c.log.Info("mail relay not configured, dropping message",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return nil
	}

	body := map[string]string{
		"from":    c.from,
		"to":      msg.To,
		"subject": msg.Subject,
		"text":    msg.Text,
		"html":    msg.HTML,
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/send")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send email: relay responded %s", resp.Status())
	}
	return nil
}
