package adapters

import (
	"context"
	"time"

	"tbt/pkg/platform/providers"
)

type SMS struct {
	To       string
	Body     string
	MediaURL string // optional certificate image; makes the message an MMS
}

type Email struct {
	To      string
	Subject string
	Text    string
}

type messageResponse struct {
	ID string `json:"id"`
}

// SMSGateway sends SMS/MMS messages.
type SMSGateway struct {
	client *providers.JSONClient
}

func NewSMSGateway(baseURL, apiKey string, timeout time.Duration) *SMSGateway {
	return &SMSGateway{client: providers.NewJSONClient("sms", baseURL, apiKey, timeout)}
}

// Send returns the gateway's message ID. idempotencyKey keeps a retried
// delivery from reaching the recipient twice.
func (g *SMSGateway) Send(ctx context.Context, msg SMS, idempotencyKey string) (string, error) {
	body := map[string]string{"to": msg.To, "body": msg.Body}
	if msg.MediaURL != "" {
		body["media_url"] = msg.MediaURL
	}
	var resp messageResponse
	if err := g.client.Post(ctx, "/messages", body, &resp, map[string]string{"Idempotency-Key": idempotencyKey}); err != nil {
		return "", err
	}
	return resp.ID, nil
}

type Mailer struct {
	client *providers.JSONClient
}

func NewMailer(baseURL, apiKey string, timeout time.Duration) *Mailer {
	return &Mailer{client: providers.NewJSONClient("email", baseURL, apiKey, timeout)}
}

func (m *Mailer) Send(ctx context.Context, msg Email, idempotencyKey string) (string, error) {
	var resp messageResponse
	err := m.client.Post(ctx, "/send", map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
		"text":    msg.Text,
	}, &resp, map[string]string{"Idempotency-Key": idempotencyKey})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}
