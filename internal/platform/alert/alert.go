// Package alert escalates failures that need an operator: a transfer that was
// charged but could not commit, a refund that did not go through, or a
// settlement action that exhausted its retries.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Type string

const (
	TypeCommitFailed     Type = "COMMIT_FAILED"
	TypeRefundFailed     Type = "REFUND_FAILED"
	TypeSettlementFailed Type = "SETTLEMENT_FAILED"
)

type Alert struct {
	Type    Type
	Subject string // dedup key within a type, e.g. a work ID
	Title   string
	Message string
	Fields  map[string]string
}

type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// Metrics counts alerts per channel.
type Metrics struct {
	Sent       *prometheus.CounterVec
	Suppressed *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_alerts_sent_total",
			Help: "Operator alerts delivered, by channel and type",
		}, []string{"channel", "type"}),
		Suppressed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tbt_alerts_suppressed_total",
			Help: "Operator alerts dropped by the cooldown, by type",
		}, []string{"type"}),
	}
}

// MultiAlerter fans an alert out to every channel, dropping repeats of the
// same type and subject inside the cooldown.
type MultiAlerter struct {
	alerters []Alerter
	cooldown time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewMultiAlerter(cooldown time.Duration, logger *slog.Logger, metrics *Metrics, alerters ...Alerter) *MultiAlerter {
	return &MultiAlerter{
		alerters: alerters,
		cooldown: cooldown,
		logger:   logger.With("component", "alerter"),
		metrics:  metrics,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
}

func (m *MultiAlerter) Send(ctx context.Context, alert Alert) error {
	key := string(alert.Type) + ":" + alert.Subject

	m.mu.Lock()
	if last, ok := m.lastSent[key]; ok && m.now().Sub(last) < m.cooldown {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "alert suppressed by cooldown", "key", key)
		if m.metrics != nil {
			m.metrics.Suppressed.WithLabelValues(string(alert.Type)).Inc()
		}
		return nil
	}
	m.lastSent[key] = m.now()
	m.mu.Unlock()

	var firstErr error
	for _, a := range m.alerters {
		if err := a.Send(ctx, alert); err != nil {
			m.logger.WarnContext(ctx, "alert send failed",
				"channel", channelName(a),
				"type", alert.Type,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if m.metrics != nil {
			m.metrics.Sent.WithLabelValues(channelName(a), string(alert.Type)).Inc()
		}
	}
	return firstErr
}

func channelName(a Alerter) string {
	switch a.(type) {
	case *SlackAlerter:
		return "slack"
	case *WebhookAlerter:
		return "webhook"
	case *LogAlerter:
		return "log"
	default:
		return "unknown"
	}
}

// SlackAlerter posts to a Slack incoming webhook.
type SlackAlerter struct {
	webhookURL string
	client     *http.Client
}

func NewSlackAlerter(webhookURL string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackAlerter) Send(ctx context.Context, alert Alert) error {
	emoji := ":warning:"
	switch alert.Type {
	case TypeCommitFailed, TypeRefundFailed:
		emoji = ":rotating_light:"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *[%s]* %s\n%s", emoji, alert.Type, alert.Title, alert.Message)
	if len(alert.Fields) > 0 {
		b.WriteString("\n")
		for _, k := range sortedKeys(alert.Fields) {
			fmt.Fprintf(&b, "- *%s*: %s\n", k, alert.Fields[k])
		}
	}
	return postJSON(ctx, s.client, s.webhookURL, map[string]string{"text": b.String()}, "slack")
}

// WebhookAlerter posts a JSON document to a generic endpoint.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"type":    string(alert.Type),
		"subject": alert.Subject,
		"title":   alert.Title,
		"message": alert.Message,
		"fields":  alert.Fields,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	return postJSON(ctx, w.client, w.url, payload, "webhook")
}

// LogAlerter writes alerts at error level. Used when no channel is configured
// so escalations are never silent.
type LogAlerter struct {
	logger *slog.Logger
}

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (l *LogAlerter) Send(ctx context.Context, alert Alert) error {
	attrs := []any{"type", alert.Type, "subject", alert.Subject, "message", alert.Message}
	for _, k := range sortedKeys(alert.Fields) {
		attrs = append(attrs, k, alert.Fields[k])
	}
	l.logger.ErrorContext(ctx, "operator alert: "+alert.Title, attrs...)
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any, channel string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", channel, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", channel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", channel, resp.StatusCode)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
