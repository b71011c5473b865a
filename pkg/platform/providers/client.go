package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// JSONClient posts JSON to a collaborator and classifies failures.
type JSONClient struct {
	providerID string
	baseURL    string
	apiKey     string
	client     *http.Client
}

func NewJSONClient(providerID, baseURL, apiKey string, timeout time.Duration) *JSONClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JSONClient{
		providerID: providerID,
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *JSONClient) ProviderID() string { return c.providerID }

// errorBody is the failure shape shared by the collaborators.
type errorBody struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Post sends in as JSON to path and decodes a 2xx response into out (if non-nil).
// headers are added verbatim.
func (c *JSONClient) Post(ctx context.Context, path string, in, out any, headers map[string]string) error {
	body, err := json.Marshal(in)
	if err != nil {
		return NewProviderError(ErrorInternal, c.providerID, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return NewProviderError(ErrorInternal, c.providerID, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return NewProviderError(ErrorTimeout, c.providerID, "request timed out", err)
		}
		return NewProviderError(ErrorOutage, c.providerID, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return NewProviderError(ErrorOutage, c.providerID, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classify(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewProviderError(ErrorBadData, c.providerID, "decode response", err)
	}
	return nil
}

func (c *JSONClient) classify(status int, raw []byte) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Reason
	if msg == "" {
		msg = eb.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewProviderError(ErrorAuthentication, c.providerID, msg, nil)
	case status == http.StatusNotFound:
		return NewProviderError(ErrorNotFound, c.providerID, msg, nil)
	case status == http.StatusTooManyRequests:
		return NewProviderError(ErrorRateLimited, c.providerID, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewProviderError(ErrorTimeout, c.providerID, msg, nil)
	case status >= 500:
		return NewProviderError(ErrorOutage, c.providerID, msg, nil)
	default:
		return NewProviderError(ErrorRejected, c.providerID, msg, nil)
	}
}

type timeoutError interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	var te timeoutError
	return errors.As(err, &te) && te.Timeout()
}
