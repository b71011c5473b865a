package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONClient_Post(t *testing.T) {
	t.Run("decodes success body and sends headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/charges", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "claim-1", r.Header.Get("Idempotency-Key"))
			_, _ = w.Write([]byte(`{"reference":"ch_123"}`))
		}))
		defer srv.Close()

		c := NewJSONClient("payments", srv.URL, "secret", 0)
		var out struct {
			Reference string `json:"reference"`
		}
		err := c.Post(context.Background(), "/charges", map[string]int{"amount": 500}, &out,
			map[string]string{"Idempotency-Key": "claim-1"})
		require.NoError(t, err)
		assert.Equal(t, "ch_123", out.Reference)
	})

	tests := []struct {
		name      string
		status    int
		body      string
		category  ErrorCategory
		retryable bool
	}{
		{"server error is an outage", http.StatusBadGateway, "", ErrorOutage, true},
		{"rate limited", http.StatusTooManyRequests, "", ErrorRateLimited, true},
		{"declined is rejected", http.StatusUnprocessableEntity, `{"reason":"card declined"}`, ErrorRejected, false},
		{"bad key", http.StatusUnauthorized, "", ErrorAuthentication, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewJSONClient("ledger", srv.URL, "", 0).Post(context.Background(), "/transfers", struct{}{}, nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.category, GetCategory(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}

	t.Run("rejection keeps the collaborator reason", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"reason":"token not owned by sender"}`))
		}))
		defer srv.Close()

		err := NewJSONClient("ledger", srv.URL, "", 0).Post(context.Background(), "/transfers", struct{}{}, nil, nil)
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "token not owned by sender", pe.Message)
	})

	t.Run("unreachable collaborator is an outage", func(t *testing.T) {
		err := NewJSONClient("sms", "http://127.0.0.1:1", "", 0).Post(context.Background(), "/messages", struct{}{}, nil, nil)
		assert.True(t, IsRetryable(err))
	})
}
