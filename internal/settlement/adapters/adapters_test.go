package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tbt/pkg/domain"
	"tbt/pkg/platform/providers"
)

type capturedRequest struct {
	Path string
	Key  string
	Body map[string]string
}

// recordingServer answers every request with respond and hands the decoded
// request to the test over a channel.
func recordingServer(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	seen := make(chan capturedRequest, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		seen <- capturedRequest{Path: r.URL.Path, Key: r.Header.Get("Idempotency-Key"), Body: body}
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	srv, seen := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transfers":
			_, _ = w.Write([]byte(`{"signature":"5xSig"}`))
		default:
			w.WriteHeader(http.StatusCreated)
		}
	})
	ledger := NewLedger(srv.URL, "key", time.Second)
	transferID := id.NewTransferID()

	sig, err := ledger.Transfer(ctx, LedgerTransfer{
		TransferID: transferID, TokenID: "tok-1", FromPublicKey: "from", ToPublicKey: "to", Signature: "c2ln",
	})
	require.NoError(t, err)
	assert.Equal(t, "5xSig", sig)
	req := <-seen
	assert.Equal(t, transferID.String(), req.Key)
	assert.Equal(t, "tok-1", req.Body["token_id"])
	assert.Equal(t, "c2ln", req.Body["signature"])

	owner := id.UserID(uuid.New())
	require.NoError(t, ledger.RegisterAccount(ctx, owner, "pub"))
	req = <-seen
	assert.Equal(t, "/accounts", req.Path)
	assert.Equal(t, owner.String(), req.Body["owner_id"])
}

func TestLedgerErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		category  providers.ErrorCategory
		retryable bool
	}{
		{"rejection", http.StatusUnprocessableEntity, `{"reason":"token not owned by sender"}`, providers.ErrorRejected, false},
		{"outage", http.StatusServiceUnavailable, `{}`, providers.ErrorOutage, true},
		{"missing signature", http.StatusOK, `{}`, providers.ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := recordingServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := NewLedger(srv.URL, "", time.Second).Transfer(context.Background(), LedgerTransfer{TransferID: id.NewTransferID()})
			require.Error(t, err)
			assert.Equal(t, tt.category, providers.GetCategory(err))
			assert.Equal(t, tt.retryable, providers.IsRetryable(err))
		})
	}
}

func TestSMSAndEmail(t *testing.T) {
	ctx := context.Background()
	srv, seen := recordingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	})

	msgID, err := NewSMSGateway(srv.URL, "", time.Second).Send(ctx,
		SMS{To: "+15551234567", Body: "You now own Harbour at Dusk", MediaURL: "https://cdn/cert.png"}, "sms-1")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msgID)
	req := <-seen
	assert.Equal(t, "/messages", req.Path)
	assert.Equal(t, "sms-1", req.Key)
	assert.Equal(t, "https://cdn/cert.png", req.Body["media_url"])

	msgID, err = NewMailer(srv.URL, "", time.Second).Send(ctx,
		Email{To: "ada@example.com", Subject: "Certificate transferred", Text: "..."}, "email-1")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msgID)
	req = <-seen
	assert.Equal(t, "/send", req.Path)
	assert.Equal(t, "Certificate transferred", req.Body["subject"])
}
