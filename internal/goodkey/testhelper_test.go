package goodkey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fixedNow is the clock used by test clients.
var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestClient starts an httptest server running handler and returns a
// client pointed at it with token "test-token".
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	transport, err := NewHTTPTransport(TransportConfig{
		BaseURL:       server.URL + "/",
		Authenticator: NewBearerAuthenticator("test-token"),
	})
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}
	return NewClient(transport, WithClock(func() time.Time { return fixedNow }))
}

// writeJSON writes v with the given status.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Failed to encode response: %v", err)
	}
}

// stubTransport returns a fixed response for every call.
type stubTransport struct {
	resp *Response
	err  error
}

func (s *stubTransport) Do(_ context.Context, _, _ string, _ any) (*Response, error) {
	return s.resp, s.err
}
