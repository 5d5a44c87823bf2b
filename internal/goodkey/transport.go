package goodkey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/remiblancher/goodkey-cms/internal/observability"
)

// DefaultTimeout bounds every GoodKey API call.
const DefaultTimeout = 30 * time.Second

// Transport performs one JSON request against the GoodKey API. A response
// with an error status is not an error at this layer.
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (*Response, error)
}

// Response is a raw API response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON response: %v", ErrRemoteService, err)
	}
	return nil
}

// Fields returns the body as a JSON object, or nil if it is not one.
func (r *Response) Fields() map[string]any {
	var fields map[string]any
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil
	}
	return fields
}

// Authenticator adds credentials to an outgoing request.
type Authenticator interface {
	Authenticate(req *http.Request) error
}

// BearerAuthenticator sends an API token as a bearer credential.
type BearerAuthenticator struct {
	token string
}

// NewBearerAuthenticator creates a bearer token authenticator.
func NewBearerAuthenticator(token string) *BearerAuthenticator {
	return &BearerAuthenticator{token: token}
}

// Authenticate sets the Authorization header when a token is configured.
func (a *BearerAuthenticator) Authenticate(req *http.Request) error {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	return nil
}

// TransportConfig configures an HTTPTransport.
type TransportConfig struct {
	BaseURL       string
	Authenticator Authenticator
	Timeout       time.Duration
	// EnableTracing wraps the HTTP client with a client span per request.
	EnableTracing bool
	Logger        observability.Logger
	// HTTPClient overrides the default client. Timeout and tracing are
	// not applied to it.
	HTTPClient *http.Client
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	baseURL    string
	auth       Authenticator
	httpClient *http.Client
	logger     observability.Logger
}

// NewHTTPTransport creates a transport for the API rooted at cfg.BaseURL.
func NewHTTPTransport(cfg TransportConfig) (*HTTPTransport, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var rt http.RoundTripper = http.DefaultTransport
		if cfg.EnableTracing {
			rt = observability.NewHTTPTracingTransport(rt)
		}
		httpClient = &http.Client{Transport: rt, Timeout: timeout}
	}

	auth := cfg.Authenticator
	if auth == nil {
		auth = NewBearerAuthenticator("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	return &HTTPTransport{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		auth:       auth,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := t.auth.Authenticate(req); err != nil {
		return nil, fmt.Errorf("failed to authenticate request: %w", err)
	}

	t.logger.DebugContext(ctx, "GoodKey {Method} {Path}", method, path)

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	duration := time.Since(start)
	observability.RemoteRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	if err != nil {
		observability.RemoteRequestsTotal.WithLabelValues(method, "error").Inc()
		t.logger.WarnContext(ctx, "GoodKey {Method} {Path} failed after {Duration}ms: {Error}",
			method, path, duration.Milliseconds(), err)
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	observability.RemoteRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	t.logger.DebugContext(ctx, "GoodKey {Method} {Path} returned {StatusCode} ({Duration}ms)",
		method, path, resp.StatusCode, duration.Milliseconds())

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
