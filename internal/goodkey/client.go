// Package goodkey implements the client side of the GoodKey remote signing
// API: token profile lookup, certificate download and the two-phase
// create/finalize signing exchange.
package goodkey

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/remiblancher/goodkey-cms/internal/observability"
)

// OperationTTL is how long a created signing operation stays valid.
const OperationTTL = time.Hour

// Client calls the GoodKey API through a Transport.
type Client struct {
	transport Transport
	logger    observability.Logger
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock overrides the time source used for operation expiration.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client over transport.
func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		logger:    observability.NewNullLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call sends one request and decodes a successful body into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.transport.Do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteService, err)
	}
	if resp.StatusCode >= 400 {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// GetProfile returns the keys and certificates of the API token.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.call(ctx, http.MethodGet, "/token/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetKey returns a single key.
func (c *Client) GetKey(ctx context.Context, keyID string) (*Key, error) {
	var key Key
	if err := c.call(ctx, http.MethodGet, keyPath(keyID), nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// GetCertificate returns the metadata of a certificate attached to a key.
func (c *Client) GetCertificate(ctx context.Context, keyID, certID string) (*CertificateInfo, error) {
	var info CertificateInfo
	if err := c.call(ctx, http.MethodGet, certificatePath(keyID, certID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DownloadCertificate returns the DER bytes of a certificate.
func (c *Client) DownloadCertificate(ctx context.Context, keyID, certID string) ([]byte, error) {
	var resp downloadResponse
	if err := c.call(ctx, http.MethodGet, certificatePath(keyID, certID)+"/download", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == "" {
		return nil, fmt.Errorf("%w: certificate %s has no data", ErrRemoteService, certID)
	}
	der, err := decodeBase64URL(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid certificate encoding: %v", ErrRemoteService, err)
	}
	return der, nil
}

// CreateOperation starts an RSASSA-PKCS1-v1_5 SHA-256 signing operation
// that expires after OperationTTL.
func (c *Client) CreateOperation(ctx context.Context, keyID string) (*Operation, error) {
	req := createOperationRequest{
		Type:           "sign",
		Algorithm:      RSASHA256,
		ExpirationDate: c.now().Add(OperationTTL).Format(time.RFC3339),
	}

	var op Operation
	if err := c.call(ctx, http.MethodPost, keyPath(keyID)+"/operation", req, &op); err != nil {
		return nil, err
	}
	if op.ID == "" {
		return nil, fmt.Errorf("%w: operation created without an id", ErrRemoteService)
	}

	c.logger.DebugContext(ctx, "Operation {OperationId} created for key {KeyId}", op.ID, keyID)
	return &op, nil
}

// FinalizeOperation submits digest for signing. The returned result must be
// checked through FinalizeResult.Signature.
func (c *Client) FinalizeOperation(ctx context.Context, keyID, operationID string, digest []byte) (*FinalizeResult, error) {
	path := keyPath(keyID) + "/operation/" + url.PathEscape(operationID) + "/finalize"

	var resp finalizeResponse
	if err := c.call(ctx, http.MethodPatch, path, finalizeRequest{Data: encodeBase64URL(digest)}, &resp); err != nil {
		return nil, err
	}
	if resp.Operation.ID == "" {
		resp.Operation.ID = operationID
	}

	c.logger.DebugContext(ctx, "Operation {OperationId} finalized with status {Status}", resp.Operation.ID, resp.Operation.Status)
	return newFinalizeResult(&resp), nil
}

func keyPath(keyID string) string {
	return "/key/" + url.PathEscape(keyID)
}

func certificatePath(keyID, certID string) string {
	return keyPath(keyID) + "/certificate/" + url.PathEscape(certID)
}
