// Package service provides business logic for the REST API.
package service

import (
	"context"

	"github.com/remiblancher/goodkey-cms/internal/builder"
)

// CMSBuilder produces a detached SignedData for a hex-encoded digest.
type CMSBuilder interface {
	Build(ctx context.Context, hexDigest string) ([]byte, error)
}

var _ CMSBuilder = (*builder.Builder)(nil)

// CMSService provides CMS operations for the REST API.
type CMSService struct {
	builder CMSBuilder
}

// NewCMSService creates a new CMSService.
func NewCMSService(b CMSBuilder) *CMSService {
	return &CMSService{builder: b}
}

// Sign returns the DER-encoded ContentInfo for hash. requestID is
// recorded in the audit trail of the build.
func (s *CMSService) Sign(ctx context.Context, hash, requestID string) ([]byte, error) {
	if requestID != "" {
		ctx = builder.ContextWithRequestID(ctx, requestID)
	}
	return s.builder.Build(ctx, hash)
}
