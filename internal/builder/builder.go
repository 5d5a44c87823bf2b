// Package builder runs the signing pipeline: it resolves the credential
// from the token profile, builds the signed attributes, has the remote
// service sign their digest and assembles the detached SignedData.
package builder

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/remiblancher/goodkey-cms/internal/audit"
	"github.com/remiblancher/goodkey-cms/internal/cms"
	"github.com/remiblancher/goodkey-cms/internal/goodkey"
	"github.com/remiblancher/goodkey-cms/internal/observability"
)

// RemoteSigner is the part of the GoodKey API the pipeline uses.
type RemoteSigner interface {
	GetProfile(ctx context.Context) (*goodkey.Profile, error)
	DownloadCertificate(ctx context.Context, keyID, certID string) ([]byte, error)
	CreateOperation(ctx context.Context, keyID string) (*goodkey.Operation, error)
	FinalizeOperation(ctx context.Context, keyID, operationID string, digest []byte) (*goodkey.FinalizeResult, error)
}

var _ RemoteSigner = (*goodkey.Client)(nil)

// Builder produces detached CMS SignedData for content digests. It holds no
// per-build state and is safe for concurrent use.
type Builder struct {
	remote        RemoteSigner
	keyID         string
	certificateID string
	clock         func() time.Time
	logger        observability.Logger
	actor         audit.Actor
}

// Option configures a Builder.
type Option func(*Builder)

// WithKeyID selects the signing key by id instead of the first one.
func WithKeyID(id string) Option {
	return func(b *Builder) { b.keyID = id }
}

// WithCertificateID selects the certificate by id instead of the first one.
func WithCertificateID(id string) Option {
	return func(b *Builder) { b.certificateID = id }
}

// WithClock sets the source of the signing time.
func WithClock(clock func() time.Time) Option {
	return func(b *Builder) { b.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithActor sets the actor recorded in audit events.
func WithActor(actor audit.Actor) Option {
	return func(b *Builder) { b.actor = actor }
}

// New creates a Builder backed by remote.
func New(remote RemoteSigner, opts ...Option) *Builder {
	b := &Builder{
		remote: remote,
		clock:  time.Now,
		logger: observability.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id that is recorded in audit
// events.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Build returns the DER-encoded ContentInfo for the hex-encoded digest.
// Nothing is returned unless every step succeeds.
func (b *Builder) Build(ctx context.Context, hexDigest string) (der []byte, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "cms.Build")
	defer span.End()

	record := audit.CMSSign{Actor: b.actor, RequestID: RequestIDFromContext(ctx)}
	defer func() {
		if auditErr := audit.LogCMSSign(record, err); auditErr != nil && err == nil {
			der, err = nil, auditErr
		}

		result := "success"
		if err != nil {
			result = KindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.logger.WarnContext(ctx, "CMS build failed ({Kind}): {Error}", result, err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		observability.BuildsTotal.WithLabelValues(result).Inc()
		observability.BuildDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	digest, err := cms.DecodeDigest(hexDigest)
	if err != nil {
		return nil, err
	}
	record.Digest = hex.EncodeToString(digest)

	profile, err := b.remote.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token profile: %w", err)
	}
	keyID, certID, err := b.selectCredential(profile)
	if err != nil {
		return nil, err
	}
	record.KeyID, record.CertificateID = keyID, certID
	span.SetAttributes(
		attribute.String("goodkey.key_id", keyID),
		attribute.String("goodkey.certificate_id", certID),
	)

	certDER, err := b.remote.DownloadCertificate(ctx, keyID, certID)
	if err != nil {
		return nil, fmt.Errorf("failed to download certificate: %w", err)
	}
	cert, err := cms.ParseCertificate(certDER)
	if err != nil {
		return nil, err
	}
	record.Serial = cert.SerialNumber.Text(16)

	attrs, err := cms.BuildSignedAttributes(&cms.SignedAttrsConfig{
		Digest:      digest,
		Certificate: cert,
		SigningTime: b.clock(),
	})
	if err != nil {
		return nil, err
	}

	signature, err := b.sign(ctx, keyID, attrs.Digest())
	if err != nil {
		return nil, err
	}

	der, err = cms.Assemble(&cms.AssembleConfig{
		Certificate:      cert,
		SignedAttributes: attrs,
		Signature:        signature,
	})
	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "CMS built with key {KeyId} and certificate {CertificateId} in {Duration}ms",
		keyID, certID, time.Since(start).Milliseconds())
	return der, nil
}

// sign runs the create/finalize exchange for the attribute digest.
func (b *Builder) sign(ctx context.Context, keyID string, attrsDigest []byte) ([]byte, error) {
	requestID := RequestIDFromContext(ctx)

	op, err := b.remote.CreateOperation(ctx, keyID)
	if err != nil {
		err = fmt.Errorf("failed to create operation: %w", err)
		if auditErr := audit.LogOperationCreated(b.actor, keyID, "", requestID, err); auditErr != nil {
			return nil, auditErr
		}
		return nil, err
	}
	if err := audit.LogOperationCreated(b.actor, keyID, op.ID, requestID, nil); err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("goodkey.operation_id", op.ID))

	result, err := b.remote.FinalizeOperation(ctx, keyID, op.ID, attrsDigest)
	var status string
	var signature []byte
	if err == nil {
		status = string(result.Status())
		signature, err = result.Signature()
	} else {
		err = fmt.Errorf("failed to finalize operation: %w", err)
	}

	if auditErr := audit.LogOperationFinalized(b.actor, keyID, op.ID, status, hex.EncodeToString(attrsDigest), requestID, err); auditErr != nil {
		return nil, auditErr
	}
	if err != nil {
		return nil, err
	}

	b.logger.DebugContext(ctx, "Operation {OperationId} signed {Size} bytes", op.ID, len(signature))
	return signature, nil
}

// selectCredential picks the key and certificate to use.
func (b *Builder) selectCredential(profile *goodkey.Profile) (string, string, error) {
	if len(profile.Keys) == 0 || len(profile.Certificates) == 0 {
		return "", "", ErrMissingCredentialMaterial
	}

	key := profile.Keys[0]
	if b.keyID != "" {
		found := false
		for _, k := range profile.Keys {
			if k.ID == b.keyID {
				key, found = k, true
				break
			}
		}
		if !found {
			return "", "", fmt.Errorf("%w: key %q", ErrMissingCredentialMaterial, b.keyID)
		}
	}

	cert := profile.Certificates[0]
	switch {
	case b.certificateID != "":
		found := false
		for _, c := range profile.Certificates {
			if c.ID == b.certificateID {
				cert, found = c, true
				break
			}
		}
		if !found {
			return "", "", fmt.Errorf("%w: certificate %q", ErrMissingCredentialMaterial, b.certificateID)
		}
	case b.keyID != "":
		// Prefer a certificate bound to the configured key.
		for _, c := range profile.Certificates {
			if c.KeyID == key.ID {
				cert = c
				break
			}
		}
	}

	return key.ID, cert.ID, nil
}
