package cms

import (
	"bytes"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// NewAttribute creates a new attribute with a single value.
func NewAttribute(oid asn1.ObjectIdentifier, value interface{}) (Attribute, error) {
	encoded, err := asn1.Marshal(value)
	if err != nil {
		return Attribute{}, err
	}
	return newRawAttribute(oid, encoded), nil
}

func newRawAttribute(oid asn1.ObjectIdentifier, encoded []byte) Attribute {
	return Attribute{
		Type:   oid,
		Values: []asn1.RawValue{{FullBytes: encoded}},
	}
}

// NewContentTypeAttr creates a content-type attribute.
func NewContentTypeAttr(contentType asn1.ObjectIdentifier) (Attribute, error) {
	return NewAttribute(OIDContentType, contentType)
}

// NewMessageDigestAttr creates a message-digest attribute.
func NewMessageDigestAttr(digest []byte) (Attribute, error) {
	return NewAttribute(OIDMessageDigest, digest)
}

// NewSigningTimeAttr creates a signing-time attribute.
func NewSigningTimeAttr(t time.Time) (Attribute, error) {
	encoded, err := marshalSigningTime(t)
	if err != nil {
		return Attribute{}, err
	}
	return newRawAttribute(OIDSigningTime, encoded), nil
}

// marshalSigningTime encodes t at second precision. RFC 5652 Section 11.3
// requires UTCTime for 1950 through 2049 and GeneralizedTime otherwise.
func marshalSigningTime(t time.Time) ([]byte, error) {
	t = t.UTC().Truncate(time.Second)
	if year := t.Year(); year >= 1950 && year < 2050 {
		return asn1.MarshalWithParams(t, "utc")
	}
	return asn1.MarshalWithParams(t, "generalized")
}

// NewSigningCertificateV2Attr creates a signing-certificate-v2 attribute
// (RFC 5035) binding the SHA-256 hash of certDER.
func NewSigningCertificateV2Attr(certDER []byte) (Attribute, error) {
	h := sha256.Sum256(certDER)
	signingCert := SigningCertificateV2{
		Certs: []ESSCertIDv2{{
			HashAlgorithm: SHA256.mustIdentifier(),
			CertHash:      h[:],
		}},
	}
	return NewAttribute(OIDSigningCertificateV2, signingCert)
}

// MarshalSignedAttrs marshals signed attributes for signing.
// DER requires SET OF elements to be sorted by their encoding, so the
// result does not depend on the order of attrs.
func MarshalSignedAttrs(attrs []Attribute) ([]byte, error) {
	if len(attrs) == 0 {
		return nil, ErrMissingAttribute
	}

	encodedAttrs := make([][]byte, len(attrs))
	for i, attr := range attrs {
		encoded, err := asn1.Marshal(attr)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal attribute %v: %w", attr.Type, err)
		}
		encodedAttrs[i] = encoded
	}
	slices.SortFunc(encodedAttrs, bytes.Compare)

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
		for _, enc := range encodedAttrs {
			b.AddBytes(enc)
		}
	})
	return b.Bytes()
}

// SignedAttrsConfig contains the inputs of BuildSignedAttributes.
type SignedAttrsConfig struct {
	Digest      []byte
	Certificate *Certificate
	SigningTime time.Time
}

// SignedAttributes is the authenticated attribute set of a SignerInfo.
type SignedAttributes struct {
	Attributes []Attribute
	// DER is the canonical SET encoding. Its hash is what gets signed.
	DER []byte
}

// BuildSignedAttributes builds the content-type, signing-time,
// message-digest and signing-certificate-v2 attributes.
func BuildSignedAttributes(config *SignedAttrsConfig) (*SignedAttributes, error) {
	if config == nil || len(config.Digest) == 0 {
		return nil, NewCMSError("attributes", fmt.Errorf("%w: digest is required", ErrInvalidInput))
	}
	if config.Certificate == nil || len(config.Certificate.Raw) == 0 {
		return nil, NewCMSError("attributes", fmt.Errorf("%w: certificate is required", ErrInvalidInput))
	}
	signingTime := config.SigningTime
	if signingTime.IsZero() {
		signingTime = time.Now()
	}

	ctAttr, err := NewContentTypeAttr(OIDData)
	if err != nil {
		return nil, NewCMSError("attributes", err)
	}
	stAttr, err := NewSigningTimeAttr(signingTime)
	if err != nil {
		return nil, NewCMSError("attributes", err)
	}
	mdAttr, err := NewMessageDigestAttr(config.Digest)
	if err != nil {
		return nil, NewCMSError("attributes", err)
	}
	scAttr, err := NewSigningCertificateV2Attr(config.Certificate.Raw)
	if err != nil {
		return nil, NewCMSError("attributes", err)
	}

	attrs := []Attribute{ctAttr, stAttr, mdAttr, scAttr}
	der, err := MarshalSignedAttrs(attrs)
	if err != nil {
		return nil, NewCMSError("attributes", err)
	}

	return &SignedAttributes{Attributes: attrs, DER: der}, nil
}

// Digest returns the SHA-256 hash of the DER-encoded attribute SET.
func (s *SignedAttributes) Digest() []byte {
	h := sha256.Sum256(s.DER)
	return h[:]
}

// implicit returns the attribute SET re-tagged as IMPLICIT [0], reusing the
// content octets of DER unchanged.
func (s *SignedAttributes) implicit() (asn1.RawValue, error) {
	input := cryptobyte.String(s.DER)
	var contents cryptobyte.String
	if !input.ReadASN1(&contents, cryptobyte_asn1.SET) || !input.Empty() {
		return asn1.RawValue{}, fmt.Errorf("%w: signed attributes are not a SET", ErrInvalidContent)
	}
	return asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        0,
		IsCompound: true,
		Bytes:      contents,
	}, nil
}

// FindAttribute returns the first value of the attribute with the given type.
func FindAttribute(attrs []Attribute, oid asn1.ObjectIdentifier) (asn1.RawValue, bool) {
	for _, attr := range attrs {
		if attr.Type.Equal(oid) && len(attr.Values) > 0 {
			return attr.Values[0], true
		}
	}
	return asn1.RawValue{}, false
}
