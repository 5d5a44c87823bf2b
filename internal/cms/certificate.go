package cms

import (
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Certificate holds the fields of a signer certificate that the SignedData
// needs. The certificate is never re-encoded: Raw is embedded and hashed
// exactly as received.
type Certificate struct {
	Raw          []byte
	RawIssuer    []byte
	SerialNumber *big.Int
}

var versionTag = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()

// ParseCertificate extracts the issuer and serial number from a DER
// certificate.
//
//	Certificate  ::= SEQUENCE { tbsCertificate, signatureAlgorithm, signatureValue }
//	TBSCertificate ::= SEQUENCE {
//	    version         [0] EXPLICIT Version DEFAULT v1,
//	    serialNumber    CertificateSerialNumber,
//	    signature       AlgorithmIdentifier,
//	    issuer          Name,
//	    ... }
//
// The version is detected by its tag, so v1 certificates that omit it are
// read correctly.
func ParseCertificate(der []byte) (*Certificate, error) {
	if len(der) == 0 {
		return nil, malformed("empty certificate")
	}

	input := cryptobyte.String(der)
	var cert, tbs cryptobyte.String
	if !input.ReadASN1(&cert, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("certificate is not a valid SEQUENCE")
	}
	if !input.Empty() {
		return nil, malformed("trailing data after certificate")
	}
	if !cert.ReadASN1(&tbs, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("tbsCertificate is not a valid SEQUENCE")
	}
	if !cert.SkipASN1(cryptobyte_asn1.SEQUENCE) || !cert.SkipASN1(cryptobyte_asn1.BIT_STRING) || !cert.Empty() {
		return nil, malformed("invalid certificate signature fields")
	}

	if !tbs.SkipOptionalASN1(versionTag) {
		return nil, malformed("invalid version")
	}
	serial := new(big.Int)
	if !tbs.ReadASN1Integer(serial) {
		return nil, malformed("invalid serial number")
	}
	if !tbs.SkipASN1(cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("invalid signature algorithm")
	}
	var issuer cryptobyte.String
	if !tbs.ReadASN1Element(&issuer, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("invalid issuer")
	}

	return &Certificate{
		Raw:          der,
		RawIssuer:    append([]byte(nil), issuer...),
		SerialNumber: serial,
	}, nil
}

// SignerIdentifier returns the IssuerAndSerialNumber naming this certificate.
func (c *Certificate) SignerIdentifier() IssuerAndSerialNumber {
	return IssuerAndSerialNumber{
		Issuer:       asn1.RawValue{FullBytes: c.RawIssuer},
		SerialNumber: c.SerialNumber,
	}
}

// Fingerprint returns the SHA-256 hash of the raw certificate.
func (c *Certificate) Fingerprint() []byte {
	h := sha256.Sum256(c.Raw)
	return h[:]
}

func malformed(msg string) error {
	return NewCMSError("parse", fmt.Errorf("%w: %s", ErrMalformedCertificate, msg))
}
