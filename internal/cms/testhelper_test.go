package cms

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"
)

// testDigestHex is a 32-byte digest used across tests.
const testDigestHex = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

// generateRSAKey generates an RSA key for testing.
func generateRSAKey(t *testing.T, bits int) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	return priv
}

// generateTestCertificate creates a self-signed v3 certificate with the
// given common name and serial number.
func generateTestCertificate(t *testing.T, key *rsa.PrivateKey, cn string, serial int64) *x509.Certificate {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject: pkix.Name{
			CommonName: cn,
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return cert
}

// v1Certificate mirrors a version 1 certificate, which has no [0] version
// field in its tbsCertificate.
type v1Certificate struct {
	TBS struct {
		SerialNumber *big.Int
		Signature    pkix.AlgorithmIdentifier
		Issuer       asn1.RawValue
		Validity     struct {
			NotBefore, NotAfter time.Time
		}
		Subject   asn1.RawValue
		PublicKey asn1.RawValue
	}
	SignatureAlgorithm pkix.AlgorithmIdentifier
	SignatureValue     asn1.BitString
}

// buildV1Certificate reuses the fields of a v3 certificate to encode a v1
// certificate. The signature is not valid, which the extractor does not check.
func buildV1Certificate(t *testing.T, from *x509.Certificate) []byte {
	t.Helper()

	var c v1Certificate
	c.TBS.SerialNumber = from.SerialNumber
	c.TBS.Signature = pkix.AlgorithmIdentifier{Algorithm: OIDSHA256WithRSA, Parameters: asn1.NullRawValue}
	c.TBS.Issuer = asn1.RawValue{FullBytes: from.RawIssuer}
	c.TBS.Validity.NotBefore = from.NotBefore.UTC().Truncate(time.Second)
	c.TBS.Validity.NotAfter = from.NotAfter.UTC().Truncate(time.Second)
	c.TBS.Subject = asn1.RawValue{FullBytes: from.RawSubject}
	c.TBS.PublicKey = asn1.RawValue{FullBytes: from.RawSubjectPublicKeyInfo}
	c.SignatureAlgorithm = c.TBS.Signature
	c.SignatureValue = asn1.BitString{Bytes: []byte{0x00}, BitLength: 8}

	der, err := asn1.Marshal(c)
	if err != nil {
		t.Fatalf("Failed to marshal v1 certificate: %v", err)
	}
	return der
}

// mustParseCertificate wraps ParseCertificate for fixtures.
func mustParseCertificate(t *testing.T, der []byte) *Certificate {
	t.Helper()
	cert, err := ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate failed: %v", err)
	}
	return cert
}

// mustDecodeDigest wraps DecodeDigest for fixtures.
func mustDecodeDigest(t *testing.T, s string) []byte {
	t.Helper()
	digest, err := DecodeDigest(s)
	if err != nil {
		t.Fatalf("DecodeDigest failed: %v", err)
	}
	return digest
}

// remoteSign stands in for the remote service: it signs the pre-computed
// attribute digest with RSASSA-PKCS1-v1_5.
func remoteSign(t *testing.T, key *rsa.PrivateKey, digest []byte) []byte {
	t.Helper()
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest)
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	return sig
}

// assembleTestSignature builds a complete detached SignedData for digestHex.
func assembleTestSignature(t *testing.T, key *rsa.PrivateKey, cert *x509.Certificate, digestHex string) []byte {
	t.Helper()

	c := mustParseCertificate(t, cert.Raw)
	attrs, err := BuildSignedAttributes(&SignedAttrsConfig{
		Digest:      mustDecodeDigest(t, digestHex),
		Certificate: c,
		SigningTime: time.Now(),
	})
	if err != nil {
		t.Fatalf("BuildSignedAttributes failed: %v", err)
	}

	der, err := Assemble(&AssembleConfig{
		Certificate:      c,
		SignedAttributes: attrs,
		Signature:        remoteSign(t, key, attrs.Digest()),
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return der
}
