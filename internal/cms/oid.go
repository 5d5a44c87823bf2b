// Package cms assembles detached CMS SignedData (RFC 5652) around a
// signature produced by a remote signing service.
package cms

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// CMS/PKCS#7 OIDs
var (
	// Content types
	OIDData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	OIDSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}

	// Signed attributes
	OIDContentType   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 3}
	OIDMessageDigest = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}
	OIDSigningTime   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 5}

	// Signing certificate attribute (RFC 5035)
	OIDSigningCertificateV2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 47}
)

// Algorithm OIDs
var (
	OIDSHA256        = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDSHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
)

// Algorithm is the closed set of algorithms that appear in the SignedData.
type Algorithm int

const (
	// SHA256 is the digest algorithm.
	SHA256 Algorithm = iota + 1
	// SHA256WithRSA is the RSASSA-PKCS1-v1_5 signature algorithm.
	SHA256WithRSA
)

// algorithmTable is built once and never mutated. Both RSA-family
// identifiers carry an explicit NULL parameter (RFC 4055 Section 2.1).
var algorithmTable = map[Algorithm]pkix.AlgorithmIdentifier{
	SHA256:        {Algorithm: OIDSHA256, Parameters: asn1.NullRawValue},
	SHA256WithRSA: {Algorithm: OIDSHA256WithRSA, Parameters: asn1.NullRawValue},
}

// Identifier returns the AlgorithmIdentifier encoding of a.
func (a Algorithm) Identifier() (pkix.AlgorithmIdentifier, error) {
	id, ok := algorithmTable[a]
	if !ok {
		return pkix.AlgorithmIdentifier{}, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, int(a))
	}
	oid := make(asn1.ObjectIdentifier, len(id.Algorithm))
	copy(oid, id.Algorithm)
	return pkix.AlgorithmIdentifier{Algorithm: oid, Parameters: id.Parameters}, nil
}

// mustIdentifier is for the fixed algorithms used by the assembler.
func (a Algorithm) mustIdentifier() pkix.AlgorithmIdentifier {
	id, err := a.Identifier()
	if err != nil {
		panic(err)
	}
	return id
}

func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "SHA-256"
	case SHA256WithRSA:
		return "RSASSA-PKCS1-v1_5 with SHA-256"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}
