package cms

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"
	"time"
)

// VerifyResult contains the result of signature verification.
type VerifyResult struct {
	// SignerCert is the embedded certificate that signed the attributes.
	SignerCert *x509.Certificate
	// SerialNumber and RawIssuer come from the SignerInfo.
	SerialNumber *big.Int
	RawIssuer    []byte
	// SigningTime is the signing time from signed attributes.
	SigningTime time.Time
}

// VerifyDetached checks a detached SignedData produced by Assemble against
// the content digest it claims to cover. The certificate chain is not
// validated.
func VerifyDetached(signedDataDER []byte, digest []byte) (*VerifyResult, error) {
	sd, err := ParseSignedData(signedDataDER)
	if err != nil {
		return nil, err
	}
	if len(sd.SignerInfos) != 1 {
		return nil, NewCMSError("verify", fmt.Errorf("%w: expected one SignerInfo, got %d", ErrInvalidContent, len(sd.SignerInfos)))
	}
	signerInfo := sd.SignerInfos[0]

	signerCert, err := findSignerCert(sd, &signerInfo)
	if err != nil {
		return nil, NewCMSError("verify", err)
	}

	md, err := signerInfo.MessageDigest()
	if err != nil {
		return nil, NewCMSError("verify", err)
	}
	if !bytes.Equal(md, digest) {
		return nil, NewCMSError("verify", fmt.Errorf("%w: message digest mismatch", ErrInvalidSignature))
	}

	if !signerInfo.SignatureAlgorithm.Algorithm.Equal(OIDSHA256WithRSA) {
		return nil, NewCMSError("verify", fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, signerInfo.SignatureAlgorithm.Algorithm))
	}
	pub, ok := signerCert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, NewCMSError("verify", fmt.Errorf("%w: signer key is %T, not RSA", ErrUnsupportedAlgorithm, signerCert.PublicKey))
	}

	signedAttrsDER, err := signerInfo.SignedAttrsDER()
	if err != nil {
		return nil, NewCMSError("verify", err)
	}
	h := sha256.Sum256(signedAttrsDER)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], signerInfo.Signature); err != nil {
		return nil, NewCMSError("verify", fmt.Errorf("%w: %v", ErrInvalidSignature, err))
	}

	result := &VerifyResult{
		SignerCert:   signerCert,
		SerialNumber: signerInfo.SID.SerialNumber,
		RawIssuer:    signerInfo.SID.Issuer.FullBytes,
	}
	if t, err := signerInfo.SigningTime(); err == nil {
		result.SigningTime = t
	}
	return result, nil
}

// findSignerCert returns the embedded certificate matching the SignerInfo's
// issuer and serial number.
func findSignerCert(sd *SignedData, si *SignerInfo) (*x509.Certificate, error) {
	rawCerts, err := sd.RawCertificates()
	if err != nil {
		return nil, err
	}
	for _, raw := range rawCerts {
		cert, err := ParseCertificate(raw)
		if err != nil {
			return nil, err
		}
		if cert.SerialNumber.Cmp(si.SID.SerialNumber) != 0 || !bytes.Equal(cert.RawIssuer, si.SID.Issuer.FullBytes) {
			continue
		}
		return x509.ParseCertificate(raw)
	}
	return nil, fmt.Errorf("%w: signer certificate not found", ErrInvalidContent)
}
