package cms

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// AssembleConfig contains the pieces of a detached SignedData whose
// signature was produced elsewhere.
type AssembleConfig struct {
	Certificate      *Certificate
	SignedAttributes *SignedAttributes
	Signature        []byte
}

// Assemble creates the DER-encoded ContentInfo wrapping a detached
// SignedData with a single signer.
func Assemble(config *AssembleConfig) ([]byte, error) {
	if config == nil || config.Certificate == nil {
		return nil, NewCMSError("assemble", fmt.Errorf("%w: certificate is required", ErrInvalidInput))
	}
	if config.SignedAttributes == nil || len(config.SignedAttributes.DER) == 0 {
		return nil, NewCMSError("assemble", fmt.Errorf("%w: signed attributes are required", ErrInvalidInput))
	}
	if len(config.Signature) == 0 {
		return nil, NewCMSError("assemble", fmt.Errorf("%w: signature is required", ErrInvalidInput))
	}

	signedAttrs, err := config.SignedAttributes.implicit()
	if err != nil {
		return nil, NewCMSError("assemble", err)
	}

	digestAlgID := SHA256.mustIdentifier()

	// Version 1 pairs with the IssuerAndSerialNumber signer identifier.
	signerInfo := SignerInfo{
		Version:            1,
		SID:                config.Certificate.SignerIdentifier(),
		DigestAlgorithm:    digestAlgID,
		SignedAttrs:        signedAttrs,
		SignatureAlgorithm: SHA256WithRSA.mustIdentifier(),
		Signature:          config.Signature,
	}

	signedData := SignedData{
		Version:          1,
		DigestAlgorithms: []pkix.AlgorithmIdentifier{digestAlgID},
		EncapContentInfo: EncapsulatedContentInfo{EContentType: OIDData},
		Certificates: asn1.RawValue{
			Class:      asn1.ClassContextSpecific,
			Tag:        0,
			IsCompound: true,
			Bytes:      config.Certificate.Raw,
		},
		SignerInfos: []SignerInfo{signerInfo},
	}

	signedDataDER, err := asn1.Marshal(signedData)
	if err != nil {
		return nil, NewCMSError("assemble", fmt.Errorf("failed to marshal SignedData: %w", err))
	}

	contentInfo := ContentInfo{
		ContentType: OIDSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: signedDataDER},
	}

	der, err := asn1.Marshal(contentInfo)
	if err != nil {
		return nil, NewCMSError("assemble", fmt.Errorf("failed to marshal ContentInfo: %w", err))
	}
	return der, nil
}
