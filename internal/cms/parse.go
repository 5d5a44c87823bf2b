package cms

import (
	"encoding/asn1"
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ParseContentInfo parses a CMS ContentInfo structure.
func ParseContentInfo(data []byte) (*ContentInfo, error) {
	var ci ContentInfo
	rest, err := asn1.Unmarshal(data, &ci)
	if err != nil {
		return nil, NewCMSError("parse", fmt.Errorf("%w: failed to parse ContentInfo: %v", ErrInvalidContent, err))
	}
	if len(rest) > 0 {
		return nil, NewCMSError("parse", fmt.Errorf("%w: trailing data after ContentInfo", ErrInvalidContent))
	}
	return &ci, nil
}

// ParseSignedData parses a CMS SignedData structure from a complete
// ContentInfo.
func ParseSignedData(data []byte) (*SignedData, error) {
	ci, err := ParseContentInfo(data)
	if err != nil {
		return nil, err
	}

	if !ci.ContentType.Equal(OIDSignedData) {
		return nil, NewCMSError("parse", fmt.Errorf("%w: not a SignedData structure, got OID %v", ErrInvalidContent, ci.ContentType))
	}

	var sd SignedData
	if _, err := asn1.Unmarshal(ci.Content.Bytes, &sd); err != nil {
		return nil, NewCMSError("parse", fmt.Errorf("%w: failed to parse SignedData: %v", ErrInvalidContent, err))
	}

	return &sd, nil
}

// RawCertificates returns the DER of each embedded certificate, in order.
func (sd *SignedData) RawCertificates() ([][]byte, error) {
	var certs [][]byte
	input := cryptobyte.String(sd.Certificates.Bytes)
	for !input.Empty() {
		var cert cryptobyte.String
		if !input.ReadASN1Element(&cert, cryptobyte_asn1.SEQUENCE) {
			return nil, fmt.Errorf("%w: invalid certificate in SignedData", ErrInvalidContent)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// Attributes decodes the signed attributes.
func (si *SignerInfo) Attributes() ([]Attribute, error) {
	var attrs []Attribute
	rest := si.SignedAttrs.Bytes
	for len(rest) > 0 {
		var attr Attribute
		var err error
		rest, err = asn1.Unmarshal(rest, &attr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse signed attribute: %v", ErrInvalidContent, err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// SignedAttrsDER returns the signed attributes with the SET tag restored,
// which is the form the signature covers (RFC 5652 Section 5.4).
func (si *SignerInfo) SignedAttrsDER() ([]byte, error) {
	if len(si.SignedAttrs.FullBytes) == 0 {
		return nil, ErrMissingAttribute
	}
	der := append([]byte(nil), si.SignedAttrs.FullBytes...)
	der[0] = 0x31
	return der, nil
}

// MessageDigest returns the value of the message-digest attribute.
func (si *SignerInfo) MessageDigest() ([]byte, error) {
	attrs, err := si.Attributes()
	if err != nil {
		return nil, err
	}
	value, ok := FindAttribute(attrs, OIDMessageDigest)
	if !ok {
		return nil, fmt.Errorf("%w: message-digest", ErrMissingAttribute)
	}
	var digest []byte
	if _, err := asn1.Unmarshal(value.FullBytes, &digest); err != nil {
		return nil, fmt.Errorf("%w: invalid message-digest: %v", ErrInvalidContent, err)
	}
	return digest, nil
}

// SigningTime returns the value of the signing-time attribute, accepting
// both UTCTime and GeneralizedTime.
func (si *SignerInfo) SigningTime() (time.Time, error) {
	attrs, err := si.Attributes()
	if err != nil {
		return time.Time{}, err
	}
	value, ok := FindAttribute(attrs, OIDSigningTime)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: signing-time", ErrMissingAttribute)
	}
	var t time.Time
	if _, err := asn1.Unmarshal(value.FullBytes, &t); err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid signing-time: %v", ErrInvalidContent, err)
	}
	return t, nil
}
