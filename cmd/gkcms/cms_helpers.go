package main

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"os"
)

const pemTypeCMS = "CMS"

// readCMSFile reads a DER or PEM encoded CMS blob.
func readCMSFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		block, _ := pem.Decode(bytes.TrimSpace(data))
		if block == nil {
			return nil, fmt.Errorf("invalid PEM in %s", path)
		}
		switch block.Type {
		case pemTypeCMS, "PKCS7":
		default:
			return nil, fmt.Errorf("unexpected PEM type %q in %s", block.Type, path)
		}
		return block.Bytes, nil
	}
	return data, nil
}

// formatName renders a DER-encoded Name.
func formatName(der []byte) string {
	var rdn pkix.RDNSequence
	if _, err := asn1.Unmarshal(der, &rdn); err != nil {
		return fmt.Sprintf("<invalid name: %v>", err)
	}
	var name pkix.Name
	name.FillFromRDNSequence(&rdn)
	return name.String()
}

// subjectOf returns the subject of a DER certificate, or "" if the
// standard parser rejects it.
func subjectOf(der []byte) string {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return ""
	}
	return cert.Subject.String()
}
