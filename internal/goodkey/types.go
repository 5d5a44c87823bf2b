package goodkey

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile lists the keys and certificates an API token can use.
type Profile struct {
	Keys         []Key             `json:"keys"`
	Certificates []CertificateInfo `json:"certificates"`
}

// Key describes a remote key.
type Key struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	Status    string `json:"status,omitempty"`
}

// CertificateInfo describes a certificate attached to a remote key.
type CertificateInfo struct {
	ID     string `json:"id"`
	KeyID  string `json:"keyId,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

// OperationStatus is the lifecycle state of a remote signing operation.
type OperationStatus string

const (
	StatusPending OperationStatus = "pending"
	StatusSuccess OperationStatus = "success"
	StatusError   OperationStatus = "error"
)

// Operation is a remote signing job.
type Operation struct {
	ID             string          `json:"id"`
	Status         OperationStatus `json:"status"`
	ExpirationDate string          `json:"expirationDate,omitempty"`
}

// Algorithm identifies the signature scheme requested from the service.
type Algorithm struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// RSASHA256 is RSASSA-PKCS1-v1_5 with SHA-256.
var RSASHA256 = Algorithm{Name: "RSASSA-PKCS1-v1_5", Hash: "SHA-256"}

type createOperationRequest struct {
	Type           string    `json:"type"`
	Algorithm      Algorithm `json:"algorithm"`
	ExpirationDate string    `json:"expirationDate"`
}

type finalizeRequest struct {
	Data string `json:"data"`
}

type finalizeResponse struct {
	Operation Operation       `json:"operation"`
	Data      *string         `json:"data"`
	Error     json.RawMessage `json:"error,omitempty"`
}

type downloadResponse struct {
	Data string `json:"data"`
}

// FinalizeResult is the outcome of finalizing an operation. The signature
// is only reachable through Signature, which checks the status first.
type FinalizeResult struct {
	operation Operation
	data      *string
	errText   string
}

func newFinalizeResult(resp *finalizeResponse) *FinalizeResult {
	return &FinalizeResult{
		operation: resp.Operation,
		data:      resp.Data,
		errText:   errorText(resp.Error),
	}
}

// Operation returns the operation as reported by the service.
func (r *FinalizeResult) Operation() Operation {
	return r.operation
}

// Status returns the operation status.
func (r *FinalizeResult) Status() OperationStatus {
	return r.operation.Status
}

// Signature returns the decoded signature of a successful operation.
func (r *FinalizeResult) Signature() ([]byte, error) {
	switch r.operation.Status {
	case StatusSuccess:
		if r.data == nil || *r.data == "" {
			return nil, fmt.Errorf("%w: operation %s returned no signature", ErrSigningFailed, r.operation.ID)
		}
		sig, err := decodeBase64URL(*r.data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid signature encoding: %v", ErrSigningFailed, err)
		}
		return sig, nil
	case StatusPending:
		return nil, fmt.Errorf("%w: %s", ErrOperationPending, r.operation.ID)
	case StatusError:
		return nil, fmt.Errorf("%w: failed to finalize operation: %s", ErrSigningFailed, r.errText)
	default:
		return nil, fmt.Errorf("%w: unknown operation status %q", ErrSigningFailed, r.operation.Status)
	}
}

// errorText renders the service's error field, which may be a string or
// an object.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(raw))
}
