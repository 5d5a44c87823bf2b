package cms

import (
	"errors"
	"fmt"
)

// CMSError represents a CMS operation error with structured context.
// It supports errors.Is() and errors.As().
type CMSError struct {
	Op  string // Operation: "digest", "parse", "attributes", "assemble", "verify"
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *CMSError) Error() string {
	return fmt.Sprintf("cms %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CMSError) Unwrap() error { return e.Err }

// NewCMSError creates a new CMSError with the given operation and error.
func NewCMSError(op string, err error) *CMSError {
	return &CMSError{Op: op, Err: err}
}

// Sentinel errors for CMS operations.
var (
	// ErrInvalidInput indicates an empty or non-hexadecimal digest, or a
	// missing assembler input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedCertificate indicates the signer certificate is not valid DER.
	ErrMalformedCertificate = errors.New("malformed certificate")

	// ErrUnsupportedAlgorithm indicates an algorithm outside the supported set.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidContent indicates the CMS content is malformed.
	ErrInvalidContent = errors.New("invalid CMS content")

	// ErrInvalidSignature indicates signature verification failed.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMissingAttribute indicates a required signed attribute is missing.
	ErrMissingAttribute = errors.New("missing signed attribute")
)
