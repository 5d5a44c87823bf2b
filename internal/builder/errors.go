package builder

import (
	"errors"

	"github.com/remiblancher/goodkey-cms/internal/cms"
	"github.com/remiblancher/goodkey-cms/internal/goodkey"
)

// ErrMissingCredentialMaterial is returned when the token profile has no
// usable key or certificate.
var ErrMissingCredentialMaterial = errors.New("no keys or certificates found in token")

// Kind classifies a build failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindMissingCredentialMaterial
	KindMalformedCertificate
	KindRemoteServiceError
	KindSigningFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindMissingCredentialMaterial:
		return "missing_credential_material"
	case KindMalformedCertificate:
		return "malformed_certificate"
	case KindRemoteServiceError:
		return "remote_service_error"
	case KindSigningFailed:
		return "signing_failed"
	default:
		return "internal"
	}
}

// KindOf returns the Kind of an error returned by Build.
// SigningFailed is checked before RemoteServiceError since a failed
// operation is reported by a successful API response.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, cms.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrMissingCredentialMaterial):
		return KindMissingCredentialMaterial
	case errors.Is(err, cms.ErrMalformedCertificate):
		return KindMalformedCertificate
	case errors.Is(err, goodkey.ErrSigningFailed), errors.Is(err, goodkey.ErrOperationPending):
		return KindSigningFailed
	case errors.Is(err, goodkey.ErrRemoteService):
		return KindRemoteServiceError
	default:
		return KindInternal
	}
}
