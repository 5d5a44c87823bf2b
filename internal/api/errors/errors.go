// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"net/http"

	"github.com/remiblancher/goodkey-cms/internal/api/dto"
	"github.com/remiblancher/goodkey-cms/internal/builder"
)

// Error codes for API responses.
const (
	CodeInvalidRequest            = "INVALID_REQUEST"
	CodeMissingCredentialMaterial = "MISSING_CREDENTIAL_MATERIAL"
	CodeMalformedCertificate      = "MALFORMED_CERTIFICATE"
	CodeRemoteService             = "REMOTE_SERVICE_ERROR"
	CodeSigningFailed             = "SIGNING_FAILED"
	CodeNotFound                  = "NOT_FOUND"
	CodeInternal                  = "INTERNAL_ERROR"
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch builder.KindOf(err) {
	case builder.KindInvalidInput:
		return http.StatusBadRequest, &dto.APIError{
			Code:  CodeInvalidRequest,
			Error: err.Error(),
		}
	case builder.KindMissingCredentialMaterial:
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:  CodeMissingCredentialMaterial,
			Error: err.Error(),
		}
	case builder.KindMalformedCertificate:
		return http.StatusBadGateway, &dto.APIError{
			Code:  CodeMalformedCertificate,
			Error: err.Error(),
		}
	case builder.KindRemoteServiceError:
		return http.StatusBadGateway, &dto.APIError{
			Code:  CodeRemoteService,
			Error: err.Error(),
		}
	case builder.KindSigningFailed:
		return http.StatusBadGateway, &dto.APIError{
			Code:  CodeSigningFailed,
			Error: err.Error(),
		}
	}

	// Default internal error
	return http.StatusInternalServerError, &dto.APIError{
		Code:  CodeInternal,
		Error: "An internal error occurred",
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:  CodeInvalidRequest,
		Error: message,
	}
}

// NewNotFound creates a not found error.
func NewNotFound(message string) *dto.APIError {
	return &dto.APIError{
		Code:  CodeNotFound,
		Error: message,
	}
}
