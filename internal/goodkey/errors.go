package goodkey

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrRemoteService is matched by every failure reported by the GoodKey API.
	ErrRemoteService = errors.New("remote service error")

	// ErrSigningFailed is returned when a finalized operation ends in error.
	ErrSigningFailed = errors.New("signing failed")

	// ErrOperationPending is returned when a signature is read from an
	// operation that has not completed.
	ErrOperationPending = errors.New("operation is still pending")
)

// APIError is a non-2xx response from the GoodKey API.
type APIError struct {
	Message    string
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Error: %s, Code: %s, Status Code: %d", e.Message, e.Code, e.StatusCode)
}

// Is reports whether target is ErrRemoteService.
func (e *APIError) Is(target error) bool {
	return target == ErrRemoteService
}

// newAPIError builds an APIError from an error response, falling back to the
// HTTP status when the body omits message, code or statusCode.
func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{
		Message:    "Failed to make request",
		Code:       strconv.Itoa(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	fields := resp.Fields()
	if msg, ok := fields["message"].(string); ok && msg != "" {
		apiErr.Message = msg
	}
	switch code := fields["code"].(type) {
	case string:
		apiErr.Code = code
	case float64:
		apiErr.Code = strconv.FormatFloat(code, 'f', -1, 64)
	}
	if sc, ok := fields["statusCode"].(float64); ok {
		apiErr.StatusCode = int(sc)
	}
	return apiErr
}
