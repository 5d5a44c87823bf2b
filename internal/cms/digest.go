package cms

import (
	"encoding/hex"
	"fmt"
)

// DecodeDigest converts the caller's hex-encoded content digest to bytes.
// Both letter cases are accepted; the length must be even.
func DecodeDigest(s string) ([]byte, error) {
	if s == "" {
		return nil, NewCMSError("digest", fmt.Errorf("%w: hash cannot be empty", ErrInvalidInput))
	}
	digest, err := hex.DecodeString(s)
	if err != nil {
		return nil, NewCMSError("digest", fmt.Errorf("%w: hash must be a hexadecimal string", ErrInvalidInput))
	}
	return digest, nil
}
