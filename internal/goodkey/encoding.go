package goodkey

import (
	"encoding/base64"
	"strings"
)

// encodeBase64URL encodes data as unpadded URL-safe base64.
func encodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeBase64URL decodes URL-safe base64, with or without padding.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
