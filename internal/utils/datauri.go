package utils

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURI wraps raw bytes in a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI splits a "data:<mime>;base64,<payload>" string into its MIME
// type and decoded bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: no comma separator")
	}
	if !strings.HasPrefix(header, "data:") {
		return "", nil, fmt.Errorf("malformed data URI: missing data: prefix")
	}
	mimeType, ok := strings.CutSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: missing ;base64 marker")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URI payload: %w", err)
	}
	return mimeType, data, nil
}
