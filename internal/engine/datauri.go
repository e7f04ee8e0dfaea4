package engine

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/zazu-22/bandassist/internal/shared"
)

const base64Marker = "base64,"

// DecodeDataURI converts a Base64 data URI (as produced by a browser
// FileReader) back into raw score bytes.
//
// Malformed input is terminal, never retried: the error wraps
// [shared.ErrDataFormat] and carries the user-facing message.
func DecodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, base64Marker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: Could not convert Base64 to binary: no base64 marker in data URI", shared.ErrDataFormat)
	}

	payload := uri[idx+len(base64Marker):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: Could not convert Base64 to binary: %v", shared.ErrDataFormat, err)
	}

	return data, nil
}

// EncodeDataURI wraps raw score bytes in a Base64 data URI with the given
// MIME type. Used by tests and by callers that read score files from disk.
func EncodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
