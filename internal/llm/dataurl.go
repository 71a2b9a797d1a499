package llm

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURL splits a base64 data URL into its image format ("png",
// "jpeg", ...) and raw bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	format, ok := strings.CutPrefix(mime, "image/")
	if !ok || format == "" {
		return "", nil, fmt.Errorf("unsupported media type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return format, data, nil
}
