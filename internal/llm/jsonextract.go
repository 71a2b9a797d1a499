package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a response holds no well-formed JSON value
// of the requested kind.
var ErrNoJSON = errors.New("no JSON value found in response")

// ExtractJSONArray returns the first well-formed JSON array in text.
func ExtractJSONArray(text string) (json.RawMessage, error) {
	return extractJSON(text, '[')
}

// ExtractJSONObject returns the first well-formed JSON object in text.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	return extractJSON(text, '{')
}

func extractJSON(text string, open byte) (json.RawMessage, error) {
	for i := 0; i < len(text); i++ {
		j := strings.IndexByte(text[i:], open)
		if j < 0 {
			break
		}
		i += j

		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&raw); err == nil {
			return raw, nil
		}
	}
	return nil, ErrNoJSON
}
