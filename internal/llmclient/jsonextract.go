package llmclient

import (
	"encoding/json"
	"errors"
	"strings"
)

// ExtractJSONObject pulls a JSON object out of loosely-formatted model
// output. It tries, in order: a direct parse, stripping markdown code
// fences, and finally the first '{' through the last '}' of the text.
// A parse failure here means the model output is unusable; callers treat
// it as "produced nothing", distinct from provider/transport errors.
func ExtractJSONObject(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, errors.New("empty model output")
	}

	if obj, ok := tryParseObject(text); ok {
		return obj, nil
	}

	// Strip markdown code fences if present.
	stripped := text
	stripped = strings.TrimPrefix(stripped, "```json")
	stripped = strings.TrimPrefix(stripped, "```")
	stripped = strings.TrimSuffix(stripped, "```")
	stripped = strings.TrimSpace(stripped)
	if obj, ok := tryParseObject(stripped); ok {
		return obj, nil
	}

	// Last resort: first '{' through last '}'.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := tryParseObject(text[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, errors.New("no parsable JSON object in model output")
}

func tryParseObject(s string) ([]byte, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return []byte(s), true
}
