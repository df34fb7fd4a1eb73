package credentials

import "strings"

const visibleSuffix = 4

// Redact returns the display-safe view of credential data.
// Strings keep at most their last four characters; nested maps are redacted recursively.
// Only a backend holding the live data should call it.
func Redact(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return mask(val)
	case map[string]any:
		return Redact(val)
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, s := range val {
			out[k] = mask(s)
		}
		return out
	case nil:
		return nil
	default:
		return "****"
	}
}

func mask(s string) string {
	if len(s) <= visibleSuffix*2 {
		return strings.Repeat("*", len(s))
	}
	return "****" + s[len(s)-visibleSuffix:]
}
