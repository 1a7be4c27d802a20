package util

import "strings"

// SanitizePostgresText drops invalid UTF-8 and NUL bytes, which Postgres
// rejects in TEXT and JSONB values.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// SanitizePostgresValue applies SanitizePostgresText to every string nested
// in v, including map keys. Other values are returned unchanged.
func SanitizePostgresValue(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizePostgresText(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[SanitizePostgresText(k)] = SanitizePostgresValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = SanitizePostgresValue(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, val := range t {
			out[i] = SanitizePostgresText(val)
		}
		return out
	default:
		return v
	}
}
