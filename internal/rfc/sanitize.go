package rfc

import (
	"fmt"
	"unicode/utf8"
)

// Log-only shortening of call parameters and replies. ABAP source and error
// tables can be large; logs carry a truncated copy while the values actually
// sent and returned are never touched.
const (
	maxParamLogChars = 100
	maxReplyLogChars = 200
	maxTableLogRows  = 10
)

func sanitizeParams(params map[string]any) map[string]any {
	sanitized := make(map[string]any, len(params))
	for key, value := range params {
		if s, ok := value.(string); ok && len(s) > maxParamLogChars {
			sanitized[key] = truncate(s, maxParamLogChars)
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func sanitizeReply(reply map[string]any) map[string]any {
	sanitized := make(map[string]any, len(reply))
	for key, value := range reply {
		switch v := value.(type) {
		case string:
			if len(v) > maxReplyLogChars {
				sanitized[key] = truncate(v, maxReplyLogChars)
				continue
			}
			sanitized[key] = v
		case []any:
			if len(v) > maxTableLogRows {
				sanitized[key] = fmt.Sprintf("[table, %d rows]", len(v))
				continue
			}
			sanitized[key] = v
		case []map[string]any:
			if len(v) > maxTableLogRows {
				sanitized[key] = fmt.Sprintf("[table, %d rows]", len(v))
				continue
			}
			sanitized[key] = v
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}

func truncate(s string, max int) string {
	// Back off to a rune boundary so the log copy stays valid UTF-8.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (length: %d)", s[:cut], len(s))
}
