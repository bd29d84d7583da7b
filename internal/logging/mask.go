package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Mask replaces any sensitive value before it reaches a sink.
const Mask = "***MASKED***"

// sensitiveFields are matched case-insensitively against attribute keys and
// against key=value / key: value / "key": "value" patterns inside log text.
var sensitiveFields = []string{
	"password", "passwd", "pwd", "secret", "token", "api_key", "apikey",
}

var maskPattern = regexp.MustCompile(
	`(?i)(["']?(?:` + strings.Join(sensitiveFields, "|") + `)["']?\s*[=:]\s*)("[^"]*"|'[^']*'|[^\s,}\]"']+)`,
)

// MaskHandler decorates a slog.Handler so every record is scrubbed of
// sensitive values before reaching the sink. Wrapping the handler, rather
// than sanitizing at each call site, guarantees uniform coverage across
// console and file output. The record level is never changed.
type MaskHandler struct {
	inner slog.Handler
}

// NewMaskHandler wraps inner with sensitive-value masking.
func NewMaskHandler(inner slog.Handler) *MaskHandler {
	return &MaskHandler{inner: inner}
}

func (h *MaskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *MaskHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, MaskText(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

func (h *MaskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = maskAttr(a)
	}
	return &MaskHandler{inner: h.inner.WithAttrs(maskedAttrs)}
}

func (h *MaskHandler) WithGroup(name string) slog.Handler {
	return &MaskHandler{inner: h.inner.WithGroup(name)}
}

// MaskText scrubs sensitive key=value, key: value and "key": "value" patterns
// from free-form text, keeping the key and replacing only the value.
func MaskText(s string) string {
	return maskPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := maskPattern.FindStringSubmatch(m)
		prefix, value := sub[1], sub[2]
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			q := string(value[0])
			return prefix + q + Mask + q
		}
		return prefix + Mask
	})
}

func maskAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, Mask)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, MaskText(a.Value.String()))
	case slog.KindGroup:
		members := a.Value.Group()
		masked := make([]any, 0, len(members))
		for _, m := range members {
			masked = append(masked, maskAttr(m))
		}
		return slog.Group(a.Key, masked...)
	}
	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, f := range sensitiveFields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
