package tooling

// ErrorCode is the closed taxonomy surfaced to the boundary.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	CodeRFCCallFailed    ErrorCode = "RFC_CALL_FAILED"
	CodeToolHandlerError ErrorCode = "TOOL_HANDLER_ERROR"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
	CodeNotInitialized   ErrorCode = "NOT_INITIALIZED"
)

// Envelope is the two-shape response contract: exactly one of Content
// (success) or Error is set.
type Envelope struct {
	Content []ContentItem  `json:"content,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

// ContentItem is one block of success content.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EnvelopeError carries a taxonomy code and message.
type EnvelopeError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SuccessEnvelope wraps canonical result text in a success envelope.
func SuccessEnvelope(text string) Envelope {
	return Envelope{Content: []ContentItem{{Type: "text", Text: text}}}
}

// ErrorEnvelope builds a typed error envelope.
func ErrorEnvelope(code ErrorCode, message string) Envelope {
	return Envelope{Error: &EnvelopeError{Code: code, Message: message}}
}
