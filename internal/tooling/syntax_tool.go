package tooling

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"abapcheck/internal/check"
	"abapcheck/internal/config"
	"abapcheck/internal/rfc"
)

// RFCFunctionName is the remote function module that performs the check.
const RFCFunctionName = "Z_CHECK_ABAP_SYNTAX"

// paramCode is the sole named input parameter carrying the program text.
const paramCode = "IV_CODE"

// Connector is the connection surface the tool drives: reuse-or-connect, then
// one call. *rfc.Client satisfies it; tests substitute fakes.
type Connector interface {
	IsConnected() bool
	Connect() error
	Call(function string, params map[string]any) (map[string]any, error)
}

// InputError marks a structural validation failure on the tool input.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// HandlerError marks an unexpected fault inside the tool's own orchestration,
// as opposed to a failure of the remote call.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string { return fmt.Sprintf("tool handler error: %v", e.Err) }
func (e *HandlerError) Unwrap() error { return e.Err }

// CheckInput is the tool's input contract; its JSON Schema is generated by
// reflection and served to MCP clients.
type CheckInput struct {
	Code string `json:"code" jsonschema:"title=ABAP code,description=ABAP REPORT program source code to check"`
}

// SyntaxTool forwards ABAP source to the SAP system for syntax checking and
// normalizes the reply. Stateless across requests; the only shared state is
// the connector's connection.
type SyntaxTool struct {
	conn     Connector
	maxLines int
	logger   *slog.Logger
}

// SyntaxToolOption configures a SyntaxTool.
type SyntaxToolOption func(*SyntaxTool)

// WithMaxLines overrides the maximum accepted number of source lines.
func WithMaxLines(n int) SyntaxToolOption {
	return func(t *SyntaxTool) {
		if n > 0 {
			t.maxLines = n
		}
	}
}

// WithLogger sets the tool's logger.
func WithLogger(l *slog.Logger) SyntaxToolOption {
	return func(t *SyntaxTool) { t.logger = l }
}

// NewSyntaxTool returns the check_abap_syntax tool bound to conn.
func NewSyntaxTool(conn Connector, opts ...SyntaxToolOption) *SyntaxTool {
	t := &SyntaxTool{
		conn:     conn,
		maxLines: config.DefaultMaxCodeLines,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SyntaxTool) Name() string { return "check_abap_syntax" }

func (t *SyntaxTool) Description() string {
	return "Checks an ABAP REPORT program for syntax errors. The code is sent to a SAP " +
		"system for validation; the result lists each finding with line number, type " +
		"(E error, W warning) and message."
}

func (t *SyntaxTool) Definition() string {
	return GenerateSchema(CheckInput{})
}

// ValidateCode applies the structural input constraints. No semantic
// inspection of the content happens here or anywhere else on this side.
func (t *SyntaxTool) ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return &InputError{Reason: "argument \"code\" must not be empty"}
	}
	lineCount := countLines(code)
	if lineCount > t.maxLines {
		return &InputError{Reason: fmt.Sprintf("code exceeds the line limit: %d > %d", lineCount, t.maxLines)}
	}
	t.logger.Debug("input validation passed", "lines", lineCount)
	return nil
}

// CheckSyntax validates, ensures the connection, invokes the remote check and
// normalizes the reply. Connection and call errors propagate unchanged for
// the envelope mapping in Handle.
func (t *SyntaxTool) CheckSyntax(code string) (check.Result, error) {
	if err := t.ValidateCode(code); err != nil {
		return check.Result{}, err
	}

	t.logger.Info("starting ABAP syntax check", "chars", len(code))

	if !t.conn.IsConnected() {
		t.logger.Info("RFC connection not established, connecting")
		if err := t.conn.Connect(); err != nil {
			return check.Result{}, err
		}
	}

	reply, err := t.conn.Call(RFCFunctionName, map[string]any{paramCode: code})
	if err != nil {
		return check.Result{}, err
	}

	result := check.FromReply(reply)
	switch {
	case !result.Success:
		t.logger.Warn("syntax check execution failed", "message", result.Message)
	case result.HasErrors:
		t.logger.Info("syntax check finished", "findings", len(result.Errors))
	default:
		t.logger.Info("syntax check finished, no errors")
	}
	return result, nil
}

// Handle processes one tool call end to end and always returns a well-formed
// envelope; no fault leaks past this boundary.
func (t *SyntaxTool) Handle(args map[string]any) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("panic while handling tool call", "panic", fmt.Sprintf("%v", r))
			env = ErrorEnvelope(CodeInternalError, fmt.Sprintf("internal error: %v", r))
		}
	}()

	code, inputErr := extractCode(args)
	if inputErr == nil {
		if err := ValidateArgs(args, t.Definition()); err != nil {
			inputErr = &InputError{Reason: err.Error()}
		}
	}
	if inputErr != nil {
		t.logger.Warn("input validation failed", "error", inputErr.Error())
		return ErrorEnvelope(CodeInvalidInput, inputErr.Reason)
	}

	result, err := t.CheckSyntax(code)
	if err != nil {
		return t.errorEnvelopeFor(err)
	}

	text, err := result.ToJSON()
	if err != nil {
		return t.errorEnvelopeFor(&HandlerError{Err: err})
	}
	return SuccessEnvelope(text)
}

func (t *SyntaxTool) errorEnvelopeFor(err error) Envelope {
	var inputErr *InputError
	var handlerErr *HandlerError
	switch {
	case errors.As(err, &inputErr):
		t.logger.Warn("input validation failed", "error", err.Error())
		return ErrorEnvelope(CodeInvalidInput, inputErr.Reason)
	case rfc.IsConnection(err):
		t.logger.Error("RFC connection failed", "error", err.Error())
		return ErrorEnvelope(CodeConnectionFailed, "cannot connect to the SAP system: "+err.Error())
	case rfc.IsCall(err):
		t.logger.Error("RFC call failed", "error", err.Error())
		return ErrorEnvelope(CodeRFCCallFailed, "syntax check call failed: "+err.Error())
	case errors.As(err, &handlerErr):
		t.logger.Error("tool handler error", "error", err.Error())
		return ErrorEnvelope(CodeToolHandlerError, err.Error())
	}
	t.logger.Error("unexpected error while handling tool call", "error", err.Error())
	return ErrorEnvelope(CodeInternalError, "internal error: "+err.Error())
}

// extractCode pulls the code argument out of the raw map. Absent and
// non-string values are input errors, not internal ones.
func extractCode(args map[string]any) (string, *InputError) {
	raw, ok := args[paramKeyCode]
	if !ok || raw == nil {
		return "", &InputError{Reason: "missing required argument: \"code\""}
	}
	code, ok := raw.(string)
	if !ok {
		return "", &InputError{Reason: fmt.Sprintf("argument \"code\" must be a string, got %T", raw)}
	}
	return code, nil
}

// paramKeyCode is the tool argument name (distinct from the RFC parameter).
const paramKeyCode = "code"

// countLines counts newline-delimited lines the way the limit is defined: a
// trailing newline does not start an extra line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}
