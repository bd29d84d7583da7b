package server

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"abapcheck/internal/tooling"
)

type fakeConnection struct {
	connectErr  error
	connects    int
	disconnects int
}

func (f *fakeConnection) Connect() error {
	f.connects++
	return f.connectErr
}

func (f *fakeConnection) Disconnect() { f.disconnects++ }

type echoTool struct {
	env tooling.Envelope
}

func (e *echoTool) Name() string                           { return "check_abap_syntax" }
func (e *echoTool) Description() string                    { return "echo" }
func (e *echoTool) Definition() string                     { return `{"type":"object"}` }
func (e *echoTool) Handle(map[string]any) tooling.Envelope { return e.env }

func newTestServer(t *testing.T, conn Connection, tool tooling.SchemaTool) *Server {
	t.Helper()
	registry := tooling.NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New("abapcheck", "test", conn, registry, logger)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "check_abap_syntax"
	req.Params.Arguments = args
	return req
}

func TestToolHandler_WhenServerNotInitialized_ShouldReturnNotInitializedEnvelope(t *testing.T) {
	tool := &echoTool{env: tooling.SuccessEnvelope("should not be reached")}
	s := newTestServer(t, &fakeConnection{}, tool)

	handler := s.toolHandler(tool)
	result, err := handler(context.Background(), callRequest(map[string]any{"code": "REPORT z."}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, string(tooling.CodeNotInitialized)) {
		t.Errorf("expected NOT_INITIALIZED envelope, got %q", text)
	}
}

func TestToolHandler_WhenInitialized_ShouldDispatchToTool(t *testing.T) {
	tool := &echoTool{env: tooling.SuccessEnvelope(`{"success": true}`)}
	s := newTestServer(t, &fakeConnection{}, tool)
	s.ready.Store(true)

	handler := s.toolHandler(tool)
	result, err := handler(context.Background(), callRequest(map[string]any{"code": "REPORT z."}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, result); got != `{"success": true}` {
		t.Errorf("unexpected result text: %q", got)
	}
}

func TestToolHandler_WhenToolReturnsErrorEnvelope_ShouldSerializeItAsText(t *testing.T) {
	tool := &echoTool{env: tooling.ErrorEnvelope(tooling.CodeConnectionFailed, "cannot connect")}
	s := newTestServer(t, &fakeConnection{}, tool)
	s.ready.Store(true)

	handler := s.toolHandler(tool)
	result, err := handler(context.Background(), callRequest(map[string]any{"code": "REPORT z."}))
	if err != nil {
		t.Fatalf("expected envelope, not protocol error: %v", err)
	}
	if !result.IsError {
		t.Error("expected result flagged as error")
	}
	text := resultText(t, result)
	if !strings.Contains(text, `"CONNECTION_FAILED"`) || !strings.Contains(text, "cannot connect") {
		t.Errorf("unexpected error payload: %q", text)
	}
	if !strings.Contains(text, `"error"`) {
		t.Errorf("expected error envelope shape: %q", text)
	}
}

func TestRun_WhenConnectFails_ShouldReturnErrorWithoutServing(t *testing.T) {
	conn := &fakeConnection{connectErr: contextErr("logon rejected")}
	tool := &echoTool{env: tooling.SuccessEnvelope("ok")}
	s := newTestServer(t, conn, tool)

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when startup connect fails")
	}
	if !strings.Contains(err.Error(), "logon rejected") {
		t.Errorf("cause lost: %v", err)
	}
	if s.ready.Load() {
		t.Error("server must not become ready after failed connect")
	}
}

func TestRun_WhenContextCanceled_ShouldDisconnect(t *testing.T) {
	conn := &fakeConnection{}
	tool := &echoTool{env: tooling.SuccessEnvelope("ok")}
	s := newTestServer(t, conn, tool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = s.Run(ctx)

	if conn.connects != 1 {
		t.Errorf("expected one connect, got %d", conn.connects)
	}
	if conn.disconnects != 1 {
		t.Errorf("expected disconnect on shutdown, got %d", conn.disconnects)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

type contextErr string

func (e contextErr) Error() string { return string(e) }
