// Package server exposes the registered tools over MCP stdio and owns the
// connection lifecycle: connect on start, disconnect on every exit path.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"abapcheck/internal/tooling"
)

// Connection is the lifecycle surface the server drives at startup/shutdown.
type Connection interface {
	Connect() error
	Disconnect()
}

// Server wires the tool registry into an MCP stdio server.
type Server struct {
	name    string
	version string
	conn    Connection
	logger  *slog.Logger
	mcp     *mcpserver.MCPServer

	// ready guards dispatch: until initialization finished, every call is
	// answered with a NOT_INITIALIZED envelope instead of reaching a tool.
	ready atomic.Bool
}

// New builds a Server serving every tool in the registry.
func New(name, version string, conn Connection, registry *tooling.Registry, logger *slog.Logger) *Server {
	s := &Server{
		name:    name,
		version: version,
		conn:    conn,
		logger:  logger,
	}

	m := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	for _, tool := range registry.List() {
		def := mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), json.RawMessage(tool.Definition()))
		m.AddTool(def, s.toolHandler(tool))
	}
	s.mcp = m
	return s
}

// toolHandler adapts a SchemaTool to mcp-go dispatch. The envelope contract
// holds at this boundary: the MCP result always carries either the canonical
// result text or the serialized error envelope, never a protocol-level error.
func (s *Server) toolHandler(tool tooling.SchemaTool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logger.Info("tool call received", "tool", tool.Name())

		if !s.ready.Load() {
			s.logger.Error("tool call before initialization finished")
			return renderEnvelope(tooling.ErrorEnvelope(tooling.CodeNotInitialized, "server is not initialized"))
		}
		return renderEnvelope(tool.Handle(req.GetArguments()))
	}
}

func renderEnvelope(env tooling.Envelope) (*mcp.CallToolResult, error) {
	if env.Error != nil {
		data, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("render error envelope: %w", err)
		}
		result := mcp.NewToolResultText(string(data))
		result.IsError = true
		return result, nil
	}
	if len(env.Content) == 0 {
		return nil, fmt.Errorf("envelope carries neither content nor error")
	}
	return mcp.NewToolResultText(env.Content[0].Text), nil
}

// Run connects to the SAP system, serves MCP over stdio until ctx is
// canceled or stdin closes, and always disconnects on the way out.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("initializing server", "name", s.name, "version", s.version)
	if err := s.conn.Connect(); err != nil {
		return fmt.Errorf("server initialization: %w", err)
	}
	defer func() {
		s.conn.Disconnect()
		s.logger.Info("server shut down")
	}()
	s.ready.Store(true)

	s.logger.Info("serving MCP over stdio")
	stdio := mcpserver.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
