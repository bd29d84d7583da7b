package tooling

import "fmt"

// SchemaTool is a tool whose input is described by a JSON Schema generated
// from a Go struct via invopop/jsonschema. The server passes Definition() to
// the MCP client and dispatches calls to Handle, which always returns a
// well-formed envelope: faults never propagate past a tool.
type SchemaTool interface {
	// Name returns the unique tool name (e.g. "check_abap_syntax").
	Name() string
	// Description returns a human-readable description for the caller.
	Description() string
	// Definition returns the JSON Schema string for the tool's input struct.
	Definition() string
	// Handle executes the tool with the raw argument map and returns either a
	// success or a typed error envelope, never both.
	Handle(args map[string]any) Envelope
}

// Registry holds SchemaTool implementations keyed by name. The server uses it
// to enumerate tool definitions and dispatch calls.
type Registry struct {
	tools map[string]SchemaTool
	names []string
}

// NewRegistry returns an empty, ready-to-use registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]SchemaTool)}
}

// Register adds a tool. Returns an error if the tool is nil or a tool with
// the same name is already registered.
func (r *Registry) Register(tool SchemaTool) error {
	if tool == nil {
		return fmt.Errorf("tool must not be nil")
	}
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = tool
	r.names = append(r.names, name)
	return nil
}

// Get returns the tool with the given name or an error if not found.
func (r *Registry) Get(name string) (SchemaTool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %q", name)
	}
	return tool, nil
}

// List returns all registered tools in registration order.
func (r *Registry) List() []SchemaTool {
	out := make([]SchemaTool, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name])
	}
	return out
}
