package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/railcat/internal/config"
	"github.com/Aman-CERP/railcat/internal/state"
	"github.com/Aman-CERP/railcat/internal/telemetry"
	"github.com/Aman-CERP/railcat/pkg/version"
)

// Server is the MCP server for railcat.
// It answers catalogue queries from AI clients against the live snapshot.
type Server struct {
	mcp     *mcp.Server
	state   *state.State
	config  *config.Config
	metrics *telemetry.Metrics
	logger  *slog.Logger

	tools []ToolInfo
	calls map[string]toolFunc
}

// toolFunc runs a tool on untyped JSON arguments.
type toolFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures the server.
type Option func(*Server)

// WithMetrics records tool calls, searches and reloads in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the server logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server over the live catalogue state.
func NewServer(st *state.State, cfg *config.Config, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("catalogue state is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		state:  st,
		config: cfg,
		logger: slog.Default(),
		calls:  make(map[string]toolFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "railcat",
			Version: version.Short(),
		},
		nil, // capabilities are inferred from the registered tools
	)
	s.registerTools()

	if s.metrics != nil {
		if snap := st.Current(); snap != nil {
			s.metrics.SetDocuments(snap.Catalogue.Numbers)
		}
		st.OnReload(func(snap *state.Snapshot, err error) {
			s.metrics.RecordReload(err)
			if snap != nil {
				s.metrics.SetDocuments(snap.Catalogue.Numbers)
			}
		})
	}
	return s, nil
}

// MCPServer returns the underlying go-sdk server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "railcat", version.Short()
}

// ListTools returns the registered tools in registration order.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(s.tools))
	copy(out, s.tools)
	return out
}

// CallTool invokes a tool by name with JSON-style arguments. It goes
// through the same validation and handlers as calls over the protocol.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	call, ok := s.calls[name]
	if !ok {
		return nil, NewMethodNotFoundError(name)
	}
	out, err := call(ctx, args)
	if err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	addTool(s, ToolSearchNames,
		"Find documents by name. Matches names starting with the query first, then close spellings. Returns document keys to use with the other tools.",
		s.searchNames, FormatSearchResults)
	addTool(s, ToolListCountries,
		"List the countries of the catalogue with their codes and line counts, sorted by name in the requested language.",
		s.listCountries, nil)
	addTool(s, ToolCountryLines,
		"List the railway lines of a country by its two-letter code.",
		s.countryLines, nil)
	addTool(s, ToolOrganizationLines,
		"List the lines of an organization: the lines of the country it stands for, and the lines it owned, operated or held a concession for.",
		s.organizationLines, nil)
	addTool(s, ToolPointInfo,
		"Describe a point: directly connected points, the lines serving it and its neighbours, and whether it is a junction.",
		s.pointInfo, nil)
	addTool(s, ToolSourceRefs,
		"List the bibliographic references of a document: sources an organization created, items of a collection, related sources and sources about the document.",
		s.sourceRefs, nil)
	addTool(s, ToolCatalogueStats,
		"Report document counts per kind, index sizes, reload counters and search statistics.",
		s.catalogueStats, nil)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(s.tools)))
}

// addTool registers fn under name both with the go-sdk server and with
// the CallTool dispatcher. text, if set, renders the human-readable content
// of a successful result.
func addTool[In, Out any](s *Server, name, description string, fn func(context.Context, In) (Out, error), text func(Out) string) {
	observed := func(ctx context.Context, in In) (Out, error) {
		start := time.Now()
		out, err := fn(ctx, in)
		s.observe(name, start, err)
		return out, err
	}

	s.tools = append(s.tools, ToolInfo{Name: name, Description: description})
	s.calls[name] = func(ctx context.Context, args map[string]any) (any, error) {
		var in In
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return observed(ctx, in)
	}

	mcp.AddTool(s.mcp, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
			out, err := observed(ctx, in)
			if err != nil {
				var zero Out
				return nil, zero, MapError(err)
			}
			if text == nil {
				return nil, out, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text(out)}},
			}, out, nil
		})
}

// observe logs and counts one tool call.
func (s *Server) observe(tool string, start time.Time, err error) {
	duration := time.Since(start)
	s.metrics.RecordToolCall(tool, duration, err)

	attrs := []any{
		slog.String("request_id", requestID()),
		slog.String("tool", tool),
		slog.Duration("duration", duration),
	}
	if err != nil {
		s.logger.Warn("tool_call_failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	s.logger.Debug("tool_call", attrs...)
}

// decodeArgs converts JSON-style arguments into a typed input. Unknown
// keys are rejected.
func decodeArgs(args map[string]any, into any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(fmt.Sprintf("arguments are not valid JSON: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// Serve runs the server on transport ("stdio" or "http") until ctx is
// done. addr is the listen address of the http transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("mcp_server_starting",
		slog.String("transport", transport),
		slog.String("addr", addr))

	var err error
	switch transport {
	case "stdio":
		err = s.mcp.Run(ctx, &mcp.StdioTransport{})
	case "http":
		err = s.serveHTTP(ctx, addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, http)", transport)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

// requestID creates a short unique request ID for log correlation.
func requestID() string {
	return uuid.NewString()[:8]
}

// Close releases the catalogue state.
func (s *Server) Close() error {
	return s.state.Close()
}
