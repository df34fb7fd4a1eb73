package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowstudio"
	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/aretw0/flowstudio/pkg/expression"
	"github.com/aretw0/flowstudio/pkg/graph"
	"github.com/aretw0/flowstudio/pkg/sanitize"
	"github.com/aretw0/flowstudio/pkg/schema"
	"github.com/aretw0/flowstudio/pkg/simulate"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NodeTypesURI is the resource listing every node type and its config schema.
const NodeTypesURI = "flowstudio://node-types"

// EvaluateResponse is the output of the evaluate_expression tool.
type EvaluateResponse struct {
	Result any  `json:"result" jsonschema_description:"The expression result"`
	Truthy bool `json:"truthy" jsonschema_description:"Whether a conditional node would take its true branch"`
}

// SanitizeResponse is the output of the sanitize_component tool.
type SanitizeResponse struct {
	Config       map[string]any `json:"config" jsonschema_description:"The configuration as it would be published"`
	Sanitized    bool           `json:"sanitized" jsonschema_description:"True when the component is public and was sanitized"`
	RemovedPaths []string       `json:"removed_paths" jsonschema_description:"Credential fields that were stripped"`
}

// DryRunResponse is the output of the dry_run tool.
type DryRunResponse struct {
	Messages []execution.Message `json:"messages" jsonschema_description:"Protocol messages the run emitted"`
}

// Server exposes flowstudio's pure operations as MCP tools.
type Server struct {
	evaluator *expression.Evaluator
	sanitizer *sanitize.Sanitizer
	simulator *simulate.Simulator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSanitizer sets the sanitizer used by sanitize_component.
func WithSanitizer(san *sanitize.Sanitizer) Option {
	return func(s *Server) {
		s.sanitizer = san
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.evaluator = expression.New(expression.WithLogger(s.logger))
	if s.sanitizer == nil {
		s.sanitizer = sanitize.New(sanitize.WithLogger(s.logger))
	}
	s.simulator = simulate.New(simulate.WithEvaluator(s.evaluator), simulate.WithLogger(s.logger))
	s.mcpServer = server.NewMCPServer("flowstudio-mcp", strings.TrimSpace(flowstudio.Version))

	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: evaluate_expression
	evaluateTool := mcp.NewTool("evaluate_expression",
		mcp.WithDescription("Evaluate a JMESPath expression against a JSON document, as conditional and transform nodes do."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("The expression, e.g. output.status == `200`")),
		mcp.WithString("document", mcp.Description("JSON document to evaluate against (defaults to {})")),
		mcp.WithOutputSchema[EvaluateResponse](),
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))

	// TOOL: sanitize_component
	sanitizeTool := mcp.NewTool("sanitize_component",
		mcp.WithDescription("Show how a node configuration would be published to the component library."),
		mcp.WithString("config", mcp.Required(), mcp.Description("JSON object of the node configuration")),
		mcp.WithBoolean("public", mcp.Description("Whether the component is shared publicly (default true)")),
		mcp.WithOutputSchema[SanitizeResponse](),
	)
	s.mcpServer.AddTool(sanitizeTool, mcp.NewStructuredToolHandler(s.handleSanitize))

	// TOOL: validate_flow
	validateTool := mcp.NewTool("validate_flow",
		mcp.WithDescription("Lint a flow document ({nodes, edges}) and report errors and warnings."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("JSON flow document")),
		mcp.WithOutputSchema[graph.Report](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: dry_run
	dryRunTool := mcp.NewTool("dry_run",
		mcp.WithDescription("Walk a flow from its entry node without side effects and return the emitted messages."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("JSON flow document")),
		mcp.WithString("input", mcp.Description("JSON object passed as the run input")),
		mcp.WithString("entry_node_id", mcp.Description("Node to start from (optional)")),
		mcp.WithOutputSchema[DryRunResponse](),
	)
	s.mcpServer.AddTool(dryRunTool, mcp.NewStructuredToolHandler(s.handleDryRun))
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EvaluateResponse, error) {
	expr, _ := args["expression"].(string)
	doc := "{}"
	if raw, ok := args["document"].(string); ok && strings.TrimSpace(raw) != "" {
		doc = raw
	}

	result, err := s.evaluator.EvaluateJSON(expr, []byte(doc))
	if err != nil {
		return EvaluateResponse{}, err
	}
	return EvaluateResponse{Result: result, Truthy: expression.Truthy(result)}, nil
}

func (s *Server) handleSanitize(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SanitizeResponse, error) {
	raw, _ := args["config"].(string)
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return SanitizeResponse{}, fmt.Errorf("config must be a JSON object: %w", err)
	}
	public := true
	if v, ok := args["public"].(bool); ok {
		public = v
	}

	res := s.sanitizer.Sanitize(sanitize.Input{Config: cfg, IsPublic: public})
	out := SanitizeResponse{
		Config:       res.Component.Config,
		Sanitized:    res.Sanitized,
		RemovedPaths: res.Warning.RemovedPaths,
	}
	if out.RemovedPaths == nil {
		out.RemovedPaths = []string{}
	}
	return out, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (graph.Report, error) {
	flow, err := parseFlow(args)
	if err != nil {
		return graph.Report{}, err
	}
	return graph.Lint(flow), nil
}

func (s *Server) handleDryRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DryRunResponse, error) {
	flow, err := parseFlow(args)
	if err != nil {
		return DryRunResponse{}, err
	}
	req := execution.StartRequest{Type: execution.TypeStart, Input: map[string]any{}}
	if raw, ok := args["input"].(string); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &req.Input); err != nil {
			return DryRunResponse{}, fmt.Errorf("input must be a JSON object: %w", err)
		}
	}
	req.EntryNodeID, _ = args["entry_node_id"].(string)

	out := DryRunResponse{Messages: []execution.Message{}}
	err = s.simulator.Run(ctx, flow, req, func(m execution.Message) error {
		out.Messages = append(out.Messages, m)
		return nil
	})
	if err != nil {
		return DryRunResponse{}, fmt.Errorf("dry run failed: %w", err)
	}
	return out, nil
}

func parseFlow(args map[string]interface{}) (domain.Flow, error) {
	raw, _ := args["flow"].(string)
	doc, err := graph.ParseDocument([]byte(raw))
	if err != nil {
		return domain.Flow{}, fmt.Errorf("invalid flow: %w", err)
	}
	return domain.Flow{Nodes: doc.Nodes, Edges: doc.Edges}, nil
}

// nodeTypeInfo describes one node type.
type nodeTypeInfo struct {
	Type   domain.NodeType   `json:"type"`
	Entry  bool              `json:"entry"`
	Config map[string]string `json:"config"`
}

func (s *Server) registerResources() {
	// EXPOSE: flowstudio://node-types
	s.mcpServer.AddResource(mcp.NewResource(NodeTypesURI, "Node Types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(nodeTypes())
		if err != nil {
			return nil, fmt.Errorf("failed to describe node types: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      NodeTypesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func nodeTypes() []nodeTypeInfo {
	out := make([]nodeTypeInfo, 0, len(domain.NodeTypes))
	for _, t := range domain.NodeTypes {
		info := nodeTypeInfo{Type: t, Entry: t.IsEntry(), Config: map[string]string{}}
		if sch, ok := schema.ForNodeType(t); ok {
			info.Config = schema.Describe(sch)
		}
		out = append(out, info)
	}
	return out
}
