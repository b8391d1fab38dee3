// Package server provides the MCP (Model Context Protocol) bridge that
// exposes Datalayer platform operations as tools.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/datalayer/datalayer-go/pkg/logger"
	"github.com/datalayer/datalayer-go/pkg/versions"
)

// DefaultMCPPort is the default port for the MCP server.
const DefaultMCPPort = "4313"

// Config holds the configuration for the MCP server.
type Config struct {
	Host string
	Port string
}

// Server is the Datalayer MCP server.
type Server struct {
	config     *Config
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
	handler    *Handler
}

// New creates a new Datalayer MCP server.
func New(ctx context.Context, config *Config, handler *Handler) (*Server, error) {
	versionInfo := versions.GetVersionInfo()
	srv := mcpserver.NewMCPServer(
		"datalayer-mcp",
		versionInfo.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithLogging(),
	)

	registerTools(srv, handler)

	addr := fmt.Sprintf("%s:%s", config.Host, config.Port)
	streamableServer := mcpserver.NewStreamableHTTPServer(
		srv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithHTTPContextFunc(func(_ context.Context, _ *http.Request) context.Context {
			return ctx
		}),
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           streamableServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		config:     config,
		mcpServer:  srv,
		httpServer: httpServer,
		handler:    handler,
	}, nil
}

// Start starts the MCP server and blocks until it stops.
func (s *Server) Start() error {
	logger.Infof("starting Datalayer MCP server on http://%s:%s/mcp", s.config.Host, s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the MCP server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("shutting down MCP server")
	return s.httpServer.Shutdown(ctx)
}

// GetAddress returns the MCP endpoint URL.
func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://%s:%s/mcp", s.config.Host, s.config.Port)
}

func registerTools(srv *mcpserver.MCPServer, handler *Handler) {
	srv.AddTool(mcp.Tool{
		Name:        "list_environments",
		Description: "List the compute environments available on the Datalayer platform",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListEnvironments)

	srv.AddTool(mcp.Tool{
		Name:        "list_runtimes",
		Description: "List the caller's running Datalayer runtimes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListRuntimes)

	srv.AddTool(mcp.Tool{
		Name:        "create_runtime",
		Description: "Create a new runtime (remote kernel) on the Datalayer platform",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"environment": map[string]interface{}{
					"type":        "string",
					"description": "Environment name to launch, e.g. 'python-cpu-env'",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Optional human-readable name for the runtime",
				},
				"credits_limit": map[string]interface{}{
					"type":        "number",
					"description": "Optional credits budget for the runtime",
				},
			},
			Required: []string{"environment"},
		},
	}, handler.CreateRuntime)

	srv.AddTool(mcp.Tool{
		Name:        "terminate_runtime",
		Description: "Terminate a running Datalayer runtime",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pod_name": map[string]interface{}{
					"type":        "string",
					"description": "Pod name of the runtime to terminate",
				},
			},
			Required: []string{"pod_name"},
		},
	}, handler.TerminateRuntime)

	srv.AddTool(mcp.Tool{
		Name:        "list_snapshots",
		Description: "List the caller's runtime snapshots",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.ListSnapshots)

	srv.AddTool(mcp.Tool{
		Name:        "create_snapshot",
		Description: "Snapshot the state of a running runtime",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pod_name": map[string]interface{}{
					"type":        "string",
					"description": "Pod name of the runtime to snapshot",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name for the snapshot",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional description",
				},
				"stop": map[string]interface{}{
					"type":        "boolean",
					"description": "Stop the runtime after the snapshot is taken",
				},
			},
			Required: []string{"pod_name"},
		},
	}, handler.CreateSnapshot)

	srv.AddTool(mcp.Tool{
		Name:        "whoami",
		Description: "Show the identity behind the configured Datalayer credential",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handler.Whoami)
}
