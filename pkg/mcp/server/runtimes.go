package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datalayer/datalayer-go/pkg/client"
)

// RuntimeInfo is the per-runtime tool output.
type RuntimeInfo struct {
	UID         string `json:"uid,omitempty"`
	PodName     string `json:"pod_name"`
	GivenName   string `json:"given_name,omitempty"`
	Environment string `json:"environment"`
	IngressURL  string `json:"ingress,omitempty"`
	StartedAt   string `json:"started_at,omitempty"`
	ExpiredAt   string `json:"expired_at,omitempty"`
}

// ListRuntimesResponse is the list_runtimes tool output.
type ListRuntimesResponse struct {
	Runtimes []RuntimeInfo `json:"runtimes"`
}

// ListRuntimes lists the caller's running runtimes.
func (h *Handler) ListRuntimes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runtimes, err := h.client.Runtimes.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list runtimes: %v", err)), nil
	}

	var results []RuntimeInfo
	for _, runtime := range runtimes {
		results = append(results, runtimeInfo(runtime))
	}

	return mcp.NewToolResultStructuredOnly(ListRuntimesResponse{Runtimes: results}), nil
}

// CreateRuntime launches a new runtime.
func (h *Handler) CreateRuntime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Environment  string  `json:"environment"`
		Name         string  `json:"name"`
		CreditsLimit float64 `json:"credits_limit"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.Environment == "" {
		return mcp.NewToolResultError("environment is required"), nil
	}

	runtime, err := h.client.Runtimes.Create(ctx, client.RuntimeSpec{
		EnvironmentName: args.Environment,
		GivenName:       args.Name,
		CreditsLimit:    args.CreditsLimit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create runtime: %v", err)), nil
	}

	return mcp.NewToolResultStructuredOnly(runtimeInfo(*runtime)), nil
}

// TerminateRuntime terminates a running runtime.
func (h *Handler) TerminateRuntime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		PodName string `json:"pod_name"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.PodName == "" {
		return mcp.NewToolResultError("pod_name is required"), nil
	}

	if err := h.client.Runtimes.Terminate(ctx, args.PodName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to terminate runtime: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Runtime %s terminated", args.PodName)), nil
}

func runtimeInfo(runtime client.Runtime) RuntimeInfo {
	info := RuntimeInfo{
		UID:         runtime.UID,
		PodName:     runtime.PodName,
		GivenName:   runtime.GivenName,
		Environment: runtime.EnvironmentName,
		IngressURL:  runtime.IngressURL,
	}
	if !runtime.StartedAt.IsZero() {
		info.StartedAt = runtime.StartedAt.Format(time.RFC3339)
	}
	if !runtime.ExpiredAt.IsZero() {
		info.ExpiredAt = runtime.ExpiredAt.Format(time.RFC3339)
	}
	return info
}
