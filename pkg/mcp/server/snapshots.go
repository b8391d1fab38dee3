package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/datalayer/datalayer-go/pkg/client"
)

// SnapshotInfo is the per-snapshot tool output.
type SnapshotInfo struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// ListSnapshotsResponse is the list_snapshots tool output.
type ListSnapshotsResponse struct {
	Snapshots []SnapshotInfo `json:"snapshots"`
}

// ListSnapshots lists the caller's runtime snapshots.
func (h *Handler) ListSnapshots(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshots, err := h.client.Snapshots.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list snapshots: %v", err)), nil
	}

	var results []SnapshotInfo
	for _, snapshot := range snapshots {
		results = append(results, snapshotInfo(snapshot))
	}

	return mcp.NewToolResultStructuredOnly(ListSnapshotsResponse{Snapshots: results}), nil
}

// CreateSnapshot snapshots a running runtime.
func (h *Handler) CreateSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		PodName     string `json:"pod_name"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Stop        bool   `json:"stop"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.PodName == "" {
		return mcp.NewToolResultError("pod_name is required"), nil
	}

	snapshot, err := h.client.Snapshots.Create(ctx, client.SnapshotSpec{
		PodName:     args.PodName,
		Name:        args.Name,
		Description: args.Description,
		Stop:        args.Stop,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create snapshot: %v", err)), nil
	}

	return mcp.NewToolResultStructuredOnly(snapshotInfo(*snapshot)), nil
}

func snapshotInfo(snapshot client.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		UID:         snapshot.UID,
		Name:        snapshot.Name,
		Description: snapshot.Description,
		Environment: snapshot.Environment,
	}
}
