package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// WhoamiResponse is the whoami tool output.
type WhoamiResponse struct {
	UID    string `json:"uid,omitempty"`
	Handle string `json:"handle"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Whoami shows the identity behind the configured credential.
func (h *Handler) Whoami(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := h.client.IAM.Whoami(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve identity: %v", err)), nil
	}

	return mcp.NewToolResultStructuredOnly(WhoamiResponse{
		UID:    user.UID,
		Handle: user.Handle,
		Name:   user.DisplayName(),
		Email:  user.Email,
	}), nil
}
