package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datalayer/datalayer-go/pkg/config"
	"github.com/datalayer/datalayer-go/pkg/logger"
	mcpserver "github.com/datalayer/datalayer-go/pkg/mcp/server"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol (MCP) tools",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose Datalayer platform operations as MCP tools",
	Long: `Start an MCP streamable-HTTP server whose tools let AI agents list
environments, launch and terminate runtimes, manage snapshots and inspect
the current identity.`,
	RunE: mcpServeCmdFunc,
}

func init() {
	mcpServeCmd.Flags().String("host", "127.0.0.1", "Host to bind the MCP server to")
	mcpServeCmd.Flags().String("port", mcpserver.DefaultMCPPort, "Port to bind the MCP server to")
	if err := viper.BindPFlag("mcp.host", mcpServeCmd.Flags().Lookup("host")); err != nil {
		logger.Errorf("failed to bind host flag: %v", err)
	}
	if err := viper.BindPFlag("mcp.port", mcpServeCmd.Flags().Lookup("port")); err != nil {
		logger.Errorf("failed to bind port flag: %v", err)
	}

	mcpCmd.AddCommand(mcpServeCmd)
}

func mcpServeCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	handler, err := mcpserver.NewHandler(config.GetConfig(), viper.GetString("token"))
	if err != nil {
		return fmt.Errorf("failed to create MCP handler: %w", err)
	}

	srv, err := mcpserver.New(ctx, &mcpserver.Config{
		Host: viper.GetString("mcp.host"),
		Port: viper.GetString("mcp.port"),
	}, handler)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
