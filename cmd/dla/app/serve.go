package app

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/api"
	"github.com/datalayer/datalayer-go/pkg/config"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Datalayer server extension",
	Long: `Run the HTTP server extension that Jupyter-style frontends talk to.
It exposes health, configuration, login, platform proxy and AI chat
endpoints under /api/datalayer.`,
	RunE: serveCmdFunc,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "127.0.0.1:2111", "Address to listen on")
}

func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	manager, err := newAuthManager()
	if err != nil {
		return err
	}

	return api.Serve(ctx, serveAddress, config.GetConfig(), manager)
}
