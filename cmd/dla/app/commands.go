// Package app provides the entry point for the Datalayer command-line
// application.
package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datalayer/datalayer-go/pkg/auth"
	"github.com/datalayer/datalayer-go/pkg/client"
	"github.com/datalayer/datalayer-go/pkg/config"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "dla",
	DisableAutoGenTag: true,
	Short:             "Datalayer (dla) manages remote kernels on the Datalayer platform",
	Long: `Datalayer (dla) is the command-line client for the Datalayer platform.
It logs you in, launches and terminates runtimes (remote Jupyter kernels),
manages snapshots, secrets and API tokens, and can serve the Jupyter server
extension and the MCP tool bridge.`,
	PersistentPreRunE: preRun,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the Datalayer CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().String("run-url", "", "Base URL of the runtimes service")
	rootCmd.PersistentFlags().String("iam-url", "", "Base URL of the IAM service")
	rootCmd.PersistentFlags().String("token", "", "API token (overrides stored credentials)")
	rootCmd.PersistentFlags().StringP("output", "o", FormatText, "Output format (table or json)")

	for _, flag := range []string{"debug", "run-url", "iam-url", "token", "output"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			logger.Errorf("failed to bind %s flag: %v", flag, err)
		}
	}

	// DATALAYER_RUN_URL, DATALAYER_TOKEN and friends work without flags.
	viper.SetEnvPrefix("DATALAYER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(newEnvironmentsCommand())
	rootCmd.AddCommand(newRuntimesCommand())
	rootCmd.AddCommand(newSnapshotsCommand())
	rootCmd.AddCommand(newSecretsCommand())
	rootCmd.AddCommand(newTokensCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)

	return rootCmd
}

// preRun loads the persistent configuration and applies flag overrides
// before any subcommand runs.
func preRun(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrCreateConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags beat the config file.
	if url := viper.GetString("run-url"); url != "" {
		cfg.RunURL = url
	}
	if url := viper.GetString("iam-url"); url != "" {
		cfg.IAMURL = url
	}

	config.SetSingletonConfig(cfg)
	return nil
}

// newAuthManager builds the credential manager for the current invocation.
func newAuthManager() (*auth.Manager, error) {
	return auth.NewManager(config.GetConfig(), viper.GetString("token"))
}

// newAPIClient builds an API client wired to the credential chain.
func newAPIClient() (*client.Client, error) {
	manager, err := newAuthManager()
	if err != nil {
		return nil, err
	}
	return manager.APIClient()
}
