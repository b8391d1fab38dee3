package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/client"
)

var (
	runtimesFormat      string
	runtimeGivenName    string
	runtimeCreditsLimit float64
)

func newRuntimesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runtimes",
		Short: "Manage runtimes (remote kernels)",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your running runtimes",
		RunE:  listRuntimesCmdFunc,
	}
	listCmd.Flags().StringVar(&runtimesFormat, "format", "", "Output format (table or json, defaults to --output)")

	createCmd := &cobra.Command{
		Use:   "create [environment]",
		Short: "Create a runtime from an environment",
		Args:  cobra.ExactArgs(1),
		RunE:  createRuntimeCmdFunc,
	}
	createCmd.Flags().StringVar(&runtimeGivenName, "name", "", "Human-readable name for the runtime")
	createCmd.Flags().Float64Var(&runtimeCreditsLimit, "credits-limit", 0, "Credits budget for the runtime")

	getCmd := &cobra.Command{
		Use:   "get [pod-name]",
		Short: "Show a runtime",
		Args:  cobra.ExactArgs(1),
		RunE:  getRuntimeCmdFunc,
	}

	terminateCmd := &cobra.Command{
		Use:     "terminate [pod-name]",
		Aliases: []string{"rm"},
		Short:   "Terminate a runtime",
		Args:    cobra.ExactArgs(1),
		RunE:    terminateRuntimeCmdFunc,
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(createCmd)
	cmd.AddCommand(getCmd)
	cmd.AddCommand(terminateCmd)
	return cmd
}

func listRuntimesCmdFunc(cmd *cobra.Command, _ []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	runtimes, err := c.Runtimes.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runtimes: %w", err)
	}

	if outputFormat(runtimesFormat) == FormatJSON {
		return printJSONOutput(runtimes)
	}

	if len(runtimes) == 0 {
		fmt.Println("No runtimes found")
		return nil
	}

	rows := make([][]string, 0, len(runtimes))
	for _, runtime := range runtimes {
		rows = append(rows, []string{
			runtime.PodName,
			runtime.GivenName,
			runtime.EnvironmentName,
			formatTimestamp(runtime.ExpiredAt),
		})
	}
	return renderTable([]string{"Pod Name", "Name", "Environment", "Expires"}, rows)
}

func createRuntimeCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	runtime, err := c.Runtimes.Create(cmd.Context(), client.RuntimeSpec{
		EnvironmentName: args[0],
		GivenName:       runtimeGivenName,
		CreditsLimit:    runtimeCreditsLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}

	fmt.Printf("Runtime %s created in environment %s\n", runtime.PodName, runtime.EnvironmentName)
	if runtime.IngressURL != "" {
		fmt.Printf("Ingress: %s\n", runtime.IngressURL)
	}
	return nil
}

func getRuntimeCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	runtime, err := c.Runtimes.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get runtime: %w", err)
	}
	return printJSONOutput(runtime)
}

func terminateRuntimeCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := c.Runtimes.Terminate(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to terminate runtime: %w", err)
	}
	fmt.Printf("Runtime %s terminated\n", args[0])
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
