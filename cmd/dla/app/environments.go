package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var environmentsFormat string

func newEnvironmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "environments",
		Aliases: []string{"envs"},
		Short:   "Manage compute environments",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the available compute environments",
		RunE:  listEnvironmentsCmdFunc,
	}
	listCmd.Flags().StringVar(&environmentsFormat, "format", "", "Output format (table or json, defaults to --output)")

	cmd.AddCommand(listCmd)
	return cmd
}

func listEnvironmentsCmdFunc(cmd *cobra.Command, _ []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	environments, err := c.Environments.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list environments: %w", err)
	}

	if outputFormat(environmentsFormat) == FormatJSON {
		return printJSONOutput(environments)
	}

	if len(environments) == 0 {
		fmt.Println("No environments found")
		return nil
	}

	rows := make([][]string, 0, len(environments))
	for _, env := range environments {
		rows = append(rows, []string{
			env.Name,
			env.Title,
			env.Language,
			strconv.FormatFloat(env.BurnRate, 'f', -1, 64),
		})
	}
	return renderTable([]string{"Name", "Title", "Language", "Burn Rate"}, rows)
}
