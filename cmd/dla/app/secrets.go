package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/client"
)

var (
	secretsFormat     string
	secretDescription string
	secretVariant     string
)

func newSecretsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage platform secrets",
		Long: `Manage the secrets injected into your runtimes as environment
variables.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your secrets",
		RunE:  listSecretsCmdFunc,
	}
	listCmd.Flags().StringVar(&secretsFormat, "format", "", "Output format (table or json, defaults to --output)")

	createCmd := &cobra.Command{
		Use:   "create [name] [value]",
		Short: "Create a secret",
		Args:  cobra.ExactArgs(2),
		RunE:  createSecretCmdFunc,
	}
	createCmd.Flags().StringVar(&secretDescription, "description", "", "Description for the secret")
	createCmd.Flags().StringVar(&secretVariant, "variant", "", "Secret variant (default generic)")

	deleteCmd := &cobra.Command{
		Use:     "delete [uid]",
		Aliases: []string{"rm"},
		Short:   "Delete a secret",
		Args:    cobra.ExactArgs(1),
		RunE:    deleteSecretCmdFunc,
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(createCmd)
	cmd.AddCommand(deleteCmd)
	return cmd
}

func listSecretsCmdFunc(cmd *cobra.Command, _ []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	secrets, err := c.Secrets.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}

	if outputFormat(secretsFormat) == FormatJSON {
		return printJSONOutput(secrets)
	}

	if len(secrets) == 0 {
		fmt.Println("No secrets found")
		return nil
	}

	// Values are never returned by the platform, only metadata.
	rows := make([][]string, 0, len(secrets))
	for _, secret := range secrets {
		rows = append(rows, []string{secret.UID, secret.Name, secret.Variant, secret.Description})
	}
	return renderTable([]string{"UID", "Name", "Variant", "Description"}, rows)
}

func createSecretCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	secret, err := c.Secrets.Create(cmd.Context(), client.SecretSpec{
		Name:        args[0],
		Value:       args[1],
		Description: secretDescription,
		Variant:     secretVariant,
	})
	if err != nil {
		return fmt.Errorf("failed to create secret: %w", err)
	}
	fmt.Printf("Secret %s created\n", secret.Name)
	return nil
}

func deleteSecretCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := c.Secrets.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	fmt.Printf("Secret %s deleted\n", args[0])
	return nil
}
