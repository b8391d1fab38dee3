package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/client"
)

var (
	tokensFormat     string
	tokenDescription string
	tokenExpiresIn   time.Duration
)

func newTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage API tokens",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your API tokens",
		RunE:  listTokensCmdFunc,
	}
	listCmd.Flags().StringVar(&tokensFormat, "format", "", "Output format (table or json, defaults to --output)")

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an API token",
		Args:  cobra.ExactArgs(1),
		RunE:  createTokenCmdFunc,
	}
	createCmd.Flags().StringVar(&tokenDescription, "description", "", "Description for the token")
	createCmd.Flags().DurationVar(&tokenExpiresIn, "expires-in", 0, "Token lifetime, e.g. 720h (default no expiry)")

	deleteCmd := &cobra.Command{
		Use:     "delete [uid]",
		Aliases: []string{"rm"},
		Short:   "Delete an API token",
		Args:    cobra.ExactArgs(1),
		RunE:    deleteTokenCmdFunc,
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(createCmd)
	cmd.AddCommand(deleteCmd)
	return cmd
}

func listTokensCmdFunc(cmd *cobra.Command, _ []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	tokens, err := c.Tokens.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	if outputFormat(tokensFormat) == FormatJSON {
		return printJSONOutput(tokens)
	}

	if len(tokens) == 0 {
		fmt.Println("No tokens found")
		return nil
	}

	rows := make([][]string, 0, len(tokens))
	for _, token := range tokens {
		rows = append(rows, []string{
			token.UID,
			token.Name,
			token.Description,
			formatTimestamp(token.ExpiredAt),
		})
	}
	return renderTable([]string{"UID", "Name", "Description", "Expires"}, rows)
}

func createTokenCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	spec := client.TokenSpec{
		Name:        args[0],
		Description: tokenDescription,
	}
	if tokenExpiresIn > 0 {
		spec.ExpirationDate = time.Now().Add(tokenExpiresIn)
	}

	created, err := c.Tokens.Create(cmd.Context(), spec)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	// The raw value is only available at creation time.
	name := args[0]
	if created.Token != nil {
		name = created.Token.Name
	}
	fmt.Printf("Token %s created\n", name)
	fmt.Printf("Value (store it now, it will not be shown again): %s\n", created.Value)
	return nil
}

func deleteTokenCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := c.Tokens.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	fmt.Printf("Token %s deleted\n", args[0])
	return nil
}
