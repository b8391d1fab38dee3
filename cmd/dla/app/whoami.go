package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/dlyerr"
	"github.com/datalayer/datalayer-go/pkg/logger"
)

var whoamiFormat string

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the current credential",
	RunE:  whoamiCmdFunc,
}

func init() {
	whoamiCmd.Flags().StringVar(&whoamiFormat, "format", "", "Output format (table or json, defaults to --output)")
}

func whoamiCmdFunc(cmd *cobra.Command, _ []string) error {
	manager, err := newAuthManager()
	if err != nil {
		return err
	}

	user, err := manager.Whoami(cmd.Context())
	if err != nil {
		if dlyerr.IsUnauthenticated(err) {
			return err
		}

		// IAM unreachable; fall back to the token's claims for display.
		claims, claimsErr := manager.OfflineIdentity()
		if claimsErr != nil {
			return err
		}
		logger.Debugf("whoami request failed, using token claims: %v", err)
		if outputFormat(whoamiFormat) == FormatJSON {
			return printJSONOutput(claims)
		}
		if sub, ok := claims["sub"].(string); ok {
			fmt.Printf("Logged in as %s (offline)\n", sub)
		}
		return nil
	}

	if outputFormat(whoamiFormat) == FormatJSON {
		return printJSONOutput(user)
	}

	fmt.Printf("Handle:  %s\n", user.Handle)
	fmt.Printf("Name:    %s\n", user.DisplayName())
	if user.Email != "" {
		fmt.Printf("Email:   %s\n", user.Email)
	}
	if user.Credits > 0 {
		fmt.Printf("Credits: %.2f\n", user.Credits)
	}
	return nil
}
