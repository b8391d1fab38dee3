package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginHandle    string
	loginPassword  string
	loginToken     string
	loginNoBrowser bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the Datalayer platform",
	Long: `Log in to the Datalayer platform and store the credential.

With no flags, a browser window is opened for the platform login page.
Use --handle to log in with a handle and password, or --token to store an
existing API token.`,
	RunE: loginCmdFunc,
}

func init() {
	loginCmd.Flags().StringVar(&loginHandle, "handle", "", "Log in with this handle (prompts for the password)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password for --handle (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Store this API token instead of logging in")
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
}

func loginCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	manager, err := newAuthManager()
	if err != nil {
		return err
	}

	switch {
	case loginToken != "":
		user, err := manager.LoginWithToken(ctx, loginToken)
		if err != nil {
			return fmt.Errorf("failed to log in with token: %w", err)
		}
		fmt.Printf("Logged in as %s\n", user.DisplayName())

	case loginHandle != "":
		password := loginPassword
		if password == "" {
			password, err = promptPassword()
			if err != nil {
				return err
			}
		}
		result, err := manager.Login(ctx, loginHandle, password)
		if err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		name := loginHandle
		if result.User != nil {
			name = result.User.DisplayName()
		}
		fmt.Printf("Logged in as %s\n", name)

	default:
		user, err := manager.LoginWithBrowser(ctx, loginNoBrowser)
		if err != nil {
			return fmt.Errorf("browser login failed: %w", err)
		}
		fmt.Printf("Logged in as %s\n", user.DisplayName())
	}

	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
