package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and delete the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, err := newAuthManager()
		if err != nil {
			return err
		}
		if err := manager.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}
		fmt.Println("Logged out")
		return nil
	},
}
