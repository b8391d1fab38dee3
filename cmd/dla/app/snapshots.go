package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datalayer/datalayer-go/pkg/client"
)

var (
	snapshotsFormat     string
	snapshotName        string
	snapshotDescription string
	snapshotStop        bool
	restoreEnvironment  string
	restoreGivenName    string
)

func newSnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage runtime snapshots",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your snapshots",
		RunE:  listSnapshotsCmdFunc,
	}
	listCmd.Flags().StringVar(&snapshotsFormat, "format", "", "Output format (table or json, defaults to --output)")

	createCmd := &cobra.Command{
		Use:   "create [pod-name]",
		Short: "Snapshot the state of a running runtime",
		Args:  cobra.ExactArgs(1),
		RunE:  createSnapshotCmdFunc,
	}
	createCmd.Flags().StringVar(&snapshotName, "name", "", "Name for the snapshot")
	createCmd.Flags().StringVar(&snapshotDescription, "description", "", "Description for the snapshot")
	createCmd.Flags().BoolVar(&snapshotStop, "stop", false, "Stop the runtime after the snapshot is taken")

	deleteCmd := &cobra.Command{
		Use:     "delete [uid]",
		Aliases: []string{"rm"},
		Short:   "Delete a snapshot",
		Args:    cobra.ExactArgs(1),
		RunE:    deleteSnapshotCmdFunc,
	}

	restoreCmd := &cobra.Command{
		Use:   "restore [uid]",
		Short: "Create a new runtime from a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  restoreSnapshotCmdFunc,
	}
	restoreCmd.Flags().StringVar(&restoreEnvironment, "environment", "", "Override the environment to restore into")
	restoreCmd.Flags().StringVar(&restoreGivenName, "name", "", "Human-readable name for the new runtime")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(createCmd)
	cmd.AddCommand(deleteCmd)
	cmd.AddCommand(restoreCmd)
	return cmd
}

func listSnapshotsCmdFunc(cmd *cobra.Command, _ []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	snapshots, err := c.Snapshots.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if outputFormat(snapshotsFormat) == FormatJSON {
		return printJSONOutput(snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots found")
		return nil
	}

	rows := make([][]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		rows = append(rows, []string{
			snapshot.UID,
			snapshot.Name,
			snapshot.Environment,
			formatTimestamp(snapshot.UpdatedAt),
		})
	}
	return renderTable([]string{"UID", "Name", "Environment", "Updated"}, rows)
}

func createSnapshotCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	snapshot, err := c.Snapshots.Create(cmd.Context(), client.SnapshotSpec{
		PodName:     args[0],
		Name:        snapshotName,
		Description: snapshotDescription,
		Stop:        snapshotStop,
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	fmt.Printf("Snapshot %s (%s) created\n", snapshot.Name, snapshot.UID)
	return nil
}

func deleteSnapshotCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := c.Snapshots.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	fmt.Printf("Snapshot %s deleted\n", args[0])
	return nil
}

func restoreSnapshotCmdFunc(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	runtime, err := c.Snapshots.Restore(cmd.Context(), args[0], client.RuntimeSpec{
		EnvironmentName: restoreEnvironment,
		GivenName:       restoreGivenName,
	})
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	fmt.Printf("Runtime %s restored from snapshot %s\n", runtime.PodName, args[0])
	return nil
}
