package cmd

import (
	"fmt"

	"db-hub/internal/engine"
	"db-hub/internal/schema"

	"github.com/spf13/cobra"
)

var databasesCmd = &cobra.Command{
	Use:     "databases",
	Aliases: []string{"db"},
	Short:   "List, create, drop and select databases",
}

var databasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user databases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := schema.NewInspector(reg).ListDatabases(cmd.Context(), target)
		return renderNames(names, "DATABASE")
	},
}

var databasesCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.NewLifecycle(reg).Create(cmd.Context(), target, args[0]); err != nil {
			return err
		}
		fmt.Printf("Created database %s\n", args[0])
		return nil
	},
}

var databasesDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Drop a database, disconnecting other sessions where needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.NewLifecycle(reg).Drop(cmd.Context(), target, args[0]); err != nil {
			return err
		}
		fmt.Printf("Dropped database %s\n", args[0])
		return nil
	},
}

var databasesSelectCmd = &cobra.Command{
	Use:   "select NAME",
	Short: "Switch the dialect's connection to another database and verify it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.NewLifecycle(reg).Select(cmd.Context(), target.Dialect, args[0]); err != nil {
			return err
		}
		if err := reg.Ping(cmd.Context(), target); err != nil {
			return err
		}
		fmt.Printf("Using database %s (pass --database %s to keep it)\n", reg.Database(target.Dialect), args[0])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(databasesCmd)
	databasesCmd.AddCommand(databasesListCmd, databasesCreateCmd, databasesDropCmd, databasesSelectCmd)
}
