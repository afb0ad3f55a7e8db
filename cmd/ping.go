package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the target database is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := reg.Ping(cmd.Context(), target); err != nil {
			return err
		}
		fmt.Printf("%s is reachable\n", target.Dialect)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(pingCmd)
}
