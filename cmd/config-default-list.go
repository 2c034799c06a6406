package cmd

import (
	"fmt"

	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	"github.com/spf13/cobra"
)

var configDefaultListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print all default flag values",
	Long:    fmt.Sprintf("Print all default flag values stored in config file %q", config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actions.RunDefaultList(config.Main, cmd.OutOrStdout())
	},
}

func init() {
	defaultCmd.AddCommand(configDefaultListCmd)
}
