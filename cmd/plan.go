package cmd

import (
	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var planCfg = actions.PlanConfig{OutputFormat: actions.OutputFormatYAML}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the pipeline tasks and jobs without running them",
	Long: `Print the pipeline definition, including the typed load and query jobs
with their SQL, as YAML or JSON. Nothing is connected to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		planCfg.Writer = cmd.OutOrStdout()
		planCfg.FromEnv = twelveFactorMode
		return actions.RunPlan(&planCfg)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().SortFlags = false
	switches.addFlag(planCmd, &planCfg.ConfigFile, "config", "", false, "")
	_ = planCmd.MarkFlagFilename("config", "json", "yaml", "yml")
	switches.addFlag(planCmd, &planCfg.OutputFormat, "output", actions.OutputFormatYAML, false, "")
	planCmd.SilenceUsage = true
}
