package cmd

import (
	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var runCfg = actions.RunConfig{LogLevel: "info"}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the pipeline once",
	Long: `Execute every task of the pipeline once, in order, with retries.
The exit status is 1 unless the run succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runCfg.StackDumpOnPanic = stackDumpOnPanic
		runCfg.FromEnv = twelveFactorMode
		return actions.RunOnce(&runCfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	switches.addFlag(runCmd, &runCfg.ConfigFile, "config", "", false, "")
	_ = runCmd.MarkFlagFilename("config", "json", "yaml", "yml")
	switches.addFlag(runCmd, &runCfg.LogLevel, "log-level", "info", false, "")
	switches.addFlag(runCmd, &runCfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
	switches.addFlag(runCmd, &runCfg.OutputDir, "output-dir", "", false, "")
	runCmd.SilenceUsage = true
}
