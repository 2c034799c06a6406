package cmd

import (
	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var scheduleCfg = actions.ScheduleConfig{RunConfig: actions.RunConfig{LogLevel: "info"}}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on its cron schedule",
	Long: `Run the pipeline on its cron schedule until interrupted.
Missed intervals are not replayed and runs never overlap. When dependsOnPast
is set, scheduled runs are skipped until the previous run succeeds.
Optionally start a web service to monitor runs and trigger them by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduleCfg.StackDumpOnPanic = stackDumpOnPanic
		scheduleCfg.FromEnv = twelveFactorMode
		return actions.RunScheduler(&scheduleCfg)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().SortFlags = false
	switches.addFlag(scheduleCmd, &scheduleCfg.ConfigFile, "config", "", false, "")
	_ = scheduleCmd.MarkFlagFilename("config", "json", "yaml", "yml")
	switches.addFlag(scheduleCmd, &scheduleCfg.WithWebService, "web-service", "", false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.Server.Addr, "address", "0.0.0.0", false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.Server.Port, "port", "8080", false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.LogLevel, "log-level", "info", false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.OutputDir, "output-dir", "", false, "")
	scheduleCmd.SilenceUsage = true
}
