package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can read flag values from the environment instead.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" {
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else {
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	defaultCommand         = "run"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
)

// sensitiveEnvVars are logged obfuscated.
var sensitiveEnvVars = map[string]struct{}{
	c.EnvVarPrefix + "_WAREHOUSE_DSN": {},
}

type twelveFactorAction struct {
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"run": {
		runnerFunc: func() error {
			runCfg.FromEnv = true
			runCfg.StackDumpOnPanic = stackDumpOnPanic
			return actions.RunOnce(&runCfg)
		},
	},
	"schedule": {
		runnerFunc: func() error {
			scheduleCfg.FromEnv = true
			scheduleCfg.StackDumpOnPanic = stackDumpOnPanic
			return actions.RunScheduler(&scheduleCfg)
		},
	},
	"plan": {
		runnerFunc: func() error {
			planCfg.FromEnv = true
			return actions.RunPlan(&planCfg)
		},
	},
}

// execute12FactorMode runs the action named by envVarCommand, or a single run if it is unset.
// Command flags were already populated from the environment by addFlag.
func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "info")
	log := logger.NewLogger(c.ServiceName, logLevel, stackDumpOnPanic)
	log.Info("salespipe is running in 12 Factor mode...")
	logTwelveFactorEnv(log)
	command := strings.ToLower(helper.ReadValueFromEnvWithDefault(envVarCommand, defaultCommand))
	if lambdaMode && command == "schedule" {
		err = fmt.Errorf("command %q is not supported in lambda mode; use a scheduled trigger with command %q instead", command, defaultCommand)
		log.Error(err.Error())
		return
	}
	a, ok := acts[command]
	if !ok {
		err = fmt.Errorf("invalid command %q, use one of: %v", command, strings.Join(actionNames(acts), ", "))
		log.Error(err.Error())
		return
	}
	if err = a.runnerFunc(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}

// logTwelveFactorEnv logs the pipeline variables that are set.
func logTwelveFactorEnv(log logger.Logger) {
	for _, k := range config.EnvVarNames(c.EnvVarPrefix) {
		v, ok := os.LookupEnv(k)
		if !ok {
			continue
		}
		if _, sensitive := sensitiveEnvVars[k]; sensitive {
			v = "<obfuscated>"
		}
		log.Debug(k, "=", v)
	}
}

func actionNames(acts map[string]twelveFactorAction) []string {
	retval := make([]string, 0, len(acts))
	for k := range acts {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}
