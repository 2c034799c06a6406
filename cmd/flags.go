package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name       string // long name
	shortHand  string
	desc       string
	val        string // resolved default value
	fromConfig bool   // val was read from config.Main
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"config": cliFlag{name: "config", shortHand: "c",
		desc: "Pipeline config `<file>` (.yaml or .json) applied over the built-in defaults.\n" +
			"Omit to use the defaults, which need at least a storage bucket and warehouse project"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\""},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Number of seconds between dumping step statistics (use 0 to disable)"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the pipeline definition"},
	"output-dir": cliFlag{name: "output-dir", shortHand: "d",
		desc: "Directory in which to keep the generated CSV file. By default a temporary\n" +
			"directory is used and removed once the file is uploaded"},
	"web-service": cliFlag{name: "web-service", shortHand: "w",
		desc: "Launch a web service to monitor and trigger runs"},
	"address": cliFlag{name: "address", shortHand: "a",
		desc: "Address to listen on"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
}

// addFlag binds targetVar, which must be a pointer, to the registered flag name on command c.
// Values come from the environment in twelveFactorMode, in which case no cobra flag is created.
// Otherwise config.Main supplies the default if it holds the key, else defaultValue is used.
// Supply desc2 to extend the registered description.
func (f cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	sw := f.getCliFlag(name, defaultValue, config.Main.Get)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		*p = sw.val
		if !twelveFactorMode {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		}
	case *bool:
		*p = parseBoolFlag(sw.val)
		if !twelveFactorMode {
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, *p, desc)
		}
	case *int:
		v, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		*p = v
		if !twelveFactorMode {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, v, desc)
		}
	default:
		panic(fmt.Sprintf("unhandled CLI flag target type %T", targetVar))
	}
	if twelveFactorMode {
		return
	}
	if sw.fromConfig { // mark as set so required flags are satisfied by config.
		mustSetFlag(c.Flags(), sw.name, sw.val)
	}
	if required {
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag returns the registered flag name with its value taken from the environment in twelveFactorMode,
// else from fnGetConfig. If neither has a value then defaultValue is used.
func (f cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := f[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode {
		s.val = helper.ReadValueFromEnvWithDefault(helper.EnvVarName(name), defaultValue)
		return s
	}
	if err := fnGetConfig(s.name, &s.val); err != nil || s.val == "" {
		s.val = defaultValue
		return s
	}
	s.fromConfig = true
	return s
}

// parseBoolFlag treats any value that isn't a recognised false value as true.
func parseBoolFlag(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s) != ""
	}
	return b
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
