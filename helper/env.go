package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/relloyd/salespipe/constants"
)

// ReadValueFromEnv will read the env var and populate the supplied val.
// If the env var is not set then return an error.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v != "" { // if the environment variable was set...
		*val = v
		return nil
	}
	return fmt.Errorf("value for environment variable %v not found", name)
}

// ReadValueFromEnvWithDefault will read the value of name from the environment into v.
// If it's not set then it will apply the supplied defaultValue and return v.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	_ = ReadValueFromEnv(name, &v)
	if v == "" && defaultValue != "" {
		v = defaultValue
	}
	return
}

// EnvVarName converts name into an environment variable using EnvVarPrefix and the name converted to upper
// with dashes and dots converted to underscores all separated by underscores.
// For example "warehouse.project-id" becomes SP_WAREHOUSE_PROJECT_ID.
func EnvVarName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", ".", "_").Replace(n)
	return fmt.Sprintf("%v_%v", constants.EnvVarPrefix, n)
}
