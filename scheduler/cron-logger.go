package scheduler

import (
	"fmt"
	"strings"

	"github.com/relloyd/salespipe/logger"
)

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: ", msg, formatKeysAndValues(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: ", msg, formatKeysAndValues(keysAndValues), ": ", err)
}

func formatKeysAndValues(keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return ""
	}
	var sb strings.Builder
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		if idx+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, " %v=%v", keysAndValues[idx], keysAndValues[idx+1])
		} else {
			fmt.Fprintf(&sb, " %v", keysAndValues[idx])
		}
	}
	return sb.String()
}
