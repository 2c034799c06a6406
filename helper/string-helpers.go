package helper

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
)

// GetStringFromInterface will convert interface{} value to a string suitable for CSV output.
// Times are written in UTC. Dates without a time component should be passed as strings.
func GetStringFromInterface(log logger.Logger, input interface{}) (retval string) {
	switch v := input.(type) {
	case int, int16, int32, int64, int8, uint8:
		retval = fmt.Sprintf("%d", v)
	case string:
		retval = v
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32) // use 'f' to convert float to string without an exponent.
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		retval = v.UTC().Format(constants.TimeFormatYearSecondsTZ)
	case []uint8:
		retval = string(v)
	case bool:
		retval = strconv.FormatBool(v)
	case nil:
		retval = ""
	default:
		log.Panic("unhandled type while fetching string from interface: type = ", reflect.TypeOf(input), "; value = ", input)
	}
	return
}
