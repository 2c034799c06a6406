package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	om "github.com/cevaris/ordered_map"
	h "github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
)

// Record is used to communicate data between components.
// Fields keep the order in which they were first set so CSV columns line up with the table schema.
type Record struct {
	data *om.OrderedMap // raw data values, which can represent nulls as nil interfaces.
}

// NewRecord creates a new Record and returns it by value as we expect these records to go over channels by value too.
func NewRecord() Record {
	return Record{data: om.NewOrderedMap()}
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data.Set(name, value)
}

// GetData returns the value of field name and panics if it does not exist.
func (sr Record) GetData(name string) interface{} {
	val, ok := sr.GetDataOk(name)
	if !ok {
		panic(fmt.Sprintf("invalid key name %q supplied while trying to fetch value from record with keys %v", name, sr.GetDataKeys()))
	}
	return val
}

// GetDataOk returns the value of field name and whether it exists.
func (sr Record) GetDataOk(name string) (interface{}, bool) {
	if sr.data == nil {
		return nil, false
	}
	return sr.data.Get(name)
}

func (sr Record) GetDataLen() int {
	if sr.data == nil {
		return 0
	}
	return sr.data.Len()
}

// GetDataKeys returns field names in insertion order.
func (sr Record) GetDataKeys() []string {
	keys := make([]string, 0, sr.GetDataLen())
	if sr.data == nil {
		return keys
	}
	iter := sr.data.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		keys = append(keys, kv.Key.(string))
	}
	return keys
}

// GetDataAsString will convert the value of field name to a string.
func (sr Record) GetDataAsString(log logger.Logger, name string) string {
	v, ok := sr.GetDataOk(name)
	if !ok {
		log.Panic(fmt.Sprintf("unexpected field %q does not exist in the input stream", name))
	}
	return h.GetStringFromInterface(log, v)
}

// GetDataAsStringSlice returns all values converted to strings in field order.
func (sr Record) GetDataAsStringSlice(log logger.Logger) []string {
	keys := sr.GetDataKeys()
	retval := make([]string, len(keys))
	for idx, k := range keys {
		retval[idx] = sr.GetDataAsString(log, k)
	}
	return retval
}

// GetDataKeysAsSlice returns the values of the supplied keys converted to strings.
func (sr Record) GetDataKeysAsSlice(log logger.Logger, keys []string) []string {
	retval := make([]string, len(keys))
	for idx, k := range keys {
		retval[idx] = sr.GetDataAsString(log, k)
	}
	return retval
}

// GetJson returns the JSON representation of the record using the supplied keys to fetch the data.
// All fields are used if keys is empty.
func (sr Record) GetJson(log logger.Logger, keys []string) string {
	if len(keys) == 0 {
		keys = sr.GetDataKeys()
	}
	out := make([]string, len(keys))
	for idx, key := range keys {
		jsonValue, err := json.Marshal(sr.GetDataAsString(log, key))
		if err != nil {
			log.Panic("Error marshalling the value of key '", key, "' to JSON")
		}
		out[idx] = fmt.Sprintf("%q: %s", key, string(jsonValue))
	}
	return fmt.Sprintf("{%v}", strings.Join(out, ", "))
}

// Copy returns a new record holding the same fields in the same order.
func (sr Record) Copy() Record {
	retval := NewRecord()
	if sr.data == nil {
		return retval
	}
	iter := sr.data.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval.data.Set(kv.Key, kv.Value)
	}
	return retval
}
