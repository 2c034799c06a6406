package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// ApplyEnv overlays environment variables onto p.
// Variable names are the prefix plus the section and field in upper snake case,
// for example SP_STORAGE_BUCKET or SP_SCHEDULE_RETRY_DELAY.
func ApplyEnv(p *Pipeline, prefix string) error {
	input := envMap(reflect.TypeOf(*p), prefix)
	if len(input) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToDurationHook,
		WeaklyTypedInput: true,
		Result:           p,
	})
	if err != nil {
		return err
	}
	if err = dec.Decode(input); err != nil {
		return fmt.Errorf("error reading pipeline config from environment: %v", err)
	}
	return nil
}

// EnvVarNames lists the environment variables understood by ApplyEnv.
func EnvVarNames(prefix string) []string {
	retval := make([]string, 0)
	var walk func(t reflect.Type, namePrefix string)
	walk = func(t reflect.Type, namePrefix string) {
		for idx := 0; idx < t.NumField(); idx++ {
			f := t.Field(idx)
			name := namePrefix + "_" + camelToUpperSnake(f.Tag.Get("mapstructure"))
			if isSection(f.Type) {
				walk(f.Type, name)
			} else {
				retval = append(retval, name)
			}
		}
	}
	walk(reflect.TypeOf(Pipeline{}), prefix)
	return retval
}

// envMap builds the nested map that mapstructure decodes, containing only variables that are set.
func envMap(t reflect.Type, namePrefix string) map[string]interface{} {
	m := make(map[string]interface{})
	for idx := 0; idx < t.NumField(); idx++ {
		f := t.Field(idx)
		key := f.Tag.Get("mapstructure")
		name := namePrefix + "_" + camelToUpperSnake(key)
		if isSection(f.Type) {
			if sub := envMap(f.Type, name); len(sub) > 0 {
				m[key] = sub
			}
		} else if v, ok := os.LookupEnv(name); ok {
			m[key] = v
		}
	}
	return m
}

func isSection(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != reflect.TypeOf(Duration{})
}

func camelToUpperSnake(s string) string {
	var b strings.Builder
	for idx, r := range s {
		if unicode.IsUpper(r) && idx > 0 {
			b.WriteRune('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func stringToDurationHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if t != reflect.TypeOf(Duration{}) || f.Kind() != reflect.String {
		return data, nil
	}
	d, err := time.ParseDuration(data.(string))
	if err != nil {
		return nil, err
	}
	return Duration{d}, nil
}
