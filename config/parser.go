package config

import (
	"os"
	"reflect"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

// OverwriteFromEnv walks cfg's fields and overwrites any matched by an
// environment variable named prefix + "_" + path, uppercased, with
// underscores separating nested field names — e.g. Cache.Provider is
// overridden by GOBIDS_CACHE_PROVIDER. Adapted from distribution's
// Parser.overwriteFields/overwriteMap (configuration/parser.go),
// dropped down to operate directly on a single struct value instead of
// going through a generic Parser type, since gobids has only the one
// schema to overlay.
func OverwriteFromEnv(cfg *Config, prefix string) error {
	env := map[string]string{}
	for _, e := range os.Environ() {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return overwriteFields(reflect.ValueOf(cfg), prefix, env)
}

func overwriteFields(v reflect.Value, prefix string, env map[string]string) error {
	for v.Kind() == reflect.Ptr {
		v = reflect.Indirect(v)
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			sf := v.Type().Field(i)
			fieldPrefix := strings.ToUpper(prefix + "_" + sf.Name)
			if raw, ok := env[fieldPrefix]; ok {
				fieldVal := reflect.New(sf.Type)
				if err := yaml.Unmarshal([]byte(raw), fieldVal.Interface()); err != nil {
					return err
				}
				v.Field(i).Set(reflect.Indirect(fieldVal))
			}
			if err := overwriteFields(v.Field(i), fieldPrefix, env); err != nil {
				return err
			}
		}
	case reflect.Map:
		return overwriteMap(v, prefix, env)
	}
	return nil
}

func overwriteMap(m reflect.Value, prefix string, env map[string]string) error {
	envKeyPattern, err := regexp.Compile("^" + strings.ToUpper(prefix) + "_([A-Z0-9]+)$")
	if err != nil {
		return err
	}
	for key, raw := range env {
		submatches := envKeyPattern.FindStringSubmatch(key)
		if submatches == nil {
			continue
		}
		mapValue := reflect.New(m.Type().Elem())
		if err := yaml.Unmarshal([]byte(raw), mapValue.Interface()); err != nil {
			return err
		}
		if m.IsNil() {
			m.Set(reflect.MakeMap(m.Type()))
		}
		m.SetMapIndex(reflect.ValueOf(strings.ToLower(submatches[1])), reflect.Indirect(mapValue))
	}
	return nil
}
