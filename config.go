package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads option defaults from a YAML mapping. Lists become
// comma separated values and nested mappings (headers) become JSON.
func LoadConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config '%s': %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse config '%s': %w", path, err)
	}

	opts := make(map[string]string, len(doc))
	for key, value := range doc {
		s, err := configValueString(value)
		if err != nil {
			return nil, fmt.Errorf("config '%s': key %q: %w", path, key, err)
		}
		opts[key] = s
	}
	return opts, nil
}

func configValueString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, err := configValueString(item)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return strings.Join(items, ","), nil
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// BuildRawOptions layers built-in defaults, the optional config file named by
// the "config" key and the command line options, in increasing priority.
// An option that ends up with an empty value, such as a bare "--vwidth",
// keeps its built-in default.
func BuildRawOptions(cmdline map[string]string) (map[string]string, error) {
	builtin := DefaultOptions()
	defaults := builtin
	if path := cmdline["config"]; path != "" {
		fileOpts, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		defaults = MergeOptions(defaults, fileOpts)
	}

	merged := MergeOptions(defaults, cmdline)
	for key, value := range builtin {
		if merged[key] == "" {
			merged[key] = value
		}
	}
	return merged, nil
}

func parseCustomHeaders(headersJSON string) (map[string]string, error) {
	var headers map[string]string
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	return headers, nil
}
