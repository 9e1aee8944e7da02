package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// DefaultPrefix is the prefix of recognised environment variables.
const DefaultPrefix = "SHELLPANE_"

// EnvLoader loads configuration from environment variables.
//
// A variable named PREFIX_SECTION_KEY sets key in section, so
// SHELLPANE_OPS_MAX_CONCURRENT=4 sets ops.max_concurrent. Variables in
// the mapping are taken as-is.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "SHELLPANE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom reads variables from env instead of the process
// environment.
func NewEnvLoaderFrom(prefix string, env []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = func() []string { return env }
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "SHELL":     "shell.program",
		prefix + "LOG_LEVEL": "logging.level",
		prefix + "LOG_FILE":  "logging.file",
		prefix + "LAYOUT":    "ui.layout",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load returns a map of every prefixed variable. Empty values are kept.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, ok := l.mapping[name]
		if !ok {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}
	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}

// envToPath converts SHELLPANE_SEARCH_MAX_FILE_SIZE to search.max_file_size
// and SHELLPANE_KEYS_BIND_QUIT to keys.bind.quit. A name without a key part
// yields "".
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	if section == "keys" {
		if cmd, ok := strings.CutPrefix(key, "bind_"); ok && cmd != "" {
			// command names use dashes: SHELLPANE_KEYS_BIND_PAGE_UP is page-up
			return "keys.bind." + strings.ReplaceAll(cmd, "_", "-")
		}
	}
	return section + "." + key
}

// parseValue guesses the type of s: bool, integer, float, JSON array or
// object, or string.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// Only with a decimal point, to avoid misinterpreting ints
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
