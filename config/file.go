package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile loads configuration values from a file. Files ending in .yaml or
// .yml are parsed as YAML with nested sections flattened to dotted keys;
// anything else uses the key = value format (one per line, # for comments).
// A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return loadConf(path)
	}
}

func loadConf(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

func loadYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	values := make(map[string]string)
	flatten("", tree, values)
	return values, nil
}

// flatten turns {churn: {count: 5}} into {"churn.count": "5"}.
func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// ApplyFileConfig applies file configuration to a Config struct. Keys are
// applied in sorted order so errors are reported deterministically.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := setConfigValue(cfg, key, values[key]); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))

	// RPC endpoints
	case "wallet.url", "wallet-rpc":
		cfg.Wallet.URL = value
	case "wallet.timeout":
		cfg.Wallet.Timeout, err = parseDuration(value)
	case "daemon.url", "daemon-rpc":
		cfg.Daemon.URL = value
	case "daemon.timeout":
		cfg.Daemon.Timeout, err = parseDuration(value)

	// Churn scheduling
	case "churn.count", "churns":
		cfg.Churn.Count, err = strconv.Atoi(value)
		cfg.Churn.CountSet = true
	case "churn.lower":
		cfg.Churn.Lower, err = strconv.Atoi(value)
	case "churn.upper":
		cfg.Churn.Upper, err = strconv.Atoi(value)
	case "churn.dryrun":
		cfg.Churn.DryRun = parseBool(value)
	case "churn.quick":
		cfg.Churn.Quick = parseBool(value)
	case "churn.wait_lower":
		cfg.Churn.WaitLower, err = parseDuration(value)
	case "churn.wait_upper":
		cfg.Churn.WaitUpper, err = parseDuration(value)
	case "churn.quick_lower":
		cfg.Churn.QuickLower, err = parseDuration(value)
	case "churn.quick_upper":
		cfg.Churn.QuickUpper, err = parseDuration(value)
	case "churn.unlock_floor":
		cfg.Churn.AddUnlockFloor = parseBool(value)
	case "churn.unlock_floor_duration":
		cfg.Churn.UnlockFloor, err = parseDuration(value)
	case "churn.pacing":
		cfg.Churn.Pacing, err = parseDuration(value)

	// Sweep policy
	case "sweep.priority":
		cfg.Sweep.Priority, err = parseUint32(value)
	case "sweep.ringsize":
		cfg.Sweep.RingSize, err = parseUint32(value)

	case "cache.backend":
		cfg.Cache.Backend = strings.ToLower(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return err
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseDuration accepts Go duration strings ("20m", "500ms") or a bare
// number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err
}
