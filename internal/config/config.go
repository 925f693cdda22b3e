// Package config loads scenecheck.toml: logging settings, session limits and
// the per-check option tables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"scenecheck/internal/check"
)

// FileName is the configuration file discovered next to scenes.
const FileName = "scenecheck.toml"

const enabledKey = "enabled"

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SessionConfig holds validation session limits.
type SessionConfig struct {
	// MaxIssues caps the issues stored per check; 0 means unlimited.
	MaxIssues int `toml:"max_issues"`
}

// CheckConfig is one [checks.<id>] table.
type CheckConfig struct {
	Enabled bool
	Options check.Options
}

// Config is the effective configuration after layering a file over Default.
type Config struct {
	// Path is the file the configuration was read from, empty for defaults.
	Path    string
	Log     LogConfig
	Session SessionConfig
	Checks  map[string]CheckConfig
}

type fileConfig struct {
	Log     LogConfig                 `toml:"log"`
	Session SessionConfig             `toml:"session"`
	Checks  map[string]map[string]any `toml:"checks"`
}

// CheckIDs returns the configured check ids, sorted.
func (c *Config) CheckIDs() []string {
	ids := make([]string, 0, len(c.Checks))
	for id := range c.Checks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Check returns the configuration of id.
func (c *Config) Check(id string) (CheckConfig, bool) {
	cc, ok := c.Checks[id]
	if !ok {
		return CheckConfig{}, false
	}
	return CheckConfig{Enabled: cc.Enabled, Options: cc.Options.Clone()}, true
}

// Find walks up from startDir looking for scenecheck.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the configuration nearest to startDir, or Default when
// there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path and layers it over Default, option by option.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML data and layers it over Default.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	meta, err := toml.Decode(string(data), &fc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			if len(k) > 0 && k[0] == "checks" {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			return nil, &check.ConfigError{Reason: "unknown key(s): " + strings.Join(keys, ", ")}
		}
	}

	cfg := Default()
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = fc.Log.Level
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = fc.Log.Format
	}
	if meta.IsDefined("session", "max_issues") {
		if fc.Session.MaxIssues < 0 {
			return nil, &check.ConfigError{Reason: "[session].max_issues must not be negative"}
		}
		cfg.Session.MaxIssues = fc.Session.MaxIssues
	}

	for id, table := range fc.Checks {
		cc, ok := cfg.Checks[id]
		if !ok {
			// Kept so that registry construction can reject it by name.
			cc = CheckConfig{Enabled: true, Options: check.Options{}}
		}
		for key, value := range table {
			if key == enabledKey {
				enabled, ok := value.(bool)
				if !ok {
					return nil, &check.ConfigError{CheckID: id, Reason: fmt.Sprintf("%q must be a boolean, got %T", enabledKey, value)}
				}
				cc.Enabled = enabled
				continue
			}
			cc.Options[key] = value
		}
		cfg.Checks[id] = cc
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		Log:     cfg.Log,
		Session: cfg.Session,
		Checks:  make(map[string]map[string]any, len(cfg.Checks)),
	}
	for id, cc := range cfg.Checks {
		table := make(map[string]any, len(cc.Options)+1)
		for k, v := range cc.Options {
			table[k] = v
		}
		table[enabledKey] = cc.Enabled
		fc.Checks[id] = table
	}
	var buf bytes.Buffer
	buf.WriteString("# scenecheck configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(fc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	data, err := Encode(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
