package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// config is the optional config.toml. Flags override file values.
type config struct {
	PricingFile   string `toml:"pricing_file"`
	OutDir        string `toml:"out_dir"`
	ClientVersion string `toml:"client_version"`
	Redact        bool   `toml:"redact"`
	Compact       string `toml:"compact"`
	LogLevel      string `toml:"log_level"`
	ClaudeDir     string `toml:"claude_dir"`
}

// defaultConfigPath returns $XDG_CONFIG_HOME/unitrans/config.toml, falling
// back to the platform config directory.
func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "unitrans", "config.toml")
}

// loadConfig reads the config file at path. With an empty path the default
// location is used and a missing file yields the zero config; an explicit
// path must exist.
func loadConfig(path string) (config, error) {
	var cfg config
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
