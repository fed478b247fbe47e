// Package config loads the optional on-disk defaults described in
// SPEC_FULL.md §A.3: a small YAML file supplying defaults for anything a
// CLI flag can also set. Flags always win; this package only fills in
// what the user left unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the decoded shape of ~/.config/multiselect/config.yaml.
// Zero values mean "not set in the file"; Defaults() fills in the
// program's built-in defaults for anything left zero.
type Config struct {
	Separator     string        `yaml:"separator"`
	ShortInterval time.Duration `yaml:"short_interval"`
	FlashStartup  time.Duration `yaml:"flash_startup"`
	FlashChange   time.Duration `yaml:"flash_change"`
	FlashMessage  time.Duration `yaml:"flash_message"`
	Helper        string        `yaml:"helper"`
}

// Defaults returns the built-in values used when the config file is
// absent or a key is omitted from it (spec §4.2.2, §4.3).
func Defaults() Config {
	return Config{
		Separator:     "",
		ShortInterval: 80 * time.Millisecond,
		FlashStartup:  200 * time.Millisecond,
		FlashChange:   500 * time.Millisecond,
		FlashMessage:  800 * time.Millisecond,
		Helper:        "",
	}
}

// DefaultPath returns ~/.config/multiselect/config.yaml, following the
// teacher's own DefaultConfigPath convention.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "multiselect", "config.yaml"), nil
}

// Load reads and decodes path, merging onto Defaults(). A missing file
// is not an error: it simply yields the built-in defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if file.Separator != "" {
		cfg.Separator = file.Separator
	}
	if file.ShortInterval != 0 {
		cfg.ShortInterval = file.ShortInterval
	}
	if file.FlashStartup != 0 {
		cfg.FlashStartup = file.FlashStartup
	}
	if file.FlashChange != 0 {
		cfg.FlashChange = file.FlashChange
	}
	if file.FlashMessage != 0 {
		cfg.FlashMessage = file.FlashMessage
	}
	if file.Helper != "" {
		cfg.Helper = file.Helper
	}
	return cfg, nil
}

// SeparatorByte returns the configured separator as a single byte (spec
// §3), or 0 if unset. Only the first byte of a multi-byte value is used;
// the rest is ignored, matching the CLI flag's "-t SEP" contract of a
// single byte.
func (c Config) SeparatorByte() byte {
	if len(c.Separator) == 0 {
		return 0
	}
	return c.Separator[0]
}
