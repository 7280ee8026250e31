// Package config loads the daemon's TOML configuration file
// (spec.md §6, default "${HOME}/.lotab/config.toml") and validates the
// fields the broker and transports need at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the daemon's startup configuration.
type Config struct {
	// UiToggleKeybind must contain both CMD and SHIFT tokens once
	// upper-cased (spec.md §6). Invalid values abort startup.
	UiToggleKeybind string `toml:"UiToggleKeybind"`

	// UdsSocketPath is where the GUI-UDS server binds. Not named in the
	// distilled spec's field list but required for the server to bind
	// anywhere concrete (SPEC_FULL.md §A.2).
	UdsSocketPath string `toml:"UdsSocketPath"`

	// ExtensionWsPort is the TCP port the extension-WS server listens on.
	ExtensionWsPort int `toml:"ExtensionWsPort"`

	// AllowedBrowserID optionally activates the identity filter
	// (spec.md §4.7); the --allowed-browser-id flag overrides this.
	AllowedBrowserID string `toml:"AllowedBrowserID"`
}

const (
	defaultKeybind = "CMD+SHIFT+J"
	defaultPort    = 7755
)

// Default returns the configuration used when no file is present, and
// the base that a file's fields override.
func Default() Config {
	return Config{
		UiToggleKeybind: defaultKeybind,
		UdsSocketPath:   defaultSocketPath(),
		ExtensionWsPort: defaultPort,
	}
}

// DefaultPath returns "${HOME}/.lotab/config.toml".
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".lotab", "config.toml"), nil
}

func defaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/lotab-daemon.sock"
	}
	return filepath.Join(home, ".lotab", "daemon.sock")
}

// Load reads and parses the TOML file at path, filling in defaults for
// any field left unset, then validates it. A missing file is not an
// error — Default() is returned unchanged (spec.md §6: only an invalid
// value aborts startup, not an absent file).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// Decode into a fresh struct so zero-valued TOML fields don't
	// clobber defaults already set above.
	var parsed struct {
		UiToggleKeybind  *string `toml:"UiToggleKeybind"`
		UdsSocketPath    *string `toml:"UdsSocketPath"`
		ExtensionWsPort  *int    `toml:"ExtensionWsPort"`
		AllowedBrowserID *string `toml:"AllowedBrowserID"`
	}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if parsed.UiToggleKeybind != nil {
		cfg.UiToggleKeybind = *parsed.UiToggleKeybind
	}
	if parsed.UdsSocketPath != nil {
		cfg.UdsSocketPath = *parsed.UdsSocketPath
	}
	if parsed.ExtensionWsPort != nil {
		cfg.ExtensionWsPort = *parsed.ExtensionWsPort
	}
	if parsed.AllowedBrowserID != nil {
		cfg.AllowedBrowserID = *parsed.AllowedBrowserID
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fatal-init constraints from spec.md §6: the
// keybind, upper-cased, must contain both "CMD" and "SHIFT".
func Validate(cfg Config) error {
	upper := strings.ToUpper(cfg.UiToggleKeybind)
	if !strings.Contains(upper, "CMD") || !strings.Contains(upper, "SHIFT") {
		return fmt.Errorf("config: UiToggleKeybind %q must contain both CMD and SHIFT", cfg.UiToggleKeybind)
	}
	return nil
}
