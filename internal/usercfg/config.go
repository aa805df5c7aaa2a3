package usercfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lexboard/internal/errors"

	"github.com/BurntSushi/toml"
)

// ErrNotConfigured is returned when no config file exists and no env vars are set.
var ErrNotConfigured = fmt.Errorf("lexboard is not configured; run: lexboard setup")

// IsConfigured returns true if a config file exists or essential env vars are set.
func IsConfigured() bool {
	if os.Getenv("LEXBOARD_SERVER_URL") != "" && os.Getenv("LEXBOARD_BOARD") != "" {
		return true
	}
	configPath := Path()
	legacyPath := LegacyPath()
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return true
		}
	}
	if legacyPath != "" {
		if _, err := os.Stat(legacyPath); err == nil {
			return true
		}
	}
	return false
}

type Config struct {
	SchemaVersion int           `toml:"schema_version,omitempty"`
	ServerURL     string        `toml:"server_url"`
	Email         string        `toml:"email"`
	APIToken      string        `toml:"api_token,omitempty"`
	Board         string        `toml:"board"`
	PollSeconds   int           `toml:"poll_seconds"`
	AbandonCycles int           `toml:"abandon_cycles,omitempty"`
	UIPrefs       UIPreferences `toml:"ui_prefs,omitempty"`
}

type UIPreferences struct {
	LastFilter      string `toml:"last_filter,omitempty"`
	ColumnWidths    []int  `toml:"column_widths,omitempty"`
	LastSelectedCol int    `toml:"last_selected_col,omitempty"`
	FuzzySearch     bool   `toml:"fuzzy_search,omitempty"`
	ShowCardNumbers bool   `toml:"show_card_numbers,omitempty"`
}

const CurrentSchemaVersion = 1

func Path() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	// Prefer XDG-compliant path: ~/.config/lexboard/config.toml
	return filepath.Join(homeDir, ".config", "lexboard", "config.toml")
}

func LegacyPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	// Legacy path for backward compatibility
	return filepath.Join(homeDir, ".config", "lexboard.toml")
}

func Load() (Config, error) {
	configPath := Path()
	legacyPath := LegacyPath()

	if configPath == "" || legacyPath == "" {
		return getDefaults(), errors.NewConfigError("load", fmt.Errorf("unable to determine home directory"))
	}

	var actualPath string
	var warnLegacy bool

	// Check XDG-compliant path first
	if _, err := os.Stat(configPath); err == nil {
		actualPath = configPath
	} else if _, err := os.Stat(legacyPath); err == nil {
		// Fall back to legacy path if XDG path doesn't exist
		actualPath = legacyPath
		warnLegacy = true
	} else {
		// Neither path exists -- not configured
		return getDefaults(), ErrNotConfigured
	}

	var config Config
	if _, err := toml.DecodeFile(actualPath, &config); err != nil {
		return getDefaults(), errors.NewConfigError("load", fmt.Errorf("failed to decode config file: %v", err))
	}

	// Warn about legacy path usage (once per load)
	if warnLegacy {
		fmt.Fprintf(os.Stderr, "Warning: Using legacy config path %s. Consider moving to %s\n", legacyPath, configPath)
	}

	// Apply migrations if needed
	migratedConfig := migrateConfig(config)

	return mergeWithDefaults(migratedConfig), nil
}

func Save(config Config) error {
	configPath := Path()
	if configPath == "" {
		return fmt.Errorf("unable to determine home directory")
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}

	return nil
}

func GetRuntimeConfig() Config {
	config, err := Load()
	if err != nil && err != ErrNotConfigured {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		config = getDefaults()
	}

	// Apply environment variable overlays
	return applyEnvOverlays(config)
}

func mergeWithDefaults(config Config) Config {
	// Always ensure we have the current schema version
	config.SchemaVersion = CurrentSchemaVersion

	if config.PollSeconds <= 0 {
		config.PollSeconds = DefaultPollSeconds
	}

	if config.AbandonCycles <= 0 {
		config.AbandonCycles = DefaultAbandonCycles
	}

	// ServerURL, Email, Board: left empty if not in config file.
	// The caller must handle empty values (e.g. prompt for lexboard setup).

	return config
}

// PollInterval returns the poll cadence as a duration, clamped to a sane floor
// so a typo in the config cannot hammer the server.
func (c Config) PollInterval() time.Duration {
	seconds := c.PollSeconds
	if seconds <= 0 {
		seconds = DefaultPollSeconds
	}
	if seconds < MinPollSeconds {
		seconds = MinPollSeconds
	}
	return time.Duration(seconds) * time.Second
}

// applyEnvOverlays applies environment variable overlays to the config
func applyEnvOverlays(config Config) Config {
	// LEXBOARD_SERVER_URL: override server base URL
	if v := os.Getenv("LEXBOARD_SERVER_URL"); v != "" {
		config.ServerURL = v
	}

	// LEXBOARD_EMAIL: override account email
	if v := os.Getenv("LEXBOARD_EMAIL"); v != "" {
		config.Email = v
	}

	// LEXBOARD_API_TOKEN: token supplied via environment is never written to disk
	if v := os.Getenv("LEXBOARD_API_TOKEN"); v != "" {
		config.APIToken = v
	}

	// LEXBOARD_BOARD: override board key
	if v := os.Getenv("LEXBOARD_BOARD"); v != "" {
		config.Board = v
	}

	// LEXBOARD_POLL_SECONDS: override poll cadence
	if v := os.Getenv("LEXBOARD_POLL_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			config.PollSeconds = seconds
		}
	}

	return config
}

// migrateConfig performs in-memory migration of config from older schema versions
func migrateConfig(config Config) Config {
	originalVersion := config.SchemaVersion

	// Migration from version 0 (no schema_version field) to version 1
	if originalVersion == 0 {
		// Version 0 configs don't have schema_version field
		// Current structure is already compatible, just need to set version
		config.SchemaVersion = 1

		// Log migration if needed (could be made conditional)
		if config.ServerURL != "" || config.Email != "" || config.Board != "" {
			fmt.Fprintf(os.Stderr, "Info: Migrated config from schema version 0 to %d\n", config.SchemaVersion)
		}
	}

	// Future migrations would go here:
	// if originalVersion < 2 { ... }

	return config
}

// MigrateAndSave loads the config, applies migrations, and saves it back to disk
// This is used by the `lexboard config migrate` command
func MigrateAndSave() error {
	// Load the raw config without going through the full Load() process
	configPath := Path()
	legacyPath := LegacyPath()

	if configPath == "" || legacyPath == "" {
		return fmt.Errorf("unable to determine home directory")
	}

	var actualPath string

	// Check XDG-compliant path first
	if _, err := os.Stat(configPath); err == nil {
		actualPath = configPath
	} else if _, err := os.Stat(legacyPath); err == nil {
		actualPath = legacyPath
	} else {
		return fmt.Errorf("no config file found to migrate")
	}

	var rawConfig Config
	if _, err := toml.DecodeFile(actualPath, &rawConfig); err != nil {
		return fmt.Errorf("failed to decode config file: %v", err)
	}

	originalVersion := rawConfig.SchemaVersion
	if originalVersion == CurrentSchemaVersion {
		return fmt.Errorf("config is already at current schema version %d", CurrentSchemaVersion)
	}

	// Now apply the full Load() process which includes migration and merging
	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load config for migration: %v", err)
	}

	// Save the migrated config
	err = Save(config)
	if err != nil {
		return fmt.Errorf("failed to save migrated config: %v", err)
	}

	fmt.Printf("Successfully migrated config from schema version %d to %d\n", originalVersion, config.SchemaVersion)
	return nil
}

// SaveUIPrefs saves only the UI preferences to the config file
// This is lightweight and can be called frequently without impacting other config values
func SaveUIPrefs(prefs UIPreferences) error {
	config, err := Load()
	if err != nil {
		// Create a minimal config -- don't invent connection settings
		config = Config{
			SchemaVersion: CurrentSchemaVersion,
			PollSeconds:   DefaultPollSeconds,
			AbandonCycles: DefaultAbandonCycles,
		}
	}

	config.UIPrefs = prefs
	return Save(config)
}

// GetUIPrefs returns the current UI preferences from the runtime config
func GetUIPrefs() UIPreferences {
	// Allow ignoring UI prefs via env for troubleshooting
	if os.Getenv("LEXBOARD_IGNORE_UI_PREFS") == "1" {
		return UIPreferences{}
	}
	config := GetRuntimeConfig()
	return config.UIPrefs
}
