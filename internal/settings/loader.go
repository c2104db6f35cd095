package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docbridge/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir    = ".config/docbridge"
	settingsFileName = "settings.yaml"
)

// GetDefaultConfigPathOrPanic returns the per-user configuration directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// SettingsFilePath returns the settings file within a config directory.
func SettingsFilePath(configPath string) string {
	return filepath.Join(configPath, settingsFileName)
}

// Load reads settings.yaml from the given directory. A missing file yields
// the defaults; a malformed one is an error.
func Load(configPath string) (Settings, error) {
	settingsFilePath := SettingsFilePath(configPath)
	cfg := GetDefaultSettings()

	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("SettingsLoader", "No settings.yaml found at %s, using defaults", settingsFilePath)
			return cfg, nil
		}
		logging.Info("SettingsLoader", "Error loading settings.yaml from %s: %s", settingsFilePath, err)
		return Settings{}, err
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		// settings malformed
		return Settings{}, fmt.Errorf("error loading settings from %s: %w", settingsFilePath, err)
	}
	logging.Info("SettingsLoader", "Loaded settings from %s", settingsFilePath)
	return cfg, nil
}

// Save writes the settings back to disk. Used by the set-build-command and
// select-directory operations, which persist through the same file the
// watcher observes so the resulting restart follows the normal path.
func Save(configPath string, cfg Settings) error {
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configPath, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	settingsFilePath := SettingsFilePath(configPath)
	if err := os.WriteFile(settingsFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings to %s: %w", settingsFilePath, err)
	}
	logging.Info("SettingsLoader", "Saved settings to %s", settingsFilePath)
	return nil
}
