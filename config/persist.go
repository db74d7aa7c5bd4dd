package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/kanbu/wikigraph/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	// Check if file exists before backing up
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Log deletion failures (but don't fail config save)
		fmt.Printf("⚠️  Failed to delete old backup %s: %v\n", back3, err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// GetUIConfigPath returns the path to the UI-managed config file in
// ~/.wikigraph/wikigraph_from_ui.toml
func GetUIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wikigraph", "wikigraph_from_ui.toml")
}

// loadOrInitializeUIConfig loads the UI config file, or creates an empty one if it doesn't exist
func loadOrInitializeUIConfig() (map[string]interface{}, string, error) {
	configPath := GetUIConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	// Ensure ~/.wikigraph directory exists
	userDir := filepath.Dir(configPath)
	if err := os.MkdirAll(userDir, 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .wikigraph directory")
	}

	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse UI config")
		}
	} else {
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveUIConfig writes the config to the UI config file with backup
func saveUIConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write UI config")
	}

	return nil
}

// uiSection returns the named section map from the UI config, creating it if absent
func uiSection(config map[string]interface{}, name string) map[string]interface{} {
	if section, ok := config[name].(map[string]interface{}); ok {
		return section
	}
	section := make(map[string]interface{})
	config[name] = section
	return section
}

// UpdateEngineMaxNodes persists the node cap chosen in the UI
func UpdateEngineMaxNodes(maxNodes int) error {
	config, configPath, err := loadOrInitializeUIConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load UI config")
	}

	engine := uiSection(config, "engine")
	engine["max_nodes"] = maxNodes

	return saveUIConfig(config, configPath)
}

// UpdateEngineDepthLimit persists the depth slider position chosen in the UI
func UpdateEngineDepthLimit(depthLimit int) error {
	config, configPath, err := loadOrInitializeUIConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load UI config")
	}

	engine := uiSection(config, "engine")
	engine["depth_limit"] = depthLimit

	return saveUIConfig(config, configPath)
}

// UpdatePhysics persists force-simulation tuning chosen in the UI
func UpdatePhysics(charge, linkDistance, linkStrength float64) error {
	config, configPath, err := loadOrInitializeUIConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load UI config")
	}

	engine := uiSection(config, "engine")
	var physics map[string]interface{}
	if p, ok := engine["physics"].(map[string]interface{}); ok {
		physics = p
	} else {
		physics = make(map[string]interface{})
	}
	physics["charge_strength"] = charge
	physics["link_distance"] = linkDistance
	physics["link_strength"] = linkStrength
	engine["physics"] = physics

	return saveUIConfig(config, configPath)
}
