// Package app provides the application initialization and wiring.
package app

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigEnvVar names a config file when --config is not given.
const ConfigEnvVar = EnvPrefix + "_CONFIG"

// DefaultDataDir is ~/.previewgate, or /var/lib/previewgate without a home.
func DefaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".previewgate")
	}
	return "/var/lib/previewgate"
}

// ConfigureViper points v at configPath, then $PREVIEWGATE_CONFIG, then a
// previewgate.toml searched in ./, ~/.config/previewgate and /etc/previewgate.
func ConfigureViper(v *viper.Viper, configPath string) {
	if configPath == "" {
		configPath = os.Getenv(ConfigEnvVar)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName("previewgate")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/previewgate")
	v.AddConfigPath("/etc/previewgate")
}
