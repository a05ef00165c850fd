// Package config loads hexwar settings from defaults, an optional JSON file
// and HEXWAR_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "hexwar.cfg.json"

// Config is the typed view of every setting.
type Config struct {
	LogLevel string     `json:"logLevel" mapstructure:"logLevel"`
	DB       DBConfig   `json:"db" mapstructure:"db"`
	API      APIConfig  `json:"api" mapstructure:"api"`
	Map      MapConfig  `json:"map" mapstructure:"map"`
	Army     ArmyConfig `json:"army" mapstructure:"army"`
}

// DBConfig locates the scenario database.
type DBConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// APIConfig configures the HTTP server. An empty AdminKey leaves POST
// endpoints open. SaveRate is the number of saves allowed per client per
// minute.
type APIConfig struct {
	Port     int    `json:"port" mapstructure:"port"`
	AdminKey string `json:"adminKey" mapstructure:"adminKey"`
	SaveRate int    `json:"saveRate" mapstructure:"saveRate"`
}

// MapConfig drives the generator when no scenario is loaded. Seed 0 picks a
// random seed.
type MapConfig struct {
	Radius   int    `json:"radius" mapstructure:"radius"`
	Seed     int64  `json:"seed" mapstructure:"seed"`
	Scenario string `json:"scenario" mapstructure:"scenario"`
}

// ArmyConfig points at an army definition file. Empty uses the built-in army.
type ArmyConfig struct {
	File string `json:"file" mapstructure:"file"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("db.path", "hexwar.db")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.adminKey", "")
	viper.SetDefault("api.saveRate", 6)
	viper.SetDefault("map.radius", 12)
	viper.SetDefault("map.seed", 0)
	viper.SetDefault("map.scenario", "")
	viper.SetDefault("army.file", "")
}

// Load reads the configuration. configDir may be empty, and a missing file is
// not an error; a malformed one is.
func Load(configDir string) (Config, error) {
	setDefaults()

	viper.SetEnvPrefix("HEXWAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configDir != "" {
		viper.SetConfigName(FileName)
		viper.SetConfigType("json")
		viper.AddConfigPath(configDir)
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch {
	case c.API.Port < 0 || c.API.Port > 65535:
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	case c.API.SaveRate < 1:
		return fmt.Errorf("api.saveRate must be positive, got %d", c.API.SaveRate)
	case c.Map.Radius < 1:
		return fmt.Errorf("map.radius must be positive, got %d", c.Map.Radius)
	case c.DB.Path == "":
		return errors.New("db.path is empty")
	}
	return nil
}

// ConfigFile returns the file viper read, or "".
func ConfigFile() string {
	return viper.ConfigFileUsed()
}
