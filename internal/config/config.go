// Package config loads the backend configuration from the environment
// and an optional .env file.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port            string
	APIURL          string // Base URL the API is reachable at, used for response links
	DBFile          string // sqlite database file. models.Connect switches to postgres when DB_HOST is set
	RedisURL        string // Optional, enables the dashboard figure cache
	StorageDir      string // Root directory of the approval file store
	ForecastPushURL string // Spreadsheet sync endpoint, fire and forget
}

// Load reads the configuration from a .env file (if present) and the
// environment. Environment variables take precedence.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}

	dbFile := viper.GetString("DB_FILE")
	if dbFile == "" {
		dbFile = "data/gorm.db"
	}

	storageDir := viper.GetString("STORAGE_DIR")
	if storageDir == "" {
		storageDir = "data/files"
	}

	return &Config{
		Port:            port,
		APIURL:          viper.GetString("API_URL"),
		DBFile:          dbFile,
		RedisURL:        viper.GetString("REDIS_URL"),
		StorageDir:      storageDir,
		ForecastPushURL: viper.GetString("FORECAST_PUSH_URL"),
	}, nil
}
