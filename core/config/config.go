package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"data-loader/core/database"
	"data-loader/core/logger"
	"data-loader/core/metrics"
	"data-loader/core/reconcile"
	"data-loader/core/server"
	"data-loader/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional configuration file looked up next to the .env file.
const FileName = "loader"

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage serving sources and reports.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Reconcile holds the batching settings of the engine.
	Reconcile reconcile.Config `mapstructure:"reconcile"`
	// Metrics holds configuration for run metrics.
	Metrics metrics.Config `mapstructure:"metrics"`
}

// LoadConfig builds the configuration of the directory at path. Values are
// resolved, highest first, from the environment, the .env file, the optional
// loader.yaml file and the `default` struct tags.
func LoadConfig(path string) (*Config, error) {
	envPath := ".env"
	if path != "." {
		envPath = path + "/.env"
	}

	// A missing .env file is fine (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s.yaml: %w", FileName, err)
		}
	}

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can work with. Server settings are
// checked by the start command only.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverMySQL, database.DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %s or %s, got %q", database.DriverMySQL, database.DriverSQLite, c.Database.Driver)
	}
	if c.Reconcile.ChunkSize <= 0 {
		return fmt.Errorf("reconcile.chunk_size must be positive, got %d", c.Reconcile.ChunkSize)
	}
	if c.Reconcile.ProgressInterval <= 0 {
		return fmt.Errorf("reconcile.progress_interval must be positive, got %d", c.Reconcile.ProgressInterval)
	}
	return nil
}

// registerDefaults walks the struct type and sets the `default` tag of every
// leaf as the viper default of its dotted `mapstructure` key.
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, field.Type, key)
			continue
		}

		// Registered even when empty so AutomaticEnv resolves the key
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
