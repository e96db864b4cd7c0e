package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the health recorder
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Exercise ExerciseConfig `mapstructure:"exercise"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	RateLimit    int    `mapstructure:"rate_limit"` // requests/sec, 0 disables
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ExerciseConfig holds exercise template settings
type ExerciseConfig struct {
	TemplatePath string `mapstructure:"template_path"`
}

// SecurityConfig holds CORS settings
type SecurityConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "health_records.db"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "health-recorder.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (HEALTHREC_SERVER_PORT, HEALTHREC_EXERCISE_TEMPLATE_PATH, etc.)
	v.SetEnvPrefix("HEALTHREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.rate_limit", 0)

	v.SetDefault("exercise.template_path", "exercise_template.md")

	v.SetDefault("security.allow_origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "health-recorder")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "health-recorder")
}

// loadEnvOverrides loads specific env vars that Viper doesn't handle well after v.Set
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.Server.Address = getEnv("HEALTHREC_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("HEALTHREC_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Storage.DataDir = getEnv("HEALTHREC_STORAGE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.SQLitePath = getEnv("HEALTHREC_STORAGE_SQLITE_PATH", cfg.Storage.SQLitePath)

	cfg.Exercise.TemplatePath = getEnv("HEALTHREC_EXERCISE_TEMPLATE_PATH", cfg.Exercise.TemplatePath)

	if origins := os.Getenv("HEALTHREC_SECURITY_ALLOW_ORIGINS"); origins != "" {
		cfg.Security.AllowOrigins = strings.Split(origins, ",")
	}
}
