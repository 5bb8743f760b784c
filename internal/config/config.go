package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"model-training-step/internal/core/domain"
)

const (
	TrackingOffline  = "offline"
	TrackingMLflow   = "mlflow"
	TrackingPostgres = "postgres"

	RegistryLocal    = "local"
	RegistryHTTP     = "http"
	RegistryPostgres = "postgres"
)

type Config struct {
	Tracking TrackingConfig
	Registry RegistryConfig
	Database DatabaseConfig
	Training TrainingConfig
	Logger   LoggerConfig
}

type TrackingConfig struct {
	Backend    string
	RunID      string
	Experiment string
	Dir        string
	URL        string
	Timeout    time.Duration
}

type RegistryConfig struct {
	Backend               string
	URL                   string
	ProjectID             string
	Timeout               time.Duration
	ModelFramework        string
	ModelFrameworkVersion string
	ModelDescription      string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type TrainingConfig struct {
	OutputDir string
}

type LoggerConfig struct {
	Level  string
	Format string
}

// UsesDatabase reports whether any backend needs a Postgres pool.
func (c *Config) UsesDatabase() bool {
	return c.Tracking.Backend == TrackingPostgres || c.Registry.Backend == RegistryPostgres
}

func Load() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("TRACKING_BACKEND", TrackingOffline)
	v.SetDefault("TRACKING_RUN_ID", "")
	v.SetDefault("TRACKING_EXPERIMENT", "Default")
	v.SetDefault("TRACKING_DIR", ".runs")
	v.SetDefault("TRACKING_URL", "http://localhost:5000")
	v.SetDefault("TRACKING_TIMEOUT", "30s")
	v.SetDefault("REGISTRY_BACKEND", RegistryLocal)
	v.SetDefault("REGISTRY_URL", "http://localhost:8080")
	v.SetDefault("REGISTRY_PROJECT_ID", "")
	v.SetDefault("REGISTRY_TIMEOUT", "30s")
	v.SetDefault("REGISTRY_MODEL_FRAMEWORK", "custom")
	v.SetDefault("REGISTRY_MODEL_FRAMEWORK_VERSION", "0")
	v.SetDefault("REGISTRY_MODEL_DESCRIPTION", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_NAME", "tracking")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("TRAINING_OUTPUT_DIR", domain.DefaultOutputDir)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "text")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Tracking: TrackingConfig{
			Backend:    strings.ToLower(v.GetString("TRACKING_BACKEND")),
			RunID:      v.GetString("TRACKING_RUN_ID"),
			Experiment: v.GetString("TRACKING_EXPERIMENT"),
			Dir:        v.GetString("TRACKING_DIR"),
			URL:        strings.TrimRight(v.GetString("TRACKING_URL"), "/"),
			Timeout:    duration(v, "TRACKING_TIMEOUT", 30*time.Second),
		},
		Registry: RegistryConfig{
			Backend:               strings.ToLower(v.GetString("REGISTRY_BACKEND")),
			URL:                   strings.TrimRight(v.GetString("REGISTRY_URL"), "/"),
			ProjectID:             v.GetString("REGISTRY_PROJECT_ID"),
			Timeout:               duration(v, "REGISTRY_TIMEOUT", 30*time.Second),
			ModelFramework:        v.GetString("REGISTRY_MODEL_FRAMEWORK"),
			ModelFrameworkVersion: v.GetString("REGISTRY_MODEL_FRAMEWORK_VERSION"),
			ModelDescription:      v.GetString("REGISTRY_MODEL_DESCRIPTION"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: duration(v, "DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Training: TrainingConfig{
			OutputDir: v.GetString("TRAINING_OUTPUT_DIR"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	switch cfg.Tracking.Backend {
	case TrackingOffline, TrackingMLflow, TrackingPostgres:
	default:
		return nil, fmt.Errorf("%w: TRACKING_BACKEND=%q", domain.ErrUnknownBackend, cfg.Tracking.Backend)
	}
	switch cfg.Registry.Backend {
	case RegistryLocal, RegistryHTTP, RegistryPostgres:
	default:
		return nil, fmt.Errorf("%w: REGISTRY_BACKEND=%q", domain.ErrUnknownBackend, cfg.Registry.Backend)
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
