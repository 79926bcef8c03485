package config

import (
	"os"
	"strconv"

	"gosvca/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Export   ExportConfig
	Analysis AnalysisConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string // empty means run without persistence
}

// ExportConfig holds export output settings
type ExportConfig struct {
	Dir string
}

// AnalysisConfig holds default split parameters applied when a request
// leaves them unset
type AnalysisConfig struct {
	ExclusionDistance float64
	UnitBins          int
	BlockWidth        int
	BoundaryMargin    int
	Seed              int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "exports"),
		},
	}

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}
	cfg.Analysis = *analysis

	if cfg.Server.Port == "" {
		return nil, errors.ConfigInvalid("SERVER_PORT cannot be empty")
	}
	return cfg, nil
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	exclusion, err := getEnvFloat("SVCA_EXCLUSION_DISTANCE", 0)
	if err != nil {
		return nil, err
	}
	unitBins, err := getEnvInt("SVCA_UNIT_BINS", 16)
	if err != nil {
		return nil, err
	}
	blockWidth, err := getEnvInt("SVCA_BLOCK_WIDTH", 60)
	if err != nil {
		return nil, err
	}
	margin, err := getEnvInt("SVCA_BOUNDARY_MARGIN", 0)
	if err != nil {
		return nil, err
	}
	seed, err := getEnvInt("SVCA_SEED", 42)
	if err != nil {
		return nil, err
	}

	if exclusion < 0 {
		return nil, errors.ConfigInvalid("SVCA_EXCLUSION_DISTANCE cannot be negative")
	}
	if unitBins < 2 {
		return nil, errors.ConfigInvalid("SVCA_UNIT_BINS must be at least 2")
	}
	if blockWidth < 1 {
		return nil, errors.ConfigInvalid("SVCA_BLOCK_WIDTH must be positive")
	}

	return &AnalysisConfig{
		ExclusionDistance: exclusion,
		UnitBins:          unitBins,
		BlockWidth:        blockWidth,
		BoundaryMargin:    margin,
		Seed:              int64(seed),
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer")
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be a number")
	}
	return parsed, nil
}
