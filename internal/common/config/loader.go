package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// both the binary and package tests pick up local overrides.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "district-concierge"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9100"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Pipeline.MaxQueryLen == 0 {
		cfg.Pipeline.MaxQueryLen = 500
	}
	if cfg.Pipeline.Classifier.EntityConfidence == 0 {
		cfg.Pipeline.Classifier.EntityConfidence = 0.8
	}
	if cfg.Pipeline.Classifier.SystemConfidence == 0 {
		cfg.Pipeline.Classifier.SystemConfidence = 0.8
	}
	if cfg.Pipeline.Classifier.CatalogConfidence == 0 {
		cfg.Pipeline.Classifier.CatalogConfidence = 0.7
	}
	if cfg.Pipeline.Classifier.ChatConfidence == 0 {
		cfg.Pipeline.Classifier.ChatConfidence = 0.5
	}
	if cfg.Pipeline.Matcher.RequiredWeight == 0 {
		cfg.Pipeline.Matcher.RequiredWeight = 10
	}
	if cfg.Pipeline.Matcher.OptionalWeight == 0 {
		cfg.Pipeline.Matcher.OptionalWeight = 1
	}
	if cfg.Pipeline.Matcher.MaxResults == 0 {
		cfg.Pipeline.Matcher.MaxResults = 10
	}
	if cfg.Pipeline.FAQ.Threshold == 0 {
		cfg.Pipeline.FAQ.Threshold = 0.6
	}
	if cfg.Pipeline.FAQ.TokenWeight == 0 {
		cfg.Pipeline.FAQ.TokenWeight = 0.4
	}
	if cfg.Pipeline.FAQ.LevenshteinWeight == 0 {
		cfg.Pipeline.FAQ.LevenshteinWeight = 0.3
	}
	if cfg.Pipeline.FAQ.DomainWeight == 0 {
		cfg.Pipeline.FAQ.DomainWeight = 0.3
	}
	if cfg.Pipeline.FAQ.SynonymWeightFloor == 0 {
		cfg.Pipeline.FAQ.SynonymWeightFloor = 0.7
	}
	if cfg.Pipeline.Selector.MaxDisplay == 0 {
		cfg.Pipeline.Selector.MaxDisplay = 3
	}
	if cfg.Pipeline.Catalog.QueryTimeout == 0 {
		cfg.Pipeline.Catalog.QueryTimeout = 2000
	}
	if cfg.Pipeline.Catalog.CacheTTL == 0 {
		cfg.Pipeline.Catalog.CacheTTL = 300
	}

	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 5000
	}
	if cfg.GenAI.MaxRetries == 0 {
		cfg.GenAI.MaxRetries = 1
	}
	if cfg.GenAI.MaxTokens == 0 {
		cfg.GenAI.MaxTokens = 512
	}
	if cfg.GenAI.Temperature == 0 {
		cfg.GenAI.Temperature = 0.3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	faq := cfg.Pipeline.FAQ
	sum := faq.TokenWeight + faq.LevenshteinWeight + faq.DomainWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("pipeline.faq weights must sum to 1.0, got %.2f", sum)
	}
	if faq.Threshold <= 0 || faq.Threshold > 1 {
		return fmt.Errorf("pipeline.faq.threshold must be in (0,1]")
	}

	return nil
}
