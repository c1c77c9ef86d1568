package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AssetsConfig points at the curated language-asset registry (keyword
// families, synonym table, blacklist). Empty path means embedded defaults.
type AssetsConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig carries the hand-tuned constants of the pipeline. All of
// them are configurable rather than hard-coded; the defaults match the
// values the catalog team tuned by hand and are flagged for re-tuning.
type PipelineConfig struct {
	Classifier  ClassifierConfig `mapstructure:"classifier"`
	Matcher     MatcherConfig    `mapstructure:"matcher"`
	FAQ         FAQConfig        `mapstructure:"faq"`
	Selector    SelectorConfig   `mapstructure:"selector"`
	Catalog     CatalogConfig    `mapstructure:"catalog"`
	MaxQueryLen int              `mapstructure:"max_query_len"` // runes
}

type ClassifierConfig struct {
	EntityConfidence  float64 `mapstructure:"entity_confidence"`
	SystemConfidence  float64 `mapstructure:"system_confidence"`
	CatalogConfidence float64 `mapstructure:"catalog_confidence"`
	ChatConfidence    float64 `mapstructure:"chat_confidence"`
}

type MatcherConfig struct {
	RequiredWeight float64 `mapstructure:"required_weight"`
	OptionalWeight float64 `mapstructure:"optional_weight"`
	MaxResults     int     `mapstructure:"max_results"`
}

type FAQConfig struct {
	Threshold          float64 `mapstructure:"threshold"`
	TokenWeight        float64 `mapstructure:"token_weight"`
	LevenshteinWeight  float64 `mapstructure:"levenshtein_weight"`
	DomainWeight       float64 `mapstructure:"domain_weight"`
	SynonymWeightFloor float64 `mapstructure:"synonym_weight_floor"`
}

type SelectorConfig struct {
	MaxDisplay int `mapstructure:"max_display"`
}

type CatalogConfig struct {
	QueryTimeout int `mapstructure:"query_timeout"` // milliseconds
	CacheTTL     int `mapstructure:"cache_ttl"`     // seconds
}

type GenAIConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
