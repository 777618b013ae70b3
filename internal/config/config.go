// Package config loads process configuration from the environment.
// The Config value is built once in cmd/server and injected into every
// component that needs it; nothing reads configuration ambiently.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the chatbot backend.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	SMTP        SMTPConfig
	LDAP        LDAPConfig
	Identity    IdentityConfig
	Classifier  ClassifierConfig
	Embedding   EmbeddingConfig
	Auth        AuthConfig
	Sentry      SentryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds connection settings for the main store and the
// per-group RADIUS stores.
type DatabaseConfig struct {
	// Driver selects the main store driver: "postgres" or "sqlite".
	Driver      string
	DatabaseURL string
	SQLitePath  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string

	// RADIUS group stores are physically separate MySQL databases.
	RadiusStudentsURL string
	RadiusStaffURL    string
}

// RedisConfig holds cache settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SMTPConfig holds mail delivery settings for OTP codes.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LDAPConfig holds the Zoom directory connection settings.
type LDAPConfig struct {
	Host     string
	Port     int
	BindUser string
	BindPass string
	BaseDN   string
}

// IdentityConfig holds the upstream identity API endpoints and tokens,
// one set per user class.
type IdentityConfig struct {
	StaffURL     string
	StaffToken   string
	StudentURL   string
	StudentToken string
	// InsecureSkipVerify disables TLS verification; the institutional API
	// serves a self-signed certificate on some environments.
	InsecureSkipVerify bool
}

// ClassifierConfig holds thresholds and flags for intent resolution.
type ClassifierConfig struct {
	FAQThreshold      float64
	ScrapingThreshold float64
	EnableScraping    bool
	CorpusDir         string
}

// EmbeddingConfig selects the text embedding provider.
type EmbeddingConfig struct {
	// Provider: "ollama" or "genai".
	Provider       string
	OllamaEndpoint string
	OllamaModel    string
	GenAIAPIKey    string
	GenAIModel     string

	// CacheTTL bounds how long query vectors stay memoized, in seconds.
	CacheTTL int
	// Workers and QueueSize size the embedding worker pool.
	Workers   int
	QueueSize int
}

// AuthConfig holds the admin API credentials.
type AuthConfig struct {
	JWTSecret string
}

// SentryConfig holds error reporting settings.
type SentryConfig struct {
	Enabled bool
	DSN     string
}

// Load reads configuration from environment variables (optionally a
// config.yaml in the working directory) and applies defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; only hard-fail on a malformed one.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Environment: v.GetString("environment"),
		LogLevel:    v.GetString("log.level"),
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
		},
		Database: DatabaseConfig{
			Driver:            v.GetString("database.driver"),
			DatabaseURL:       v.GetString("database.url"),
			SQLitePath:        v.GetString("database.sqlite_path"),
			MaxOpenConns:      v.GetInt("database.max_open_conns"),
			MaxIdleConns:      v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:   v.GetString("database.conn_max_lifetime"),
			RadiusStudentsURL: v.GetString("database.radius_students_url"),
			RadiusStaffURL:    v.GetString("database.radius_staff_url"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		LDAP: LDAPConfig{
			Host:     v.GetString("ldap.host"),
			Port:     v.GetInt("ldap.port"),
			BindUser: v.GetString("ldap.user"),
			BindPass: v.GetString("ldap.password"),
			BaseDN:   v.GetString("ldap.base_dn"),
		},
		Identity: IdentityConfig{
			StaffURL:           v.GetString("identity.staff_url"),
			StaffToken:         v.GetString("identity.staff_token"),
			StudentURL:         v.GetString("identity.student_url"),
			StudentToken:       v.GetString("identity.student_token"),
			InsecureSkipVerify: v.GetBool("identity.insecure_skip_verify"),
		},
		Classifier: ClassifierConfig{
			FAQThreshold:      v.GetFloat64("classifier.faq_threshold"),
			ScrapingThreshold: v.GetFloat64("classifier.scraping_threshold"),
			EnableScraping:    v.GetBool("classifier.enable_scraping"),
			CorpusDir:         v.GetString("classifier.corpus_dir"),
		},
		Embedding: EmbeddingConfig{
			Provider:       v.GetString("embedding.provider"),
			OllamaEndpoint: v.GetString("embedding.ollama_endpoint"),
			OllamaModel:    v.GetString("embedding.ollama_model"),
			GenAIAPIKey:    v.GetString("embedding.genai_api_key"),
			GenAIModel:     v.GetString("embedding.genai_model"),
			CacheTTL:       v.GetInt("embedding.cache_ttl"),
			Workers:        v.GetInt("embedding.workers"),
			QueueSize:      v.GetInt("embedding.queue_size"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Sentry: SentryConfig{
			Enabled: v.GetBool("sentry.enabled"),
			DSN:     v.GetString("sentry.dsn"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.sqlite_path", "data/chatbot.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("ldap.port", 389)
	v.SetDefault("classifier.faq_threshold", 0.65)
	v.SetDefault("classifier.scraping_threshold", 0.50)
	v.SetDefault("classifier.enable_scraping", true)
	v.SetDefault("classifier.corpus_dir", "data/scraped")
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.ollama_endpoint", "http://localhost:11434")
	v.SetDefault("embedding.ollama_model", "embeddinggemma")
	v.SetDefault("embedding.genai_model", "gemini-embedding-001")
	v.SetDefault("embedding.cache_ttl", 3600)
	v.SetDefault("embedding.workers", 4)
	v.SetDefault("embedding.queue_size", 64)
	v.SetDefault("sentry.enabled", false)
}

func (c *Config) validate() error {
	if c.Database.Driver == "postgres" && c.Database.DatabaseURL == "" {
		return fmt.Errorf("database.url is required when database.driver is postgres")
	}
	if c.Classifier.FAQThreshold <= 0 || c.Classifier.FAQThreshold > 1 {
		return fmt.Errorf("classifier.faq_threshold must be in (0, 1], got %v", c.Classifier.FAQThreshold)
	}
	if c.Classifier.ScrapingThreshold <= 0 || c.Classifier.ScrapingThreshold > 1 {
		return fmt.Errorf("classifier.scraping_threshold must be in (0, 1], got %v", c.Classifier.ScrapingThreshold)
	}
	return nil
}
