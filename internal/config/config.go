package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode      string
	Server    ServerConfig
	Fabric    FabricConfig
	Auth      AuthConfig
	Promotion PromotionConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type FabricConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// AuthConfig carries either a static bearer token (the CI case) or the
// service-principal credentials to exchange for one.
type AuthConfig struct {
	StaticToken  string
	TenantID     string
	ClientID     string
	ClientSecret string
	Scope        string
}

type PromotionConfig struct {
	SourceWorkspaceID string
	TargetWorkspaceID string
	RepoPath          string
	FetchConcurrency  int
	ResolveAttempts   int
	ResolveBackoff    time.Duration
	MoveAttempts      int
	MoveBackoff       time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
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
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("MODE", "once")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("FABRIC_BASE_URL", "https://api.fabric.microsoft.com/v1")
	v.SetDefault("FABRIC_TIMEOUT", "30s")
	v.SetDefault("FABRIC_RETRY_ATTEMPTS", 3)
	v.SetDefault("FABRIC_RETRY_BACKOFF", "1s")
	v.SetDefault("AUTH_SCOPE", "https://api.fabric.microsoft.com/.default")
	v.SetDefault("REPO_PATH", "./")
	v.SetDefault("FETCH_CONCURRENCY", 4)
	v.SetDefault("RESOLVE_ATTEMPTS", 5)
	v.SetDefault("RESOLVE_BACKOFF", "2s")
	v.SetDefault("MOVE_ATTEMPTS", 3)
	v.SetDefault("MOVE_BACKOFF", "2s")
	v.SetDefault("DATABASE_ENABLED", false)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "promoter")
	v.SetDefault("DATABASE_NAME", "promoter")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Mode: v.GetString("MODE"),
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Fabric: FabricConfig{
			BaseURL:       v.GetString("FABRIC_BASE_URL"),
			Timeout:       parseDuration(v.GetString("FABRIC_TIMEOUT"), 30*time.Second),
			RetryAttempts: v.GetInt("FABRIC_RETRY_ATTEMPTS"),
			RetryBackoff:  parseDuration(v.GetString("FABRIC_RETRY_BACKOFF"), time.Second),
		},
		Auth: AuthConfig{
			StaticToken:  v.GetString("AUTH_TOKEN"),
			TenantID:     v.GetString("AUTH_TENANT_ID"),
			ClientID:     v.GetString("AUTH_CLIENT_ID"),
			ClientSecret: v.GetString("AUTH_CLIENT_SECRET"),
			Scope:        v.GetString("AUTH_SCOPE"),
		},
		Promotion: PromotionConfig{
			SourceWorkspaceID: v.GetString("SOURCE_WORKSPACE_ID"),
			TargetWorkspaceID: v.GetString("TARGET_WORKSPACE_ID"),
			RepoPath:          v.GetString("REPO_PATH"),
			FetchConcurrency:  v.GetInt("FETCH_CONCURRENCY"),
			ResolveAttempts:   v.GetInt("RESOLVE_ATTEMPTS"),
			ResolveBackoff:    parseDuration(v.GetString("RESOLVE_BACKOFF"), 2*time.Second),
			MoveAttempts:      v.GetInt("MOVE_ATTEMPTS"),
			MoveBackoff:       parseDuration(v.GetString("MOVE_BACKOFF"), 2*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DATABASE_ENABLED"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
