package config

import (
	"log/slog"
	"os"
	"strconv"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

type AppConfig struct {
	RedditClientID     string
	RedditClientSecret string // empty for installed apps
	RedditRedirectPort int
	ListingURL         string
	UserAgent          string
	DurationPermanent  bool

	KeycloakClientID     string
	KeycloakClientSecret string
	KeycloakRealm        string
	KeycloakURL          string

	PostgresURL         string
	EnableArchive       bool
	EnablePolling       bool
	PollIntervalSeconds int
	ProxyURL            string

	AppEnv   string // EnvDevelopment or EnvProduction
	LogLevel slog.Level
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	cfg.AppEnv = os.Getenv("APP_ENV")
	cfg.RedditClientID = loadRequired("REDDIT_CLIENT_ID")
	cfg.RedditClientSecret = loadOptional("REDDIT_CLIENT_SECRET", "")
	cfg.RedditRedirectPort = loadOptionalInt("REDDIT_REDIRECT_PORT", 1337)
	cfg.ListingURL = loadOptional("REDDIT_LISTING_URL", "https://oauth.reddit.com/hot")
	cfg.UserAgent = loadOptional("USER_AGENT", "threadfeed.api/1.0")
	cfg.DurationPermanent = loadOptionalBool("REDDIT_DURATION_PERMANENT", false)

	cfg.KeycloakClientID = loadRequired("KEYCLOAK_CLIENT_ID")
	cfg.KeycloakClientSecret = loadRequired("KEYCLOAK_CLIENT_SECRET")
	cfg.KeycloakRealm = loadRequired("KEYCLOAK_REALM")
	cfg.KeycloakURL = loadRequired("KEYCLOAK_URL")

	cfg.EnableArchive = loadOptionalBool("ENABLE_ARCHIVE", false)
	if cfg.EnableArchive {
		cfg.PostgresURL = loadRequired("POSTGRES_URL")
	}
	cfg.EnablePolling = loadOptionalBool("ENABLE_POLLING", false)
	cfg.PollIntervalSeconds = loadOptionalInt("POLL_INTERVAL_SECONDS", 300)
	cfg.ProxyURL = loadOptional("PROXY_URL", "")

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func loadOptionalInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Invalid int env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func loadOptionalBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		slog.Error("Invalid bool env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func (c AppConfig) IsProduction() bool {
	return Config.AppEnv == EnvProduction
}
