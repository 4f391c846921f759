package config

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	GinMode                         string
	DbAddress                       string
	JwtSecret                       string
	UserTokenExpiry                 int
	OauthStateTokenExpiry           int
	ExchangeCodeExpiry              int
	GoogleClientId                  string
	GoogleClientSecret              string
	GoogleRedirectUri               string
	FrontendUrl                     string
	CredentialsKey                  string
	RedisURL                        string
	IsRedisEnabled                  bool
	SendGridAPIKey                  string
	SendGridBaseURL                 string
	SendGridFromEmail               string
	SendGridFromName                string
	NotificationTimeoutInSec        int
	OpenAIAPIKey                    string
	OpenAIModel                     string
	OpenAIBaseURL                   string
	OutlookBrokerURL                string
	OutlookBrokerAPIKey             string
	ProviderTimeoutInSec            int
	RateLimiterDurationInSec        int
	RateLimiterRequestLimit         int
	RateLimiterCleanupIntervalInSec int
}

func getEnvStrOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	return value
}

func getEnvStrOrError(key string) (string, error) {
	value := os.Getenv(key)

	if value == "" {
		return "", errors.New("environment variable " + key + " is required but not set")
	}

	return value, nil
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)

	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func LoadConfigFromEnv() (*Config, error) {
	jwtSecret, err := getEnvStrOrError("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	googleClientId, err := getEnvStrOrError("GOOGLE_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	googleClientSecret, err := getEnvStrOrError("GOOGLE_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}

	credentialsKey, err := getEnvStrOrError("CREDENTIALS_KEY")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GinMode:                         getEnvStrOrDefault("GIN_MODE", "debug"),
		DbAddress:                       getEnvStrOrDefault("DB_ADDRESS", "data/calendar_service_db.sqlite"),
		JwtSecret:                       jwtSecret,
		UserTokenExpiry:                 getEnvIntOrDefault("USER_TOKEN_EXPIRY", 86400),
		OauthStateTokenExpiry:           getEnvIntOrDefault("OAUTH_STATE_TOKEN_EXPIRY", 600),
		ExchangeCodeExpiry:              getEnvIntOrDefault("EXCHANGE_CODE_EXPIRY", 60),
		GoogleClientId:                  googleClientId,
		GoogleClientSecret:              googleClientSecret,
		GoogleRedirectUri:               getEnvStrOrDefault("GOOGLE_REDIRECT_URI", "http://localhost:3003/api/auth/google/callback"),
		FrontendUrl:                     getEnvStrOrDefault("FRONTEND_URL", "http://localhost:5173"),
		CredentialsKey:                  credentialsKey,
		RedisURL:                        getEnvStrOrDefault("REDIS_URL", ""),
		IsRedisEnabled:                  getEnvStrOrDefault("REDIS_URL", "") != "",
		SendGridAPIKey:                  getEnvStrOrDefault("SENDGRID_API_KEY", ""),
		SendGridBaseURL:                 getEnvStrOrDefault("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		SendGridFromEmail:               getEnvStrOrDefault("SENDGRID_FROM_EMAIL", "no-reply@calhub.app"),
		SendGridFromName:                getEnvStrOrDefault("SENDGRID_FROM_NAME", "CalHub"),
		NotificationTimeoutInSec:        getEnvIntOrDefault("NOTIFICATION_TIMEOUT", 10),
		OpenAIAPIKey:                    getEnvStrOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:                     getEnvStrOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:                   getEnvStrOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		OutlookBrokerURL:                getEnvStrOrDefault("OUTLOOK_BROKER_URL", "https://api.us.nylas.com"),
		OutlookBrokerAPIKey:             getEnvStrOrDefault("OUTLOOK_BROKER_API_KEY", ""),
		ProviderTimeoutInSec:            getEnvIntOrDefault("PROVIDER_TIMEOUT", 15),
		RateLimiterDurationInSec:        getEnvIntOrDefault("RATE_LIMITER_DURATION", 60),
		RateLimiterRequestLimit:         getEnvIntOrDefault("RATE_LIMITER_REQUEST_LIMIT", 1000),
		RateLimiterCleanupIntervalInSec: getEnvIntOrDefault("RATE_LIMITER_CLEANUP_INTERVAL", 300),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	if c.GinMode != "debug" && c.GinMode != "release" && c.GinMode != "test" {
		return errors.New("GIN_MODE must be one of debug, release, test")
	}

	if len(c.CredentialsKey) < 16 {
		return errors.New("CREDENTIALS_KEY must be at least 16 characters")
	}

	if c.UserTokenExpiry <= 0 || c.OauthStateTokenExpiry <= 0 || c.ExchangeCodeExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}

	if c.RateLimiterRequestLimit <= 0 {
		return errors.New("RATE_LIMITER_REQUEST_LIMIT must be positive")
	}

	return nil
}
