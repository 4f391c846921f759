package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calhub/calendar-service-go/internal/config"
	"github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
)

func NewTestConfig() *config.Config {
	return &config.Config{
		GinMode:                         "test",
		JwtSecret:                       "test-secret",
		UserTokenExpiry:                 3600,
		OauthStateTokenExpiry:           600,
		ExchangeCodeExpiry:              60,
		GoogleClientId:                  "test-client-id",
		GoogleClientSecret:              "test-client-secret",
		GoogleRedirectUri:               "http://localhost:8080/callback",
		FrontendUrl:                     "http://localhost:3000",
		CredentialsKey:                  "test-credentials-key-0123456789",
		RedisURL:                        "",
		IsRedisEnabled:                  false,
		NotificationTimeoutInSec:        2,
		ProviderTimeoutInSec:            2,
		OpenAIModel:                     "test-model",
		RateLimiterDurationInSec:        60,
		RateLimiterRequestLimit:         1000,
		RateLimiterCleanupIntervalInSec: 300,
	}
}

func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func NewTestDependency(cfg *config.Config, db *gorm.DB, redis *redis.Client, logger *slog.Logger) *dependency.Dependency {
	if cfg == nil {
		cfg = NewTestConfig()
	}
	if logger == nil {
		logger = NewTestLogger()
	}
	if redis != nil {
		cfg.IsRedisEnabled = true
		if cfg.RedisURL == "" {
			cfg.RedisURL = "redis://test"
		}
	}
	return dependency.NewDependency(cfg, db, redis, logger)
}

// NewTestDB opens an in-memory sqlite database private to the calling test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Sanitize test name for use as DB identifier
	dbName := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on"

	myDB, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to db: %v", err)
	}

	if err := db.Migrate(myDB); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	sqlDB, err := myDB.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	t.Cleanup(func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	return myDB
}

// CreateGoogleAccount inserts a primary account.
func CreateGoogleAccount(t *testing.T, myDB *gorm.DB, userID, email, name string) *db.Account {
	t.Helper()

	email = strings.ToLower(email)
	account := db.Account{
		UserID:        userID,
		Provider:      db.ProviderGoogle,
		ExternalEmail: &email,
		Metadata:      datatypes.NewJSONType(db.AccountMetadata{Name: name}),
	}
	if err := gorm.G[db.Account](myDB).Create(context.Background(), &account); err != nil {
		t.Fatalf("failed to create account, err: %v", err)
	}
	return &account
}

// CreateLinkedAccount inserts a secondary account under primaryUserID.
func CreateLinkedAccount(t *testing.T, myDB *gorm.DB, primaryUserID, provider, userID, email string) *db.Account {
	t.Helper()

	email = strings.ToLower(email)
	account := db.Account{
		UserID:        userID,
		Provider:      provider,
		ExternalEmail: &email,
		PrimaryUserID: &primaryUserID,
	}
	if err := gorm.G[db.Account](myDB).Create(context.Background(), &account); err != nil {
		t.Fatalf("failed to create linked account, err: %v", err)
	}
	return &account
}

func NewMiddlewareTestRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares...)
	r.POST("/middleware-test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}
