package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/tendant/stepup-auth/pkg/mobiletoken"
	"github.com/tendant/stepup-auth/pkg/msgcatalog"
	"github.com/tendant/stepup-auth/pkg/notification"
	"github.com/tendant/stepup-auth/pkg/operation"
	operationapi "github.com/tendant/stepup-auth/pkg/operation/api"
	"github.com/tendant/stepup-auth/pkg/prefs"
	prefsapi "github.com/tendant/stepup-auth/pkg/prefs/api"
	"github.com/tendant/stepup-auth/pkg/ratelimit"
	"github.com/tendant/stepup-auth/pkg/relay"
	"github.com/tendant/stepup-auth/pkg/smsotp"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

type StepupDbConfig struct {
	Host     string `env:"STEPUP_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"STEPUP_PG_PORT" env-default:"5432"`
	Database string `env:"STEPUP_PG_DATABASE" env-default:"stepup_db"`
	User     string `env:"STEPUP_PG_USER" env-default:"stepup"`
	Password string `env:"STEPUP_PG_PASSWORD" env-default:"pwd"`
}

func (d StepupDbConfig) toDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

type RateLimitConfig struct {
	// Global rate limiting
	GlobalEnabled    bool    `env:"RATELIMIT_GLOBAL_ENABLED" env-default:"true"`
	GlobalCapacity   int     `env:"RATELIMIT_GLOBAL_CAPACITY" env-default:"1000"`
	GlobalRefillRate float64 `env:"RATELIMIT_GLOBAL_REFILL_RATE" env-default:"16.67"` // ~1000 per minute

	// Per-IP rate limiting
	PerIPEnabled    bool    `env:"RATELIMIT_PER_IP_ENABLED" env-default:"true"`
	PerIPCapacity   int     `env:"RATELIMIT_PER_IP_CAPACITY" env-default:"100"`
	PerIPRefillRate float64 `env:"RATELIMIT_PER_IP_REFILL_RATE" env-default:"1.67"` // ~100 per minute

	// Verification endpoint specific limits (to prevent brute force)
	VerifyEnabled    bool    `env:"RATELIMIT_VERIFY_ENABLED" env-default:"true"`
	VerifyCapacity   int     `env:"RATELIMIT_VERIFY_CAPACITY" env-default:"10"`
	VerifyRefillRate float64 `env:"RATELIMIT_VERIFY_REFILL_RATE" env-default:"0.167"` // 10 per minute
}

type Config struct {
	StepupDbConfig  StepupDbConfig
	AppConfig       app.AppConfig
	SmsOtpConfig    smsotp.Config
	TwilioConfig    notification.TwilioConfig
	SMTPConfig      notification.SMTPConfig
	RateLimitConfig RateLimitConfig
	// PersistenceType selects the repository backend: postgres or inmem.
	PersistenceType string `env:"STEPUP_PERSISTENCE_TYPE" env-default:"postgres"`
	DefaultLocale   string `env:"DEFAULT_LOCALE" env-default:"en"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	config := Config{}
	cleanenv.ReadEnv(&config)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	rateLimitMiddleware := createRateLimitMiddleware(&config)
	server.R.Use(rateLimitMiddleware.Handler)

	var pool *pgxpool.Pool
	if config.PersistenceType == "postgres" || config.PersistenceType == "postgresql" {
		dbConfig := config.StepupDbConfig.toDbConfig()
		p, err := dbutils.NewDbPool(context.Background(), dbConfig)
		if err != nil {
			slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
			os.Exit(-1)
		}
		pool = p
	}

	stepRepo, err := stepflow.NewStepDefinitionRepository(config.PersistenceType, stepflow.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating step definition repository", "persistenceType", config.PersistenceType, "err", err)
		os.Exit(-1)
	}
	prefRepo, err := prefs.NewPreferenceRepository(config.PersistenceType, prefs.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating preference repository", "persistenceType", config.PersistenceType, "err", err)
		os.Exit(-1)
	}
	authRepo, err := smsotp.NewAuthorizationRepository(config.PersistenceType, smsotp.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating sms authorization repository", "persistenceType", config.PersistenceType, "err", err)
		os.Exit(-1)
	}
	secretRepo, err := mobiletoken.NewSecretRepository(config.PersistenceType, mobiletoken.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating mobile token secret repository", "persistenceType", config.PersistenceType, "err", err)
		os.Exit(-1)
	}
	operationRepo, err := operation.NewOperationRepository(config.PersistenceType, operation.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating operation repository", "persistenceType", config.PersistenceType, "err", err)
		os.Exit(-1)
	}

	prefService := prefs.NewService(prefRepo)

	resolver := stepflow.NewService(stepRepo, prefService)
	if err := resolver.Reload(context.Background()); err != nil {
		slog.Error("Failed loading step definitions", "err", err)
		os.Exit(-1)
	}

	catalog, err := buildCatalog(config.DefaultLocale)
	if err != nil {
		slog.Error("Failed building message catalog", "err", err)
		os.Exit(-1)
	}
	otpService := smsotp.NewService(authRepo, catalog, config.SmsOtpConfig)

	notificationManager, err := notification.NewManager(
		notification.WithTwilio(config.TwilioConfig),
		notification.WithSMTP(config.SMTPConfig),
	)
	if err != nil {
		slog.Error("Failed initialize notification manager", "err", err)
		os.Exit(-1)
	}

	hub := relay.NewHub()
	relayService := relay.NewService(hub)

	operationService := operation.NewService(operationRepo, resolver, relayService)

	smsStep := operation.NewSMSOTPStep(otpService, notificationManager, phoneResolver(prefService))
	mobileStep := operation.NewMobileTokenStep(mobiletoken.NewService(secretRepo))

	operationHandler := operationapi.NewHandler(operationService, smsStep, mobileStep)
	operationHandler.RegisterRoutes(server.R)

	prefsHandler := prefsapi.NewHandler(prefService)
	prefsHandler.RegisterRoutes(server.R)

	server.R.Get("/ws", hub.Handler(relayService))

	server.Run()
}

// createRateLimitMiddleware creates and configures the rate limiting middleware
func createRateLimitMiddleware(config *Config) *ratelimit.Middleware {
	cfg := &ratelimit.Config{
		GlobalEnabled:    config.RateLimitConfig.GlobalEnabled,
		GlobalCapacity:   config.RateLimitConfig.GlobalCapacity,
		GlobalRefillRate: config.RateLimitConfig.GlobalRefillRate,

		PerIPEnabled:    config.RateLimitConfig.PerIPEnabled,
		PerIPCapacity:   config.RateLimitConfig.PerIPCapacity,
		PerIPRefillRate: config.RateLimitConfig.PerIPRefillRate,

		IncludeHeaders: true,
		BucketTTL:      1 * time.Hour,

		EndpointLimits: make(map[string]ratelimit.EndpointLimit),
	}

	// Tight limits on code verification to slow down brute force
	if config.RateLimitConfig.VerifyEnabled {
		verifyLimit := ratelimit.EndpointLimit{
			Capacity:   config.RateLimitConfig.VerifyCapacity,
			RefillRate: config.RateLimitConfig.VerifyRefillRate,
		}
		cfg.EndpointLimits["POST */sms-otp/verify"] = verifyLimit
		cfg.EndpointLimits["POST */mobile-token/verify"] = verifyLimit
	}

	return ratelimit.NewMiddleware(cfg)
}

// phoneResolver reads the destination phone number from the SMS_KEY method
// configuration in the user's preference record.
func phoneResolver(prefService *prefs.Service) operation.PhoneResolver {
	return func(ctx context.Context, userID string) (string, error) {
		pref, err := prefService.GetPreference(ctx, userID)
		if err != nil {
			return "", err
		}

		var methodConfig struct {
			PhoneNumber string `json:"phoneNumber"`
		}
		raw := pref.Methods[stepflow.MethodSMSKey].Config
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &methodConfig); err != nil {
				return "", fmt.Errorf("invalid sms method config for user %s: %w", userID, err)
			}
		}
		if methodConfig.PhoneNumber == "" {
			return "", fmt.Errorf("no phone number configured for user %s", userID)
		}
		return methodConfig.PhoneNumber, nil
	}
}

func buildCatalog(defaultLocale string) (*msgcatalog.Catalog, error) {
	catalog, err := msgcatalog.New(defaultLocale)
	if err != nil {
		return nil, err
	}

	messages := map[string]map[string]string{
		"en": {
			"sms-otp.text": "Authorization code for payment of %s %s to account %s is %s.",
		},
		"cs": {
			"sms-otp.text": "Autorizační kód pro platbu %s %s na účet %s je %s.",
		},
	}
	for locale, byKey := range messages {
		for key, template := range byKey {
			if err := catalog.AddMessage(locale, key, template); err != nil {
				return nil, err
			}
		}
	}
	return catalog, nil
}
