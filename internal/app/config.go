package app

import (
	"context"
	"os"
	"strings"
	"time"

	"crm_sheet_sync/internal/crm"
	"crm_sheet_sync/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// crmTokenSource picks the auth mode from the environment: a static API
// token when CRM_API_TOKEN is set, otherwise an OAuth refresh-token source
// that renews access tokens as they expire.
func crmTokenSource(ctx context.Context) oauth2.TokenSource {
	if token := os.Getenv("CRM_API_TOKEN"); token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	}

	conf := &oauth2.Config{
		ClientID:     GetRequiredEnv("CRM_CLIENT_ID"),
		ClientSecret: GetRequiredEnv("CRM_CLIENT_SECRET"),
		Endpoint: oauth2.Endpoint{
			TokenURL: GetRequiredEnv("CRM_TOKEN_URL"),
		},
	}
	refresh := &oauth2.Token{RefreshToken: GetRequiredEnv("CRM_REFRESH_TOKEN")}
	return conf.TokenSource(ctx, refresh)
}

// InitializeClients creates and returns the CRM API client and Google Sheets client.
func InitializeClients(ctx context.Context) (*crm.Client, *sheets.Client) {
	log.Debug().Msg("Initializing clients")
	baseURL := GetRequiredEnv("CRM_BASE_URL")
	credsFile := GetEnvWithDefault("SHEETS_CREDENTIALS_FILE", "credentials.json")

	crmClient := crm.NewClient(baseURL, crmTokenSource(ctx))
	sheetsClient, err := sheets.NewClient(ctx, credsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	log.Debug().Msg("Clients initialized successfully")
	return crmClient, sheetsClient
}
