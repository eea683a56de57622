package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// JWTConfig defines issuer/secret pair for admin auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// CustomFieldIDs are the CRM ids of the four review custom fields.
type CustomFieldIDs struct {
	Rating         string
	ReviewLocation string
	ReviewDate     string
	Feedback       string
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                       string
	AccessToken                string
	LocationID                 string
	CRMBaseURL                 string
	CRMAPIVersion              string
	CRMTimeout                 time.Duration
	CustomFieldsMode           string
	CustomFields               CustomFieldIDs
	DefaultSource              string
	AllowedOrigins             []string
	MongoURI                   string
	MongoDatabase              string
	MongoTimeout               time.Duration
	FailedEnrichmentCollection string
	JWTConfigs                 []JWTConfig
	JWTAudience                string
	SentryDSN                  string
	Environment                string
	Version                    string
	ServerLog                  *log.Logger
}

// Load reads environment variables and returns a fully populated Config.
// Missing CRM credentials are not fatal: the review endpoint answers 500 until they are set.
func Load() Config {
	logger := log.New(os.Stdout, "[review-relay] ", log.LstdFlags|log.Lshortfile)

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("AUTH_ADMIN_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_ADMIN_JWT_ISSUER", "review-relay-admin"),
			Secret: []byte(secret),
		})
	}

	cfg := Config{
		Addr:             envOrDefault("HTTP_ADDR", ":8080"),
		AccessToken:      strings.TrimSpace(os.Getenv("GHL_ACCESS_TOKEN")),
		LocationID:       strings.TrimSpace(os.Getenv("GHL_LOCATION_ID")),
		CRMBaseURL:       envOrDefault("GHL_BASE_URL", "https://services.leadconnectorhq.com"),
		CRMAPIVersion:    envOrDefault("GHL_API_VERSION", "2021-07-28"),
		CRMTimeout:       durationOrDefault("GHL_TIMEOUT", 15*time.Second),
		CustomFieldsMode: strings.ToLower(envOrDefault("GHL_CUSTOM_FIELDS_MODE", "inline")),
		CustomFields: CustomFieldIDs{
			Rating:         envOrDefault("GHL_FIELD_RATING", "E6wd31Ij8ld7ctPsgsnZ"),
			ReviewLocation: envOrDefault("GHL_FIELD_REVIEW_LOCATION", "paKbVGQE6MaTvGabVnj0"),
			ReviewDate:     envOrDefault("GHL_FIELD_REVIEW_DATE", "SLwouXYkId5VYl11b3R9"),
			Feedback:       envOrDefault("GHL_FIELD_FEEDBACK", "8fvluSPLrqs9EVYEyPME"),
		},
		DefaultSource:              envOrDefault("REVIEW_DEFAULT_SOURCE", "Website Review Widget"),
		AllowedOrigins:             parseList("API_ALLOWED_ORIGINS", []string{"https://app.gohighlevel.com", "http://localhost"}),
		MongoURI:                   strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:              envOrDefault("MONGO_DB", "review-relay"),
		MongoTimeout:               durationOrDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		FailedEnrichmentCollection: envOrDefault("FAILED_ENRICHMENT_COLLECTION", "failed_enrichments"),
		JWTConfigs:                 jwtConfigs,
		JWTAudience:                strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		SentryDSN:                  strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		Environment:                envOrDefault("APP_ENV", "development"),
		Version:                    envOrDefault("APP_VERSION", "dev"),
		ServerLog:                  logger,
	}

	if cfg.AccessToken == "" || cfg.LocationID == "" {
		logger.Printf("GHL_ACCESS_TOKEN or GHL_LOCATION_ID is not set; review submissions will fail")
	}
	logger.Printf("loaded config: crmBaseURL=%q customFieldsMode=%q allowedOrigins=%q mongo=%t", cfg.CRMBaseURL, cfg.CustomFieldsMode, cfg.AllowedOrigins, cfg.MongoURI != "")

	return cfg
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
