package config

import (
	"log"
	"os"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port             string
	CORSAllowOrigin  []string
	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	InboundBucket    string
	OutboundBucket   string
	AnalyzerType     string
	AnalysisEndpoint string
	AnalysisKey      string
	TokenURL         string
	ClientID         string
	ClientSecret     string
	Scopes           []string
	DatabaseURL      string
	Env              string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	analyzer := normalizeAnalyzerType(getEnv("ANALYZER", "remote"))
	endpoint := os.Getenv("ANALYSIS_ENDPOINT")

	if env == "production" && analyzer == "remote" && endpoint == "" {
		log.Printf("ANALYSIS_ENDPOINT is required in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		InboundBucket:    getEnv("INBOUND_BUCKET", "documents-inbound"),
		OutboundBucket:   getEnv("OUTBOUND_BUCKET", "documents-outbound"),
		AnalyzerType:     analyzer,
		AnalysisEndpoint: endpoint,
		AnalysisKey:      getEnv("ANALYSIS_KEY", ""),
		TokenURL:         getEnv("ANALYSIS_TOKEN_URL", ""),
		ClientID:         getEnv("ANALYSIS_CLIENT_ID", ""),
		ClientSecret:     getEnv("ANALYSIS_CLIENT_SECRET", ""),
		Scopes:           splitAndTrim(getEnv("ANALYSIS_SCOPES", "")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Env:              env,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeAnalyzerType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local", "offline":
		return "local"
	default:
		return "remote"
	}
}
