// Package config loads daemon configuration from the environment and
// governance parameter profiles from YAML. The normative protocol constants
// live in pkg/contracts; profiles may tighten them per deployment.
package config

import "os"

// Config holds daemon configuration.
type Config struct {
	LogLevel     string
	DatabasePath string
	SubstrateURL string
	AssessorURL  string
	OTLPEndpoint string
	ProfilePath  string
	DryRun       bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "constitutiond.db"
	}

	substrateURL := os.Getenv("SUBSTRATE_URL")
	assessorURL := os.Getenv("ASSESSOR_URL")
	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")
	profilePath := os.Getenv("GOVERNANCE_PROFILE")

	dryRun := os.Getenv("DRY_RUN") == "true" || substrateURL == ""

	return &Config{
		LogLevel:     logLevel,
		DatabasePath: dbPath,
		SubstrateURL: substrateURL,
		AssessorURL:  assessorURL,
		OTLPEndpoint: otlpEndpoint,
		ProfilePath:  profilePath,
		DryRun:       dryRun,
	}
}
