package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. The names
// follow the deployment surface: GOOGLE_CLIENT_ID, JWT_SECRET, DATABASE_DSN,
// LLM_API_KEY, AUDIO_STORAGE_PATH and friends. Unset variables leave the
// previous layer untouched; malformed numeric values panic, the same policy
// as a malformed JSON config file.
func parseEnv(config *Config) {
	envString(&config.EndpointAddr, "ENDPOINT_ADDR")
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = splitOrigins(v)
	}

	envString(&config.GoogleClientID, "GOOGLE_CLIENT_ID")
	envString(&config.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	envString(&config.SecretKey, "JWT_SECRET")
	envDuration(&config.TokenValidity, "TOKEN_VALIDITY")

	envString(&config.DatabaseDSN, "DATABASE_DSN")

	envString(&config.Provider, "LLM_PROVIDER")
	envString(&config.ProviderAPIKey, "LLM_API_KEY")
	envString(&config.ProviderBaseURL, "LLM_BASE_URL")
	envString(&config.ProviderModel, "LLM_MODEL")
	envString(&config.ProviderLanguage, "LLM_LANGUAGE")
	envString(&config.ProviderResponseFormat, "LLM_RESPONSE_FORMAT")
	envFloat(&config.ProviderTemperature, "LLM_TEMPERATURE")

	envString(&config.AudioStoragePath, "AUDIO_STORAGE_PATH")
	envInt64(&config.MaxChunkSizeMB, "MAX_CHUNK_SIZE_MB")
	envDuration(&config.MaxRecordingDuration, "MAX_RECORDING_DURATION")
	envInt(&config.PipelineQueueSize, "PIPELINE_QUEUE_SIZE")

	envBool(&config.S3Enabled, "S3_ENABLED")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	envBool(&config.Debug, "DEBUG")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func envBool(dst *bool, name string) {
	if v, ok := os.LookupEnv(name); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = parsed
	}
}

func envInt(dst *int, name string) {
	if v, ok := os.LookupEnv(name); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = parsed
	}
}

func envInt64(dst *int64, name string) {
	if v, ok := os.LookupEnv(name); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		*dst = parsed
	}
}

func envFloat(dst *float64, name string) {
	if v, ok := os.LookupEnv(name); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		*dst = parsed
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := os.LookupEnv(name); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = parsed
	}
}
