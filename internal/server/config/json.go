package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/medvoice/medvoice/internal/flagx"
	"github.com/medvoice/medvoice/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. It uses timex.Duration
// for interval fields, which allows parsing both string values such as "24h"
// and integer nanoseconds. Zero values are treated as "not set" and leave the
// previously applied layer untouched.
type JsonConfig struct {
	EndpointAddr           string         `json:"endpoint_addr"`
	AllowedOrigins         string         `json:"allowed_origins"`
	GoogleClientID         string         `json:"google_client_id"`
	GoogleClientSecret     string         `json:"google_client_secret"`
	SecretKey              string         `json:"secret_key"`
	TokenValidity          timex.Duration `json:"token_validity"`
	DatabaseDSN            string         `json:"database_dsn"`
	Provider               string         `json:"provider"`
	ProviderAPIKey         string         `json:"provider_api_key"`
	ProviderBaseURL        string         `json:"provider_base_url"`
	ProviderModel          string         `json:"provider_model"`
	ProviderLanguage       string         `json:"provider_language"`
	ProviderResponseFormat string         `json:"provider_response_format"`
	ProviderTemperature    *float64       `json:"provider_temperature"`
	AudioStoragePath       string         `json:"audio_storage_path"`
	MaxChunkSizeMB         int64          `json:"max_chunk_size_mb"`
	MaxRecordingDuration   timex.Duration `json:"max_recording_duration"`
	PipelineQueueSize      int            `json:"pipeline_queue_size"`
	S3Enabled              bool           `json:"s3_enabled"`
	S3RootUser             string         `json:"s3_root_user"`
	S3RootPassword         string         `json:"s3_root_password"`
	S3Bucket               string         `json:"s3_bucket"`
	S3Region               string         `json:"s3_region"`
	S3BaseEndpoint         string         `json:"s3_base_endpoint"`
	Debug                  bool           `json:"debug"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. An unreadable or
// malformed file panics: a partially applied config is worse than no start.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	if c.AllowedOrigins != "" {
		config.AllowedOrigins = splitOrigins(c.AllowedOrigins)
	}
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidity.Duration != 0 {
		config.TokenValidity = c.TokenValidity.Duration
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Provider, c.Provider)
	setString(&config.ProviderAPIKey, c.ProviderAPIKey)
	setString(&config.ProviderBaseURL, c.ProviderBaseURL)
	setString(&config.ProviderModel, c.ProviderModel)
	setString(&config.ProviderLanguage, c.ProviderLanguage)
	setString(&config.ProviderResponseFormat, c.ProviderResponseFormat)
	if c.ProviderTemperature != nil {
		config.ProviderTemperature = *c.ProviderTemperature
	}
	setString(&config.AudioStoragePath, c.AudioStoragePath)
	if c.MaxChunkSizeMB != 0 {
		config.MaxChunkSizeMB = c.MaxChunkSizeMB
	}
	if c.MaxRecordingDuration.Duration != 0 {
		config.MaxRecordingDuration = c.MaxRecordingDuration.Duration
	}
	if c.PipelineQueueSize != 0 {
		config.PipelineQueueSize = c.PipelineQueueSize
	}
	if c.S3Enabled {
		config.S3Enabled = true
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.Debug {
		config.Debug = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
