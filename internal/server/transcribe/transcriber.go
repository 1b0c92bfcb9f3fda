// Package transcribe converts an assembled audio file into text through a
// pluggable backend: an HTTP speech-to-text provider or a deterministic mock.
package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/medvoice/medvoice/internal/server/config"
)

// Transcriber is the pluggable transcription backend. Transcribe blocks
// until the text is available or the context is cancelled; callers that need
// the detached form run it from a worker goroutine.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// New selects the backend from the configuration: the mock in debug mode or
// when explicitly configured, otherwise the HTTP provider.
func New(cfg *config.Config) Transcriber {
	if cfg.Debug || cfg.Provider == "mock" {
		return NewMock(MockConfig{})
	}
	return NewHTTPProvider(HTTPProviderConfig{
		BaseURL:        cfg.ProviderBaseURL,
		APIKey:         cfg.ProviderAPIKey,
		Model:          cfg.ProviderModel,
		Language:       cfg.ProviderLanguage,
		ResponseFormat: cfg.ProviderResponseFormat,
		Temperature:    cfg.ProviderTemperature,
	})
}

// validateAudioFile fails fast when the input path does not point at a
// regular file, before any network or timer work happens.
func validateAudioFile(audioPath string) error {
	info, err := os.Stat(audioPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("invalid audio file: %s", audioPath)
	}
	return nil
}
