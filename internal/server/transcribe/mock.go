package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultMockText = "This is a mock transcription of the audio file. " +
	"The patient reports feeling well today with no significant symptoms."

// MockConfig controls the deterministic test backend.
type MockConfig struct {
	// Text is the canned transcription; a default is used when empty.
	Text string
	// Delay is slept (context-aware) before answering.
	Delay time.Duration
	// ShouldFail makes every call return FailureMessage as an error.
	ShouldFail     bool
	FailureMessage string
}

// Mock is the deterministic transcription backend used in tests and debug
// deployments. It annotates the canned text with the input path so callers
// can assert which file reached the backend.
type Mock struct {
	cfg MockConfig
}

func NewMock(cfg MockConfig) *Mock {
	if cfg.Text == "" {
		cfg.Text = defaultMockText
	}
	if cfg.FailureMessage == "" {
		cfg.FailureMessage = "mock transcription failure"
	}
	return &Mock{cfg: cfg}
}

func (m *Mock) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := validateAudioFile(audioPath); err != nil {
		return "", err
	}

	if m.cfg.ShouldFail {
		return "", errors.New(m.cfg.FailureMessage)
	}

	if m.cfg.Delay > 0 {
		select {
		case <-time.After(m.cfg.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return fmt.Sprintf("%s [File: %s]", m.cfg.Text, audioPath), nil
}
