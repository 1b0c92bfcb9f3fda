package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const transcriptionsPath = "/v1/audio/transcriptions"

// HTTPProviderConfig carries the request parameters for the speech-to-text
// endpoint. ResponseFormat selects how the body is parsed: "text" reads it
// verbatim, anything else expects a JSON object with a "text" field.
type HTTPProviderConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Language       string
	ResponseFormat string
	Temperature    float64
}

// HTTPProvider uploads audio to a remote transcription API via a multipart
// request. A single failed attempt is a failed transcription; retry policy
// belongs to the caller.
type HTTPProvider struct {
	cfg    HTTPProviderConfig
	client *http.Client
}

func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	return &HTTPProvider{
		cfg: cfg,
		// Blunt ceiling for the whole upload+transcription round trip.
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (p *HTTPProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := validateAudioFile(audioPath); err != nil {
		return "", err
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"model":           p.cfg.Model,
		"language":        p.cfg.Language,
		"response_format": p.cfg.ResponseFormat,
		"temperature":     strconv.FormatFloat(p.cfg.Temperature, 'f', -1, 64),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return "", err
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + transcriptionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription failed: http %d: %s", resp.StatusCode, string(b))
	}

	if p.cfg.ResponseFormat == "text" || p.cfg.ResponseFormat == "" {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("transcription response: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}
