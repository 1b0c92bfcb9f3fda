// Package httpapi exposes the REST surface of the transcription backend:
// Google sign-in, recording lifecycle and chunk upload endpoints.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/config"
	"github.com/medvoice/medvoice/internal/server/models"
)

// UserService is the account surface the handlers need.
type UserService interface {
	LoginWithGoogleToken(ctx context.Context, idToken string) (*models.User, string, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RecordingService is the recording surface the handlers need.
type RecordingService interface {
	Create(ctx context.Context, userID string) (*models.Recording, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*models.Recording, error)
	Get(ctx context.Context, userID, recordingID string) (*models.Recording, error)
	UploadChunk(ctx context.Context, userID, recordingID string, chunkIndex int, content io.Reader, durationSeconds *float64) (*models.RecordingChunk, int64, error)
	Pause(ctx context.Context, userID, recordingID string) (*models.Recording, error)
	Resume(ctx context.Context, userID, recordingID string) (*models.Recording, error)
	Finish(ctx context.Context, userID, recordingID string) (*models.Recording, error)
	UpdateNotes(ctx context.Context, userID, recordingID, notes string) (*models.Recording, error)
	Delete(ctx context.Context, userID, recordingID string) error
	AudioLocation(ctx context.Context, userID, recordingID string) (url string, localPath string, err error)
}

type HTTPServer struct {
	address        string
	users          UserService
	recordings     RecordingService
	jwtSecret      []byte
	allowedOrigins []string
	maxChunkBytes  int64
	logger         logging.Logger
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService, rs RecordingService) *HTTPServer {
	return &HTTPServer{
		address:        cfg.EndpointAddr,
		users:          us,
		recordings:     rs,
		jwtSecret:      []byte(cfg.SecretKey),
		allowedOrigins: cfg.AllowedOrigins,
		maxChunkBytes:  cfg.MaxChunkSizeMB * 1024 * 1024,
		logger:         l.With("module", "http_server"),
	}
}

// Handler builds the full route table with auth and CORS applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/google/token", s.handleGoogleToken)
	mux.HandleFunc("GET /auth/google/login", s.handleGoogleLogin)
	mux.Handle("GET /auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("POST /auth/logout", s.handleLogout)

	mux.Handle("POST /recordings/", s.requireAuth(s.handleCreateRecording))
	mux.Handle("GET /recordings/", s.requireAuth(s.handleListRecordings))
	mux.Handle("GET /recordings/{id}", s.requireAuth(s.handleGetRecording))
	mux.Handle("POST /recordings/{id}/chunks", s.requireAuth(s.handleUploadChunk))
	mux.Handle("PATCH /recordings/{id}/pause", s.requireAuth(s.handlePause))
	mux.Handle("POST /recordings/{id}/resume", s.requireAuth(s.handleResume))
	mux.Handle("POST /recordings/{id}/finish", s.requireAuth(s.handleFinish))
	mux.Handle("PATCH /recordings/{id}/notes", s.requireAuth(s.handleUpdateNotes))
	mux.Handle("DELETE /recordings/{id}", s.requireAuth(s.handleDeleteRecording))
	mux.Handle("GET /recordings/{id}/audio", s.requireAuth(s.handleAudio))

	return s.corsMiddleware(mux)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
