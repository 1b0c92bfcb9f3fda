package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/server/models"
)

type errorBody struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type recordingResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	AudioFilePath     string    `json:"audio_file_path,omitempty"`
	TranscriptionText string    `json:"transcription_text,omitempty"`
	Provider          string    `json:"llm_provider"`
	Notes             string    `json:"notes,omitempty"`
	ChunkCount        int       `json:"chunk_count"`
}

type recordingListResponse struct {
	Recordings []recordingResponse `json:"recordings"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

type chunkResponse struct {
	ID              string    `json:"id"`
	RecordingID     string    `json:"recording_id"`
	ChunkIndex      int       `json:"chunk_index"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

func toRecordingResponse(rec *models.Recording) recordingResponse {
	return recordingResponse{
		ID:                rec.ID,
		UserID:            rec.UserID,
		Status:            string(rec.Status),
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
		AudioFilePath:     rec.AudioFilePath,
		TranscriptionText: rec.TranscriptionText,
		Provider:          rec.Provider,
		Notes:             rec.Notes,
		ChunkCount:        rec.ChunkCount,
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrorInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorInvalidStatus),
		errors.Is(err, common.ErrorNotActive), errors.Is(err, common.ErrorChunkTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}

	s.writeJSON(w, status, errorResponse{Error: errorBody{Message: msg}})
}
