package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/server/models"
)

func (s *HTTPServer) handleCreateRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := s.recordings.Create(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toRecordingResponse(rec))
}

func (s *HTTPServer) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	recs, err := s.recordings.List(r.Context(), userIDFrom(r.Context()), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := recordingListResponse{
		Recordings: make([]recordingResponse, 0, len(recs)),
		Limit:      limit,
		Offset:     offset,
	}
	for _, rec := range recs {
		out.Recordings = append(out.Recordings, toRecordingResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := s.recordings.Get(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

// handleUploadChunk accepts one multipart audio segment. The form carries
// the file under "audio_chunk", its position under "chunk_index" and an
// optional "duration_seconds".
func (s *HTTPServer) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxChunkBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, r, common.ErrorChunkTooLarge)
		} else {
			s.writeError(w, r, common.ErrorValidation)
		}
		return
	}

	chunkIndex, err := strconv.Atoi(r.FormValue("chunk_index"))
	if err != nil || chunkIndex < 0 {
		s.writeError(w, r, common.ErrorValidation)
		return
	}

	var durationSeconds *float64
	if raw := r.FormValue("duration_seconds"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || d < 0 {
			s.writeError(w, r, common.ErrorValidation)
			return
		}
		durationSeconds = &d
	}

	file, _, err := r.FormFile("audio_chunk")
	if err != nil {
		s.writeError(w, r, common.ErrorValidation)
		return
	}
	defer file.Close()

	chunk, size, err := s.recordings.UploadChunk(r.Context(), userIDFrom(r.Context()),
		r.PathValue("id"), chunkIndex, file, durationSeconds)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, chunkResponse{
		ID:              chunk.ID,
		RecordingID:     chunk.RecordingID,
		ChunkIndex:      chunk.ChunkIndex,
		SizeBytes:       size,
		DurationSeconds: chunk.DurationSeconds,
		UploadedAt:      chunk.UploadedAt,
	})
}

func (s *HTTPServer) handlePause(w http.ResponseWriter, r *http.Request) {
	s.writeTransition(w, r, s.recordings.Pause)
}

func (s *HTTPServer) handleResume(w http.ResponseWriter, r *http.Request) {
	s.writeTransition(w, r, s.recordings.Resume)
}

// handleFinish ends the session and returns immediately; assembly and
// transcription run in the background worker.
func (s *HTTPServer) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.writeTransition(w, r, s.recordings.Finish)
}

func (s *HTTPServer) writeTransition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, userID, recordingID string) (*models.Recording, error)) {

	rec, err := fn(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *HTTPServer) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorValidation)
		return
	}

	rec, err := s.recordings.UpdateNotes(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

func (s *HTTPServer) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.recordings.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAudio serves the assembled audio: a presigned archive URL when
// archival is configured, otherwise the local file.
func (s *HTTPServer) handleAudio(w http.ResponseWriter, r *http.Request) {
	url, localPath, err := s.recordings.AudioLocation(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if url != "" {
		s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, localPath)
}
