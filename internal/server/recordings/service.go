// Package recordings implements the recording-session service: lifecycle
// transitions, ownership checks, chunk persistence and pipeline scheduling.
package recordings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/dbx"
	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/config"
	"github.com/medvoice/medvoice/internal/server/models"
	"github.com/medvoice/medvoice/internal/server/repositories/repomanager"
	"github.com/medvoice/medvoice/internal/server/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Scheduler queues one pipeline run per finished recording.
type Scheduler interface {
	Enqueue(recordingID string) bool
}

// AudioPresigner hands out a download URL for archived assembled audio.
type AudioPresigner interface {
	PresignGetURL(ctx context.Context, recordingID string) (string, error)
}

type Service struct {
	db        *sql.DB
	rm        repomanager.RepositoryManager
	store     *storage.Store
	scheduler Scheduler
	presigner AudioPresigner // nil when S3 archival is not configured
	config    *config.Config
	logger    logging.Logger
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, store *storage.Store,
	scheduler Scheduler, presigner AudioPresigner, cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		db:        db,
		rm:        rm,
		store:     store,
		scheduler: scheduler,
		presigner: presigner,
		config:    cfg,
		logger:    logger.With("module", "recording_service"),
	}
}

// Create starts a new active recording session for the user and prepares its
// blob directory.
func (s *Service) Create(ctx context.Context, userID string) (*models.Recording, error) {
	rec := &models.Recording{
		ID:       uuid.NewString(),
		UserID:   userID,
		Status:   models.StatusActive,
		Provider: s.config.Provider,
	}

	rec, err := s.rm.Recordings(s.db).Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("error creating recording: %w", err)
	}

	if _, err := s.store.EnsureRecordingDir(rec.ID); err != nil {
		s.logger.Warn(ctx, "recording dir not created", "recording_id", rec.ID, "error", err)
	}

	return rec, nil
}

// List returns the user's recordings newest-first, clamping the page size.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*models.Recording, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.rm.Recordings(s.db).ListByUser(ctx, userID, limit, offset)
}

// Get fetches one recording, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	return s.getOwned(ctx, userID, recordingID)
}

// UploadChunk persists one audio segment: blob first, then the row. The
// write is rejected unless the recording is active; a failed row insert
// removes the blob so no orphan file stays behind.
func (s *Service) UploadChunk(ctx context.Context, userID, recordingID string, chunkIndex int,
	content io.Reader, durationSeconds *float64) (*models.RecordingChunk, int64, error) {

	rec, err := s.getOwned(ctx, userID, recordingID)
	if err != nil {
		return nil, 0, err
	}
	if rec.Status != models.StatusActive {
		return nil, 0, common.ErrorNotActive
	}

	maxBytes := s.config.MaxChunkSizeMB * 1024 * 1024
	limited := io.LimitReader(content, maxBytes+1)

	path, size, err := s.store.SaveChunk(recordingID, chunkIndex, limited)
	if err != nil {
		return nil, 0, fmt.Errorf("store chunk: %w", err)
	}
	if size > maxBytes {
		_ = s.store.Remove(path)
		return nil, 0, common.ErrorChunkTooLarge
	}

	chunk := &models.RecordingChunk{
		ID:              uuid.NewString(),
		RecordingID:     recordingID,
		ChunkIndex:      chunkIndex,
		AudioBlobPath:   path,
		DurationSeconds: durationSeconds,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.rm.Recordings(tx).AddChunk(ctx, chunk)
		return err
	})
	if err != nil {
		_ = s.store.Remove(path)
		return nil, 0, fmt.Errorf("persist chunk: %w", err)
	}

	s.logger.Info(ctx, "chunk stored", "recording_id", recordingID, "chunk_index", chunkIndex, "bytes", size)
	return chunk, size, nil
}

// Pause suspends an active recording. Ended recordings cannot change state.
func (s *Service) Pause(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	return s.transition(ctx, userID, recordingID, models.StatusPaused)
}

// Resume reactivates a paused recording.
func (s *Service) Resume(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	return s.transition(ctx, userID, recordingID, models.StatusActive)
}

func (s *Service) transition(ctx context.Context, userID, recordingID string, to models.RecordingStatus) (*models.Recording, error) {
	rec, err := s.getOwned(ctx, userID, recordingID)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusEnded {
		return nil, common.ErrorNotActive
	}
	return s.rm.Recordings(s.db).UpdateStatus(ctx, recordingID, to)
}

// Finish ends the session and schedules exactly one pipeline run. The
// status change is committed before scheduling so the worker always sees an
// ended recording.
func (s *Service) Finish(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	if _, err := s.getOwned(ctx, userID, recordingID); err != nil {
		return nil, err
	}

	rec, err := s.rm.Recordings(s.db).UpdateStatus(ctx, recordingID, models.StatusEnded)
	if err != nil {
		return nil, err
	}

	if s.scheduler != nil {
		s.scheduler.Enqueue(recordingID)
	}

	s.logger.Info(ctx, "recording finished, transcription scheduled", "recording_id", recordingID)
	return rec, nil
}

// UpdateNotes overwrites the free-text notes.
func (s *Service) UpdateNotes(ctx context.Context, userID, recordingID, notes string) (*models.Recording, error) {
	if _, err := s.getOwned(ctx, userID, recordingID); err != nil {
		return nil, err
	}
	return s.rm.Recordings(s.db).UpdateNotes(ctx, recordingID, notes)
}

// Delete removes the recording row (chunks cascade) and its blob directory.
func (s *Service) Delete(ctx context.Context, userID, recordingID string) error {
	if _, err := s.getOwned(ctx, userID, recordingID); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.rm.Recordings(tx).Delete(ctx, recordingID)
	})
	if err != nil {
		return err
	}

	if err := s.store.RemoveRecording(recordingID); err != nil {
		s.logger.Warn(ctx, "blob directory not removed", "recording_id", recordingID, "error", err)
	}
	return nil
}

// AudioLocation resolves where the assembled audio can be fetched from:
// a presigned archive URL when archival is configured, otherwise the local
// file path for streaming. ErrorNotFound when no assembled audio exists yet.
func (s *Service) AudioLocation(ctx context.Context, userID, recordingID string) (url string, localPath string, err error) {
	rec, err := s.getOwned(ctx, userID, recordingID)
	if err != nil {
		return "", "", err
	}
	if rec.AudioFilePath == "" {
		return "", "", common.ErrorNotFound
	}

	if s.presigner != nil {
		url, err := s.presigner.PresignGetURL(ctx, recordingID)
		if err != nil {
			s.logger.Warn(ctx, "presign failed, falling back to local file", "recording_id", recordingID, "error", err)
			return "", rec.AudioFilePath, nil
		}
		return url, "", nil
	}

	return "", rec.AudioFilePath, nil
}

func (s *Service) getOwned(ctx context.Context, userID, recordingID string) (*models.Recording, error) {
	rec, err := s.rm.Recordings(s.db).GetByID(ctx, recordingID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	if rec.UserID != userID {
		return nil, common.ErrorForbidden
	}
	return rec, nil
}
