// Package pipeline runs the assemble-then-transcribe operation for finished
// recordings: load chunks, concatenate them into one audio file, send it to
// the transcription backend and persist the resulting text.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/repositories/repomanager"
	"github.com/medvoice/medvoice/internal/server/storage"
	"github.com/medvoice/medvoice/internal/server/transcribe"
)

// Archiver optionally copies the assembled audio to long-term storage after
// a successful run. Failures are logged, never fatal for the run.
type Archiver interface {
	Upload(ctx context.Context, recordingID string, path string) error
}

type Service struct {
	db          *sql.DB
	rm          repomanager.RepositoryManager
	assembler   *Assembler
	transcriber transcribe.Transcriber
	archiver    Archiver // nil when archival is not configured
	logger      logging.Logger
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, store *storage.Store,
	transcriber transcribe.Transcriber, archiver Archiver, logger logging.Logger) *Service {
	return &Service{
		db:          db,
		rm:          rm,
		assembler:   NewAssembler(store, logger),
		transcriber: transcriber,
		archiver:    archiver,
		logger:      logger.With("module", "pipeline"),
	}
}

// Run processes one finished recording. It is invoked detached from any
// request, so every failure is terminal for this run and observable only via
// logs and the recording's transcription fields staying empty. A recording
// that already carries a transcription is skipped, which keeps a duplicate
// finish or a racing re-run from overwriting a completed result.
func (s *Service) Run(ctx context.Context, recordingID string) error {
	log := s.logger.With("recording_id", recordingID)

	repo := s.rm.Recordings(s.db)

	rec, err := repo.GetByID(ctx, recordingID)
	if err != nil {
		return fmt.Errorf("load recording: %w", err)
	}

	if rec.TranscriptionText != "" {
		log.Info(ctx, "recording already transcribed, skipping")
		return nil
	}

	chunks, err := repo.GetChunks(ctx, recordingID)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		// A user may finish a recording without uploading any audio.
		log.Info(ctx, "nothing to transcribe")
		return common.ErrorNothingToTranscribe
	}

	assembledPath, err := s.assembler.Assemble(ctx, recordingID, chunks)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	text, err := s.transcriber.Transcribe(ctx, assembledPath)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	if err := repo.UpdateTranscription(ctx, recordingID, text, assembledPath); err != nil {
		return fmt.Errorf("persist transcription: %w", err)
	}

	log.Info(ctx, "recording transcribed", "chars", len(text))

	if s.archiver != nil {
		if err := s.archiver.Upload(ctx, recordingID, assembledPath); err != nil {
			log.Warn(ctx, "archive upload failed", "error", err)
		}
	}

	return nil
}
