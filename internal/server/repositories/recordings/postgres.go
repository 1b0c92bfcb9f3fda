// Package recordings provides the PostgreSQL-backed repository for recording
// sessions and their uploaded audio chunks.
package recordings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/dbx"
	"github.com/medvoice/medvoice/internal/server/models"
)

// recordingColumns is the select list shared by every recording query.
// chunk_count is computed on read; the recordings table does not carry it.
const recordingColumns = `
	r.id, r.user_id, r.status, r.created_at, r.updated_at,
	COALESCE(r.audio_file_path, ''), COALESCE(r.transcription_text, ''),
	r.provider, COALESCE(r.notes, ''),
	(SELECT COUNT(*) FROM recording_chunks c WHERE c.recording_id = r.id)`

// PostgresRepository implements recording storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Recording) (*models.Recording, error) {
	query := `
		INSERT INTO recordings (id, user_id, status, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.Status, rec.Provider).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings r WHERE r.id = $1`
	return scanRecording(r.db.QueryRowContext(ctx, query, id))
}

// ListByUser returns the user's recordings newest-first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Recording, error) {
	query := `SELECT ` + recordingColumns + `
		FROM recordings r WHERE r.user_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Recording
	for rows.Next() {
		rec := &models.Recording{}
		if err := scanRecordingInto(rows, rec); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.RecordingStatus) (*models.Recording, error) {
	query := `
		UPDATE recordings r SET status = $2, updated_at = now()
		WHERE r.id = $1
		RETURNING ` + recordingColumns
	return scanRecording(r.db.QueryRowContext(ctx, query, id, status))
}

func (r *PostgresRepository) UpdateNotes(ctx context.Context, id string, notes string) (*models.Recording, error) {
	query := `
		UPDATE recordings r SET notes = $2, updated_at = now()
		WHERE r.id = $1
		RETURNING ` + recordingColumns
	return scanRecording(r.db.QueryRowContext(ctx, query, id, notes))
}

// UpdateTranscription writes the pipeline result. This is the only query in
// the repository that touches transcription_text and audio_file_path.
func (r *PostgresRepository) UpdateTranscription(ctx context.Context, id string, text string, audioPath string) error {
	query := `
		UPDATE recordings SET transcription_text = $2, audio_file_path = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, text, audioPath)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the recording row; chunk rows cascade via the FK.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) AddChunk(ctx context.Context, chunk *models.RecordingChunk) (*models.RecordingChunk, error) {
	query := `
		INSERT INTO recording_chunks (id, recording_id, chunk_index, audio_blob_path, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		chunk.ID, chunk.RecordingID, chunk.ChunkIndex, chunk.AudioBlobPath, chunk.DurationSeconds).
		Scan(&chunk.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return chunk, nil
}

// GetChunks returns chunks ordered for assembly: ascending index, with ties
// broken by arrival order so duplicate indices stay stable.
func (r *PostgresRepository) GetChunks(ctx context.Context, recordingID string) ([]*models.RecordingChunk, error) {
	query := `
		SELECT id, recording_id, chunk_index, audio_blob_path, duration_seconds, uploaded_at
		FROM recording_chunks
		WHERE recording_id = $1
		ORDER BY chunk_index, uploaded_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, recordingID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RecordingChunk
	for rows.Next() {
		var item models.RecordingChunk
		if err := rows.Scan(
			&item.ID, &item.RecordingID, &item.ChunkIndex, &item.AudioBlobPath,
			&item.DurationSeconds, &item.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecordingInto(s scanner, rec *models.Recording) error {
	return s.Scan(
		&rec.ID, &rec.UserID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.AudioFilePath, &rec.TranscriptionText,
		&rec.Provider, &rec.Notes,
		&rec.ChunkCount,
	)
}

func scanRecording(row *sql.Row) (*models.Recording, error) {
	rec := &models.Recording{}
	if err := scanRecordingInto(row, rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}
