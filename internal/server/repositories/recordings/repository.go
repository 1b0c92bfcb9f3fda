package recordings

import (
	"context"

	"github.com/medvoice/medvoice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.Recording) (*models.Recording, error)
	GetByID(ctx context.Context, id string) (*models.Recording, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Recording, error)
	UpdateStatus(ctx context.Context, id string, status models.RecordingStatus) (*models.Recording, error)
	UpdateNotes(ctx context.Context, id string, notes string) (*models.Recording, error)
	UpdateTranscription(ctx context.Context, id string, text string, audioPath string) error
	Delete(ctx context.Context, id string) error

	AddChunk(ctx context.Context, chunk *models.RecordingChunk) (*models.RecordingChunk, error)
	GetChunks(ctx context.Context, recordingID string) ([]*models.RecordingChunk, error)
}
