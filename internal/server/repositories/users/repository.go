package users

import (
	"context"

	"github.com/medvoice/medvoice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, displayName string, avatarURL string) (*models.User, error)
}
