// Package users implements the account service: resolving verified Google
// identities to local users and issuing session tokens.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medvoice/medvoice/internal/common"
	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/auth"
	"github.com/medvoice/medvoice/internal/server/config"
	"github.com/medvoice/medvoice/internal/server/models"
	"github.com/medvoice/medvoice/internal/server/repositories/repomanager"
)

// GoogleTokenVerifier resolves a Google ID token to an identity.
type GoogleTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.GoogleUserInfo, error)
}

type Service struct {
	db            *sql.DB
	rm            repomanager.RepositoryManager
	verifier      GoogleTokenVerifier
	jwtSecret     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, verifier GoogleTokenVerifier,
	cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		db:            db,
		rm:            rm,
		verifier:      verifier,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidity,
		logger:        logger.With("module", "user_service"),
	}
}

// LoginWithGoogleToken verifies the ID token, upserts the user (creating an
// account on first login, refreshing name/avatar afterwards) and issues a
// session token.
func (s *Service) LoginWithGoogleToken(ctx context.Context, idToken string) (*models.User, string, error) {
	info, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "google token verification failed", "error", err)
		return nil, "", common.ErrorInternal
	}

	user, err := s.authenticateOrCreate(ctx, info)
	if err != nil {
		s.logger.Error(ctx, "user upsert failed", "error", err)
		return nil, "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.DisplayName, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

func (s *Service) authenticateOrCreate(ctx context.Context, info *auth.GoogleUserInfo) (*models.User, error) {
	repo := s.rm.Users(s.db)

	user, err := repo.GetByGoogleID(ctx, info.GoogleID)
	if err == nil {
		s.logger.Info(ctx, "authenticated existing user", "user_id", user.ID)
		return repo.UpdateProfile(ctx, user.ID, info.DisplayName, info.AvatarURL)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:          uuid.NewString(),
		GoogleID:    info.GoogleID,
		Email:       info.Email,
		DisplayName: info.DisplayName,
		AvatarURL:   info.AvatarURL,
	}
	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.logger.Info(ctx, "created new user", "user_id", created.ID)
	return created, nil
}

// GetByID fetches one user, for the session-info endpoint.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.rm.Users(s.db).GetByID(ctx, id)
}
