package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/dentalize/scheduler-api/internal/email"
	"github.com/dentalize/scheduler-api/internal/model"
	"github.com/dentalize/scheduler-api/internal/repository"
	"github.com/dentalize/scheduler-api/pkg/auth"
	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
	"github.com/dentalize/scheduler-api/pkg/logger"
	"github.com/dentalize/scheduler-api/pkg/security"
)

const resetTokenTTL = time.Hour

// Service authenticates practitioners and manages password resets.
type Service struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	jwt    auth.JWTService
	hasher *security.Hasher
	mailer email.Sender
	expiry time.Duration
	logger *logger.Logger
}

func NewService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	jwt auth.JWTService,
	hasher *security.Hasher,
	mailer email.Sender,
	accessExpiry time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		hasher: hasher,
		mailer: mailer,
		expiry: accessExpiry,
		logger: log,
	}
}

// Login verifies credentials and issues a token pair. The same error is
// returned for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record login time", "user_id", user.ID.String())
	}

	return s.issueTokens(user)
}

func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// RequestPasswordReset never reveals whether the email exists.
func (s *Service) RequestPasswordReset(ctx context.Context, req *model.ResetRequest) error {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return apperrors.NewInternal(err)
	}

	if err := s.tokens.StoreResetToken(ctx, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error(err, "failed to deliver reset email", "user_id", user.ID.String())
		return apperrors.NewInternal(err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.ValidateResetToken(ctx, token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired reset token")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewValidation(err.Error())
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.tokens.InvalidateToken(ctx, token); err != nil {
		s.logger.Error(err, "failed to invalidate reset token", "user_id", userID.String())
	}
	return nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.expiry.Seconds()),
	}, nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
