package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked, please try again later")
)

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   auth.PasswordHasher
	policy   config.LoginConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher auth.PasswordHasher,
	policy config.LoginConfig, logger *zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks the password and issues an access token. Repeated failures
// lock the account for the configured lockout duration.
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, apperrors.Internal(err)
	}

	now := s.now()
	if user.Status == model.UserStatusLocked {
		if user.LastLoginAttempt != nil && now.Sub(*user.LastLoginAttempt) < s.policy.LockoutDuration {
			return nil, apperrors.Forbidden(ErrAccountLocked)
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = &now
		if s.policy.MaxAttempts > 0 && user.LoginAttempts >= s.policy.MaxAttempts {
			user.Status = model.UserStatusLocked
			s.logger.Warn().Str("user_id", user.ID.String()).Msg("Account locked after failed logins")
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apperrors.Internal(err)
		}
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	user.LoginAttempts = 0
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}

	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("User logged in")
	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtSvc.Expiry().Seconds()),
		Role:        user.Role,
	}, nil
}
