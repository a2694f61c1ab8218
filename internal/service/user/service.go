package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo     repository.UserRepository
	patients repository.PatientRepository
	hasher   auth.PasswordHasher
}

func NewService(repo repository.UserRepository, patients repository.PatientRepository, hasher auth.PasswordHasher) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		hasher:   hasher,
	}
}

// Create registers a login. Patient logins must point at a patient record.
func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.Validation("invalid role", nil)
	}
	if req.Role == model.RolePatient {
		if req.PatientID == nil {
			return nil, apperrors.Validation("patient_id is required for patient accounts", nil)
		}
		if _, err := s.patients.Get(ctx, *req.PatientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("patient", repository.ErrNotFound)
			}
			return nil, apperrors.Internal(err)
		}
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperrors.Validation("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       model.UserStatusActive,
	}
	if req.Role == model.RolePatient {
		user.PatientID = req.PatientID
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", repository.ErrNotFound)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}
