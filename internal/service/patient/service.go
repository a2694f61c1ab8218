package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required", nil)
	}

	patient := &model.Patient{
		Name:            name,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           strings.TrimSpace(req.Phone),
		DateOfBirth:     req.DateOfBirth,
		InsurancePlanID: req.InsurancePlanID,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

// Get returns a patient. Patient logins may only read their own record.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor *model.Principal) (*model.Patient, error) {
	if actor.Role == model.RolePatient && (actor.PatientID == nil || *actor.PatientID != id) {
		return nil, apperrors.Forbidden(nil)
	}
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", repository.ErrNotFound)
		}
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

func (s *Service) List(ctx context.Context, page model.Pagination) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}
